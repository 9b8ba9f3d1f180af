package domain

type Recommendation string

const (
	RecommendationSelected Recommendation = "SELECTED"
	RecommendationRejected Recommendation = "REJECTED"
)

type SkillAssessment struct {
	Skill           string `json:"skill"`
	ConfidenceScore int    `json:"confidence_score"`
	ImportanceScore int    `json:"importance_score"`
	WeightedScore   int    `json:"weighted_score"`
	Commentary      string `json:"commentary"`
}

// FinalReport is persisted verbatim on the interview row.
type FinalReport struct {
	ReportGeneratedAt       string            `json:"report_generated_at"`
	FinalScore              int               `json:"final_score"`
	FinalPercentage         float64           `json:"final_percentage"`
	PassThreshold           float64           `json:"pass_threshold"`
	Recommendation          Recommendation    `json:"recommendation"`
	RecommendationRationale string            `json:"recommendation_rationale"`
	Strengths               []SkillAssessment `json:"strengths"`
	Weaknesses              []SkillAssessment `json:"weaknesses"`
	AnythingExtra           string            `json:"anything_extra"`
}
