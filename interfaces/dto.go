package interfaces

type credentialsRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type answerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

type jobDescriptionRequest struct {
	Content string `json:"content" binding:"required"`
}

type thresholdRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

type questionConfigRequest struct {
	TotalQuestions   *int `json:"total_questions" binding:"required"`
	ConsequentialMax *int `json:"consequential_max" binding:"required"`
	FollowupMax      *int `json:"followup_max" binding:"required"`
}
