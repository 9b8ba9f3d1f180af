package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-interviewer/domain"
)

const jsonOnly = "You respond with a single valid JSON object only. No markdown, no prose."

func profileJSON(p domain.CandidateProfile) string {
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func jobDescriptionOrDefault(jd string) string {
	if strings.TrimSpace(jd) == "" {
		return "(no job description configured)"
	}
	return jd
}

func profilePrompt(resumeText string) domain.Prompt {
	user := fmt.Sprintf(`You are an expert technical recruiter. Analyze the resume text below and
extract a detailed candidate profile.

Resume:
%s

Respond with JSON matching this structure exactly:
{
  "candidate_name": "string, or Unknown",
  "domain": "primary domain",
  "experience_level": "Junior | Mid-Level | Senior",
  "years_of_experience": <integer>,
  "key_skills": [{"name": "skill", "importance_score": <integer 1-100>}],
  "expertise_areas": ["area"]
}

Rules:
- importance_score is the relevance of the skill to the candidate's profile on a 1-100 scale
- list at least one key skill`, resumeText)

	return domain.Prompt{Task: domain.TaskProfile, System: jsonOnly, User: user, Temperature: 0.3}
}

func consequentialPrompt(profile domain.CandidateProfile, jd string, count int) domain.Prompt {
	user := fmt.Sprintf(`You are an elite technical interviewer screening for top 5%% talent.

Create %d highly challenging, real-world scenario questions.

Candidate Profile: %s
Job Description: %s

Rules:
- every question must test several skills together
- hardest difficulty from the first question, no warm-up
- no generic textbook questions
- every question must require reasoning, decisions and tradeoffs

Respond with JSON: {"questions": ["question 1", "question 2"]}`,
		count, profileJSON(profile), jobDescriptionOrDefault(jd))

	return domain.Prompt{Task: domain.TaskConsequential, System: jsonOnly, User: user, Temperature: 0.6}
}

func followupPrompt(profile domain.CandidateProfile, jd string, last domain.Exchange) domain.Prompt {
	user := fmt.Sprintf(`You are an elite interviewer. Based on the previous exchange, write ONE new question.

Previous Question:
%s

Candidate Answer:
%s

Candidate Profile: %s
Job Description: %s

Rules:
- escalate difficulty significantly
- integrate more than one advanced area from the resume
- require design-level thinking and real-world tradeoffs
- probe for weaknesses in the previous answer

Respond with JSON: {"question": "..."}`,
		last.QuestionText, last.AnswerText, profileJSON(profile), jobDescriptionOrDefault(jd))

	return domain.Prompt{Task: domain.TaskFollowup, System: jsonOnly, User: user, Temperature: 0.8}
}

func evaluationPrompt(profile domain.CandidateProfile, jd, question, answer string) domain.Prompt {
	user := fmt.Sprintf(`Evaluate the candidate's answer strictly against top 5%% interview standards.

Question:
%s

Candidate Answer:
%s

Candidate Profile:
%s

Job Description:
%s

Respond with JSON matching this structure:
{
  "score": <integer 1-5>,
  "is_vague": <true|false>,
  "skill_confidence": {"skill name": <integer 1-100>},
  "feedback": "constructive explanation of the score",
  "reject_reason": "what is missing when vague, otherwise empty"
}

Rules:
- a vague answer scores 1, sets is_vague to true and gives a reject_reason
- penalize theoretical, cliched or tradeoff-free answers
- reward specific, correct, practical reasoning
- skill_confidence covers only skills the answer gave evidence for`,
		question, answer, profileJSON(profile), jobDescriptionOrDefault(jd))

	return domain.Prompt{Task: domain.TaskEvaluate, System: jsonOnly, User: user, Temperature: 0.2}
}

func commentaryPrompt(strengths, weaknesses []domain.SkillAssessment) domain.Prompt {
	s, _ := json.Marshal(strengths)
	w, _ := json.Marshal(weaknesses)
	user := fmt.Sprintf(`Provide structured evaluation commentary for an interview report.

Strengths: %s
Weaknesses: %s

For each skill write a few concrete sentences about the demonstrated strength or
weakness. Avoid cliches.

Respond with JSON:
{
  "strength_comments": {"skill name": "commentary"},
  "weakness_comments": {"skill name": "commentary"},
  "anything_extra": "short remark"
}`, s, w)

	return domain.Prompt{Task: domain.TaskCommentary, System: jsonOnly, User: user, Temperature: 0.25}
}
