package models

// CoachEvaluation is the structured verdict the scoring call returns. Score is
// expected in 0-100 but the range is not enforced.
type CoachEvaluation struct {
	Score          float64 `json:"score" bson:"score"`
	Critique       string  `json:"critique" bson:"critique"`
	ImprovedPrompt string  `json:"improved_prompt" bson:"improved_prompt"`
	Explanation    string  `json:"explanation" bson:"explanation"`
}

// EvaluationResult is what a trainee sees after submitting an instruction
type EvaluationResult struct {
	UserResponse     string          `json:"userResponse"`
	Coach            CoachEvaluation `json:"coach"`
	ImprovedResponse string          `json:"improvedResponse"`
	Submission       *Submission     `json:"submission,omitempty"`
}

// EvaluateRequest is the payload sent by the frontend to evaluate an instruction
type EvaluateRequest struct {
	RoleID     string `json:"roleId" binding:"required"`
	Scenario   string `json:"scenario" binding:"required"`
	UserPrompt string `json:"userPrompt"`
}

// ScenarioRequest asks for a fresh scenario for one role
type ScenarioRequest struct {
	RoleID string `json:"roleId" binding:"required"`
}
