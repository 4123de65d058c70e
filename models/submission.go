package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Owner identifies whose history a submission belongs to
type Owner struct {
	Tenant string
	UserID string
}

// Valid reports whether the owner carries a session identity
func (o Owner) Valid() bool {
	return o.Tenant != "" && o.UserID != ""
}

// Submission is one completed training round. Records are append-only.
type Submission struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Tenant     string             `json:"-" bson:"tenant"`
	UserID     string             `json:"-" bson:"userId"`
	Role       string             `json:"role" bson:"role"`
	Scenario   string             `json:"scenario" bson:"scenario"`
	UserPrompt string             `json:"userPrompt" bson:"userPrompt"`
	CoachData  CoachEvaluation    `json:"coachData" bson:"coachData"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp,omitempty"`

	// PromptVersion names the prompt set that produced CoachData.
	PromptVersion string `json:"promptVersion,omitempty" bson:"promptVersion,omitempty"`
}
