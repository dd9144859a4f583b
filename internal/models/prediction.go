package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prediction is the generated pick for a single match. At most one record ever
// exists per match (unique index on matchId). The actual* fields stay nil until
// the reconciler observes a terminal score, and are written exactly once.
type Prediction struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MatchID            primitive.ObjectID `bson:"matchId" json:"matchId"`
	League             string             `bson:"league" json:"league"`
	PredictedWinner    string             `bson:"predictedWinner" json:"predictedWinner"`
	PredictedHomeScore int                `bson:"predictedHomeScore" json:"predictedHomeScore"`
	PredictedAwayScore int                `bson:"predictedAwayScore" json:"predictedAwayScore"`
	Confidence         int                `bson:"confidence" json:"confidence"` // percentage
	Narrative          string             `bson:"narrative" json:"narrative"`
	GeneratedAt        time.Time          `bson:"generatedAt" json:"generatedAt"`

	ActualWinner    *string    `bson:"actualWinner,omitempty" json:"actualWinner,omitempty"`
	ActualHomeScore *int       `bson:"actualHomeScore,omitempty" json:"actualHomeScore,omitempty"`
	ActualAwayScore *int       `bson:"actualAwayScore,omitempty" json:"actualAwayScore,omitempty"`
	IsCorrect       *bool      `bson:"isCorrect,omitempty" json:"isCorrect,omitempty"`
	FinalizedAt     *time.Time `bson:"finalizedAt,omitempty" json:"finalizedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Resolved reports whether the reconciler has already written the final result
func (p *Prediction) Resolved() bool {
	return p.ActualWinner != nil && p.IsCorrect != nil
}
