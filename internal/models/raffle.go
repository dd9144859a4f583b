package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PayoutStatus tracks the payout leg of a settled raffle. The winner draw is
// never re-run; a failed payout keeps the drawn winner and is retried alone.
type PayoutStatus string

const (
	PayoutStatusPaid    PayoutStatus = "PAID"
	PayoutStatusFailed  PayoutStatus = "FAILED"
	PayoutStatusPending PayoutStatus = "PENDING"
)

// Raffle is the settlement record for one match: the buyers considered, the
// drawn winner, the prize math and the payout reference. At most one record
// ever exists per match (unique index on matchId).
type Raffle struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MatchID       primitive.ObjectID `bson:"matchId" json:"matchId"`
	League        string             `bson:"league" json:"league"`
	Buyers        []string           `bson:"buyers" json:"buyers"`
	BuyerCount    int                `bson:"buyerCount" json:"buyerCount"`
	WinnerAddress string             `bson:"winnerAddress" json:"winnerAddress"`
	PrizePool     float64            `bson:"prizePool" json:"prizePool"`
	WinnerPayout  float64            `bson:"winnerPayout" json:"winnerPayout"`
	TokenSymbol   string             `bson:"tokenSymbol" json:"tokenSymbol"`
	PayoutStatus  PayoutStatus       `bson:"payoutStatus" json:"payoutStatus"`
	PayoutRef     string             `bson:"payoutRef,omitempty" json:"payoutRef,omitempty"`
	DrawnAt       time.Time          `bson:"drawnAt" json:"drawnAt"`

	ActualWinner      *string `bson:"actualWinner,omitempty" json:"actualWinner,omitempty"`
	ActualHomeScore   *int    `bson:"actualHomeScore,omitempty" json:"actualHomeScore,omitempty"`
	ActualAwayScore   *int    `bson:"actualAwayScore,omitempty" json:"actualAwayScore,omitempty"`
	PredictionCorrect *bool   `bson:"predictionCorrect,omitempty" json:"predictionCorrect,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// RaffleView is the API representation of a raffle enriched with match details
type RaffleView struct {
	Raffle
	Match *Match `json:"match,omitempty"`
}
