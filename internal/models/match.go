package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchStatus represents the status of a match as reported by the score feeds
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "SCHEDULED"
	MatchStatusLive      MatchStatus = "LIVE"
	MatchStatusFinished  MatchStatus = "FINISHED"
	MatchStatusPostponed MatchStatus = "POSTPONED"
)

// Terminal reports whether the match can no longer change score
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusFinished
}

// FinalizationState represents where a match sits in the selection/settlement lifecycle
type FinalizationState string

const (
	StateUpcoming       FinalizationState = "UPCOMING"
	StateLocked         FinalizationState = "LOCKED"
	StateAwaitingResult FinalizationState = "AWAITING_RESULT"
	StateFinalized      FinalizationState = "FINALIZED"
)

// Match represents a normalized match record from the external score feeds.
// Identity is (league, externalId); the same match may be reported by several
// providers under different external ids, so the normalizer upserts by this pair.
type Match struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	League     string             `bson:"league" json:"league"`
	ExternalID string             `bson:"externalId" json:"externalId"`
	HomeTeam   string             `bson:"homeTeam" json:"homeTeam"`
	AwayTeam   string             `bson:"awayTeam" json:"awayTeam"`
	StartTime  time.Time          `bson:"startTime" json:"startTime"`
	Venue      string             `bson:"venue,omitempty" json:"venue,omitempty"`
	Status     MatchStatus        `bson:"status" json:"status"`
	HomeScore  *int               `bson:"homeScore,omitempty" json:"homeScore,omitempty"`
	AwayScore  *int               `bson:"awayScore,omitempty" json:"awayScore,omitempty"`
	State      FinalizationState  `bson:"state" json:"state"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DrawSentinel is the actual-winner value recorded when a match ends level.
const DrawSentinel = "Draw"

// ActualWinner computes the winner name from final scores. Returns DrawSentinel
// on equal scores and false when either score is still unknown.
func (m *Match) ActualWinner() (string, bool) {
	if m.HomeScore == nil || m.AwayScore == nil {
		return "", false
	}
	switch {
	case *m.HomeScore > *m.AwayScore:
		return m.HomeTeam, true
	case *m.AwayScore > *m.HomeScore:
		return m.AwayTeam, true
	default:
		return DrawSentinel, true
	}
}

// MatchView is the API representation of a match enriched with purchase-window info
type MatchView struct {
	Match
	Buyable     bool      `json:"buyable"`
	BuyableFrom time.Time `json:"buyableFrom"`
}
