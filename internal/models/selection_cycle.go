package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SelectionCycle is the durable locked set of matches for one league and one
// selection day. Once created the set only grows (appended up to the league's
// target size); it is never shrunk or replaced, which keeps the selection job
// idempotent under retries and concurrent triggers.
type SelectionCycle struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	League    string               `bson:"league" json:"league"`
	CycleDate time.Time            `bson:"cycleDate" json:"cycleDate"` // midnight, league-local day
	MatchIDs  []primitive.ObjectID `bson:"matchIds" json:"matchIds"`
	LockedAt  time.Time            `bson:"lockedAt" json:"lockedAt"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Contains reports whether the locked set already includes the given match
func (c *SelectionCycle) Contains(matchID primitive.ObjectID) bool {
	for _, id := range c.MatchIDs {
		if id == matchID {
			return true
		}
	}
	return false
}
