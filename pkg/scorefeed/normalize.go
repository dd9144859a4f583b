package scorefeed

import (
	"fmt"
	"strings"
	"time"
)

// Status values after normalization
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusFinished  = "finished"
	StatusPostponed = "postponed"
)

// normalizePrimary maps the primary provider's schema to a Snapshot
func normalizePrimary(m primaryMatch) (Snapshot, error) {
	if m.HomeName == "" || m.AwayName == "" {
		return Snapshot{}, fmt.Errorf("fixture %d: missing team names", m.FixtureID)
	}
	kickoff, err := time.Parse(time.RFC3339, m.Kickoff)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fixture %d: bad kickoff %q: %w", m.FixtureID, m.Kickoff, err)
	}
	return Snapshot{
		ExternalID: fmt.Sprintf("%d", m.FixtureID),
		League:     strings.ToLower(m.League),
		HomeTeam:   m.HomeName,
		AwayTeam:   m.AwayName,
		StartTime:  kickoff.UTC(),
		Venue:      m.Venue,
		Status:     normalizePrimaryStatus(m.Status),
		HomeScore:  m.GoalsHome,
		AwayScore:  m.GoalsAway,
	}, nil
}

func normalizePrimaryStatus(s string) string {
	switch strings.ToUpper(s) {
	case "NS", "TBD":
		return StatusScheduled
	case "1H", "2H", "HT", "ET", "P", "LIVE":
		return StatusLive
	case "FT", "AET", "PEN":
		return StatusFinished
	case "PST", "CANC", "ABD":
		return StatusPostponed
	default:
		return StatusPostponed
	}
}

// normalizeFallback maps the fallback provider's schema to a Snapshot. The
// fallback reports scores as a name-keyed list rather than home/away fields.
func normalizeFallback(m fallbackMatch) (Snapshot, error) {
	if m.Home == "" || m.Away == "" {
		return Snapshot{}, fmt.Errorf("match %s: missing team names", m.ID)
	}
	start, err := time.Parse("2006-01-02 15:04", m.StartDate)
	if err != nil {
		return Snapshot{}, fmt.Errorf("match %s: bad start date %q: %w", m.ID, m.StartDate, err)
	}

	snap := Snapshot{
		ExternalID: m.ID,
		League:     strings.ToLower(m.Sport),
		HomeTeam:   m.Home,
		AwayTeam:   m.Away,
		StartTime:  start.UTC(),
		Status:     StatusScheduled,
	}
	for _, s := range m.Scores {
		score := s.Score
		switch s.Name {
		case m.Home:
			snap.HomeScore = &score
		case m.Away:
			snap.AwayScore = &score
		}
	}
	if m.Completed {
		snap.Status = StatusFinished
	} else if snap.HomeScore != nil || snap.AwayScore != nil {
		snap.Status = StatusLive
	}
	return snap, nil
}
