package services

import (
	"fmt"
	"math/rand"

	"github.com/sportpicks/sportpicks-backend/internal/models"
)

// Narrative templates for the purchased prediction text. The exact prose is
// cosmetic; buyers see one of these filled in with the pick.
var narrativeTemplates = []string{
	"%s host %s at %s. Our model sees a %d-%d finish and backs %s with %d%% confidence.",
	"All eyes on %s against %s at %s. The numbers point to %d-%d, making %s the pick at %d%% confidence.",
	"%s take on %s at %s. Expect a %d-%d scoreline; %s get the nod with %d%% confidence.",
}

var drawTemplates = []string{
	"%s meet %s at %s and there is little between them. The model calls a %d-%d stalemate at %d%% confidence.",
	"%s against %s at %s looks too close to call. We project %d-%d and a share of the points, %d%% confidence.",
}

// GenerateNarrative renders the buyer-facing story for a prediction
func GenerateNarrative(match *models.Match, prediction *models.Prediction) string {
	venue := match.Venue
	if venue == "" {
		venue = "home"
	}
	if prediction.PredictedWinner == models.DrawSentinel {
		tpl := drawTemplates[rand.Intn(len(drawTemplates))]
		return fmt.Sprintf(tpl,
			match.HomeTeam, match.AwayTeam, venue,
			prediction.PredictedHomeScore, prediction.PredictedAwayScore,
			prediction.Confidence)
	}
	tpl := narrativeTemplates[rand.Intn(len(narrativeTemplates))]
	return fmt.Sprintf(tpl,
		match.HomeTeam, match.AwayTeam, venue,
		prediction.PredictedHomeScore, prediction.PredictedAwayScore,
		prediction.PredictedWinner, prediction.Confidence)
}
