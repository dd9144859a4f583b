package services

import (
	"context"
	"testing"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func lockCycle(t *testing.T, cycleRepo *fakeCycleRepo, league string, at time.Time, matches ...*models.Match) {
	t.Helper()
	cfg := testConfig()
	lg, _ := cfg.League(league)
	ids := make([]primitive.ObjectID, 0, len(matches))
	for _, m := range matches {
		m.State = models.StateLocked
		ids = append(ids, m.ID)
	}
	if _, err := cycleRepo.AppendMatchIDs(context.Background(), league, windowFor(lg).CycleDate(at), ids); err != nil {
		t.Fatalf("failed to lock cycle: %v", err)
	}
}

func TestGenerateForLockedCreatesOnePerMatch(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	cycleRepo := newFakeCycleRepo()
	predictionRepo := newFakePredictionRepo()

	a := newTestMatch("epl", "Arsenal", "Chelsea", windowOpenAt.Add(3*time.Hour))
	b := newTestMatch("epl", "Liverpool", "Everton", windowOpenAt.Add(4*time.Hour))
	matchRepo.add(a, b)
	lockCycle(t, cycleRepo, "epl", windowOpenAt, a, b)

	svc := NewPredictionService(testConfig(), predictionRepo, matchRepo, cycleRepo)
	generated, err := svc.GenerateForLocked(context.Background(), "epl", windowOpenAt, false)
	if err != nil {
		t.Fatalf("GenerateForLocked failed: %v", err)
	}
	if generated != 2 {
		t.Fatalf("expected 2 predictions, got %d", generated)
	}

	// Second pass must not create or replace anything.
	before, _ := predictionRepo.FindByMatchID(context.Background(), a.ID)
	generated, err = svc.GenerateForLocked(context.Background(), "epl", windowOpenAt, false)
	if err != nil {
		t.Fatalf("second GenerateForLocked failed: %v", err)
	}
	if generated != 0 {
		t.Fatalf("expected re-run to generate 0, got %d", generated)
	}
	after, _ := predictionRepo.FindByMatchID(context.Background(), a.ID)
	if before.ID != after.ID || before.PredictedWinner != after.PredictedWinner {
		t.Fatalf("re-run replaced an existing prediction")
	}
}

func TestGenerateForLockedWithoutCycleIsNoop(t *testing.T) {
	svc := NewPredictionService(testConfig(), newFakePredictionRepo(), newFakeMatchRepo(), newFakeCycleRepo())
	generated, err := svc.GenerateForLocked(context.Background(), "epl", windowOpenAt, false)
	if err != nil {
		t.Fatalf("GenerateForLocked failed: %v", err)
	}
	if generated != 0 {
		t.Fatalf("expected 0 without a cycle, got %d", generated)
	}
}

func TestGenerateForLockedRespectsLeagueScope(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	cycleRepo := newFakeCycleRepo()
	predictionRepo := newFakePredictionRepo()

	stray := newTestMatch("nba", "Los Angeles Lakers", "Boston Celtics", windowOpenAt.Add(3*time.Hour))
	matchRepo.add(stray)
	lockCycle(t, cycleRepo, "epl", windowOpenAt, stray)

	svc := NewPredictionService(testConfig(), predictionRepo, matchRepo, cycleRepo)
	generated, err := svc.GenerateForLocked(context.Background(), "epl", windowOpenAt, false)
	if err != nil {
		t.Fatalf("GenerateForLocked failed: %v", err)
	}
	if generated != 0 {
		t.Fatalf("cross-league match got a prediction without bypass, generated %d", generated)
	}

	generated, err = svc.GenerateForLocked(context.Background(), "epl", windowOpenAt, true)
	if err != nil {
		t.Fatalf("GenerateForLocked with bypass failed: %v", err)
	}
	if generated != 1 {
		t.Fatalf("expected bypass to generate 1, got %d", generated)
	}
}

func TestEnsurePredictionGeneratesFallback(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	predictionRepo := newFakePredictionRepo()
	match := newTestMatch("epl", "Arsenal", "Chelsea", windowOpenAt.Add(3*time.Hour))
	matchRepo.add(match)

	svc := NewPredictionService(testConfig(), predictionRepo, matchRepo, newFakeCycleRepo())
	prediction, err := svc.EnsurePrediction(context.Background(), match)
	if err != nil {
		t.Fatalf("EnsurePrediction failed: %v", err)
	}
	if prediction.MatchID != match.ID {
		t.Fatalf("prediction bound to wrong match")
	}
	if prediction.Narrative == "" {
		t.Fatalf("expected a narrative on the fallback prediction")
	}

	again, err := svc.EnsurePrediction(context.Background(), match)
	if err != nil {
		t.Fatalf("second EnsurePrediction failed: %v", err)
	}
	if again.ID != prediction.ID {
		t.Fatalf("EnsurePrediction generated a second record for the same match")
	}
}

func TestSimulateIsInternallyConsistent(t *testing.T) {
	svc := NewPredictionService(testConfig(), newFakePredictionRepo(), newFakeMatchRepo(), newFakeCycleRepo())
	match := newTestMatch("epl", "Arsenal", "Chelsea", windowOpenAt)

	for i := 0; i < 200; i++ {
		p := svc.simulate(match)
		switch {
		case p.PredictedHomeScore > p.PredictedAwayScore:
			if p.PredictedWinner != match.HomeTeam {
				t.Fatalf("home leads %d-%d but winner is %q", p.PredictedHomeScore, p.PredictedAwayScore, p.PredictedWinner)
			}
		case p.PredictedAwayScore > p.PredictedHomeScore:
			if p.PredictedWinner != match.AwayTeam {
				t.Fatalf("away leads %d-%d but winner is %q", p.PredictedHomeScore, p.PredictedAwayScore, p.PredictedWinner)
			}
		default:
			if p.PredictedWinner != models.DrawSentinel {
				t.Fatalf("level score %d-%d but winner is %q", p.PredictedHomeScore, p.PredictedAwayScore, p.PredictedWinner)
			}
		}
		if p.Confidence < minConfidence || p.Confidence > maxConfidence {
			t.Fatalf("confidence %d outside [%d, %d]", p.Confidence, minConfidence, maxConfidence)
		}
	}
}
