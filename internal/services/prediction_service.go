package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/config"
	"github.com/sportpicks/sportpicks-backend/internal/models"
	"github.com/sportpicks/sportpicks-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure PredictionServiceImpl implements PredictionService
var _ PredictionService = (*PredictionServiceImpl)(nil)

// Bounds of the randomized prediction model
const (
	maxSimulatedGoals = 4
	homeBiasChance    = 60 // percent chance the home side gets a bonus goal
	minConfidence     = 55
	maxConfidence     = 90
)

// PredictionServiceImpl synthesizes predictions for locked matches
type PredictionServiceImpl struct {
	cfg            *config.Config
	predictionRepo repositories.PredictionRepository
	matchRepo      repositories.MatchRepository
	cycleRepo      repositories.SelectionCycleRepository
}

// NewPredictionService creates a new PredictionServiceImpl
func NewPredictionService(cfg *config.Config, predictionRepo repositories.PredictionRepository, matchRepo repositories.MatchRepository, cycleRepo repositories.SelectionCycleRepository) *PredictionServiceImpl {
	return &PredictionServiceImpl{
		cfg:            cfg,
		predictionRepo: predictionRepo,
		matchRepo:      matchRepo,
		cycleRepo:      cycleRepo,
	}
}

// GenerateForLocked generates predictions for every locked match of the
// league's current cycle that lacks one. The selection job may not have run
// yet when this fires, so an absent or empty cycle is a quiet no-op.
func (s *PredictionServiceImpl) GenerateForLocked(ctx context.Context, league string, now time.Time, bypassScope bool) (int, error) {
	lg, ok := s.cfg.League(league)
	if !ok {
		return 0, ErrUnknownLeague
	}
	cycleDate := windowFor(lg).CycleDate(now)

	cycle, err := s.cycleRepo.FindByLeagueAndDate(ctx, league, cycleDate)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			slog.Info("No selection cycle yet, nothing to generate", "league", league, "cycleDate", cycleDate.Format("2006-01-02"))
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load selection cycle: %w", err)
	}

	matches, err := s.matchRepo.FindByIDs(ctx, cycle.MatchIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load locked matches: %w", err)
	}

	generated := 0
	for _, match := range matches {
		// A cycle assembled under one league job must never write predictions
		// for another league's matches; only the dedicated per-league job may
		// bypass this, the general sweep cannot.
		if match.League != league && !bypassScope {
			slog.Warn("Skipping match outside league scope", "league", league, "matchLeague", match.League, "matchId", match.ID.Hex())
			continue
		}
		created, err := s.generateOnce(ctx, match)
		if err != nil {
			slog.Error("Failed to generate prediction", "error", err, "matchId", match.ID.Hex())
			continue
		}
		if created {
			generated++
		}
	}
	slog.Info("Prediction generation pass complete", "league", league, "generated", generated, "locked", len(matches))
	return generated, nil
}

// EnsurePrediction returns the existing prediction for a match, generating a
// fallback inline when a buyer reaches a match the scheduled job never covered.
func (s *PredictionServiceImpl) EnsurePrediction(ctx context.Context, match *models.Match) (*models.Prediction, error) {
	prediction, err := s.predictionRepo.FindByMatchID(ctx, match.ID)
	if err == nil {
		return prediction, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up prediction: %w", err)
	}

	if _, err := s.generateOnce(ctx, match); err != nil {
		return nil, err
	}
	return s.predictionRepo.FindByMatchID(ctx, match.ID)
}

// GetByMatchID finds the prediction for a match
func (s *PredictionServiceImpl) GetByMatchID(ctx context.Context, matchID primitive.ObjectID) (*models.Prediction, error) {
	return s.predictionRepo.FindByMatchID(ctx, matchID)
}

// generateOnce creates the match's prediction if none exists. Returns whether
// a new record was written.
func (s *PredictionServiceImpl) generateOnce(ctx context.Context, match *models.Match) (bool, error) {
	exists, err := s.predictionRepo.ExistsByMatchID(ctx, match.ID)
	if err != nil {
		return false, fmt.Errorf("failed existence check: %w", err)
	}
	if exists {
		return false, nil
	}

	prediction := s.simulate(match)
	if err := s.predictionRepo.Create(ctx, prediction); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Another job won the race; the existing record stands.
			return false, nil
		}
		return false, fmt.Errorf("failed to persist prediction: %w", err)
	}
	slog.Info("Prediction generated",
		"matchId", match.ID.Hex(), "league", match.League,
		"winner", prediction.PredictedWinner, "confidence", prediction.Confidence)
	return true, nil
}

// simulate runs the bounded random scoring model for one match
func (s *PredictionServiceImpl) simulate(match *models.Match) *models.Prediction {
	home := rand.Intn(maxSimulatedGoals + 1)
	away := rand.Intn(maxSimulatedGoals + 1)
	if rand.Intn(100) < homeBiasChance && home <= away {
		home++
	}

	winner := models.DrawSentinel
	if home > away {
		winner = match.HomeTeam
	} else if away > home {
		winner = match.AwayTeam
	}

	prediction := &models.Prediction{
		MatchID:            match.ID,
		League:             match.League,
		PredictedWinner:    winner,
		PredictedHomeScore: home,
		PredictedAwayScore: away,
		Confidence:         minConfidence + rand.Intn(maxConfidence-minConfidence+1),
		GeneratedAt:        time.Now(),
	}
	prediction.Narrative = GenerateNarrative(match, prediction)
	return prediction
}
