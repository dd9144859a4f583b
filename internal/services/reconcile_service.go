package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/config"
	"github.com/sportpicks/sportpicks-backend/internal/models"
	"github.com/sportpicks/sportpicks-backend/internal/repositories"
	"github.com/sportpicks/sportpicks-backend/internal/utils"
	"github.com/sportpicks/sportpicks-backend/pkg/scorefeed"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure ReconcileServiceImpl implements ReconcileService
var _ ReconcileService = (*ReconcileServiceImpl)(nil)

// ScoreFeed is the slice of the feed client the reconciler needs
type ScoreFeed interface {
	FetchLiveScores(ctx context.Context) ([]scorefeed.Snapshot, error)
}

// ReconcileServiceImpl fills in final results from the external score feeds
type ReconcileServiceImpl struct {
	cfg            *config.Config
	predictionRepo repositories.PredictionRepository
	purchaseRepo   repositories.PurchaseRepository
	raffleRepo     repositories.RaffleRepository
	matchRepo      repositories.MatchRepository
	feed           ScoreFeed
}

// NewReconcileService creates a new ReconcileServiceImpl
func NewReconcileService(cfg *config.Config, predictionRepo repositories.PredictionRepository, purchaseRepo repositories.PurchaseRepository, raffleRepo repositories.RaffleRepository, matchRepo repositories.MatchRepository, feed ScoreFeed) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		cfg:            cfg,
		predictionRepo: predictionRepo,
		purchaseRepo:   purchaseRepo,
		raffleRepo:     raffleRepo,
		matchRepo:      matchRepo,
		feed:           feed,
	}
}

// ReconcilePending resolves every prediction that has at least one purchase
// and no final result yet. Upstream ids are unstable across providers, so
// feed entries are located by fuzzy team-name matching; an ambiguous match is
// skipped rather than guessed. One bad match never aborts the batch.
func (s *ReconcileServiceImpl) ReconcilePending(ctx context.Context) (int, error) {
	pending, err := s.predictionRepo.FindUnresolved(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load unresolved predictions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	feedCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.ScoreFeed.TimeoutSecs)*time.Second)
	defer cancel()
	snaps, err := s.feed.FetchLiveScores(feedCtx)
	if err != nil {
		// Best-effort source; the next tick retries.
		slog.Warn("Score feed unavailable, skipping reconcile pass", "error", err)
		return 0, nil
	}

	updated := 0
	for _, prediction := range pending {
		count, err := s.purchaseRepo.CountByMatchID(ctx, prediction.MatchID)
		if err != nil {
			slog.Warn("Failed to count purchases", "error", err, "matchId", prediction.MatchID.Hex())
			continue
		}
		if count == 0 {
			// Nothing rides on this match yet; settlement has nothing to do.
			continue
		}

		match, err := s.matchRepo.FindByID(ctx, prediction.MatchID)
		if err != nil {
			// Data inconsistency: the purchase references a match the cache
			// lost. Log and move on, never block the rest of the batch.
			slog.Warn("Match missing for pending prediction", "error", err, "matchId", prediction.MatchID.Hex())
			continue
		}

		snap, ok := findFinalSnapshot(match, snaps)
		if !ok {
			continue
		}
		if s.applyResult(ctx, match, prediction, snap) {
			updated++
		}
	}
	slog.Info("Reconcile pass complete", "pending", len(pending), "updated", updated)
	return updated, nil
}

// findFinalSnapshot locates the terminal feed entry for a match by team names
func findFinalSnapshot(match *models.Match, snaps []scorefeed.Snapshot) (scorefeed.Snapshot, bool) {
	var terminal []scorefeed.Snapshot
	homeNames := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Status != scorefeed.StatusFinished || snap.HomeScore == nil || snap.AwayScore == nil {
			continue
		}
		terminal = append(terminal, snap)
		homeNames = append(homeNames, snap.HomeTeam)
	}
	if len(terminal) == 0 {
		return scorefeed.Snapshot{}, false
	}

	best, found, ambiguous := utils.MatchTeamName(match.HomeTeam, homeNames)
	if !found {
		return scorefeed.Snapshot{}, false
	}
	if ambiguous {
		slog.Warn("Ambiguous team-name match in feed, skipping",
			"matchId", match.ID.Hex(), "homeTeam", match.HomeTeam)
		return scorefeed.Snapshot{}, false
	}

	snap := terminal[best.Index]
	// The away side must corroborate the pick, otherwise "Real Madrid" could
	// pair with a Real Sociedad fixture on the home name alone.
	if _, awayOK, awayAmb := utils.MatchTeamName(match.AwayTeam, []string{snap.AwayTeam}); !awayOK || awayAmb {
		return scorefeed.Snapshot{}, false
	}
	return snap, true
}

// applyResult writes the final outcome to the match, prediction and raffle
func (s *ReconcileServiceImpl) applyResult(ctx context.Context, match *models.Match, prediction *models.Prediction, snap scorefeed.Snapshot) bool {
	homeScore, awayScore := *snap.HomeScore, *snap.AwayScore

	if err := s.matchRepo.UpdateResult(ctx, match.ID, homeScore, awayScore, models.MatchStatusFinished); err != nil {
		slog.Warn("Failed to write match result", "error", err, "matchId", match.ID.Hex())
		return false
	}
	match.HomeScore = &homeScore
	match.AwayScore = &awayScore
	match.Status = models.MatchStatusFinished

	actualWinner, _ := match.ActualWinner()
	isCorrect := prediction.PredictedWinner == actualWinner
	now := time.Now()

	err := s.predictionRepo.SetResult(ctx, match.ID, actualWinner, homeScore, awayScore, isCorrect, now)
	if err != nil && !errors.Is(err, repositories.ErrResultAlreadySet) {
		slog.Warn("Failed to write prediction result", "error", err, "matchId", match.ID.Hex())
		return false
	}

	// The raffle may not exist yet (settlement runs after reconcile); its
	// result fields are also back-filled on the next pass in that case.
	if err := s.raffleRepo.SetResult(ctx, match.ID, actualWinner, homeScore, awayScore, isCorrect); err != nil {
		if !errors.Is(err, repositories.ErrResultAlreadySet) && !errors.Is(err, mongo.ErrNoDocuments) {
			slog.Warn("Failed to write raffle result", "error", err, "matchId", match.ID.Hex())
		}
	}

	slog.Info("Result reconciled",
		"matchId", match.ID.Hex(), "actualWinner", actualWinner,
		"score", fmt.Sprintf("%d-%d", homeScore, awayScore), "correct", isCorrect)
	return true
}
