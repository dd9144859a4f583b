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

// Compile-time check to ensure SelectionServiceImpl implements SelectionService
var _ SelectionService = (*SelectionServiceImpl)(nil)

// SelectionServiceImpl locks the per-cycle random subset of matches
type SelectionServiceImpl struct {
	cfg       *config.Config
	matchRepo repositories.MatchRepository
	cycleRepo repositories.SelectionCycleRepository
}

// NewSelectionService creates a new SelectionServiceImpl
func NewSelectionService(cfg *config.Config, matchRepo repositories.MatchRepository, cycleRepo repositories.SelectionCycleRepository) *SelectionServiceImpl {
	return &SelectionServiceImpl{
		cfg:       cfg,
		matchRepo: matchRepo,
		cycleRepo: cycleRepo,
	}
}

// SelectForCycle tops up the league's locked set for the current cycle date.
// Re-invocation is a no-op once the target size is met; when fewer eligible
// candidates exist than the minimum, whatever is available is persisted and
// the shortfall reported, because later invocations before the window opens
// will top the set up as more matches appear in the feed.
func (s *SelectionServiceImpl) SelectForCycle(ctx context.Context, league string, now time.Time) (*models.SelectionCycle, int, error) {
	lg, ok := s.cfg.League(league)
	if !ok {
		return nil, 0, ErrUnknownLeague
	}
	win := windowFor(lg)
	cycleDate := win.CycleDate(now)

	// 1. Load the existing cycle; full set means idempotent no-op.
	existing, err := s.cycleRepo.FindByLeagueAndDate(ctx, league, cycleDate)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		slog.Error("Failed to load selection cycle", "error", err, "league", league, "cycleDate", cycleDate)
		return nil, 0, fmt.Errorf("failed to load selection cycle: %w", err)
	}
	locked := map[primitive.ObjectID]bool{}
	if existing != nil {
		if len(existing.MatchIDs) >= lg.SelectionTarget {
			return existing, 0, nil
		}
		for _, id := range existing.MatchIDs {
			locked[id] = true
		}
	}

	// 2. Candidates inside the eligibility horizon.
	horizonEnd := cycleDate.AddDate(0, 0, lg.LookaheadDays+1)
	candidates, err := s.matchRepo.FindUpcomingByLeague(ctx, league, now, horizonEnd)
	if err != nil {
		slog.Error("Failed to load candidate matches", "error", err, "league", league)
		return nil, 0, fmt.Errorf("failed to load candidate matches: %w", err)
	}

	// 3. Exclude everything locked in this or any earlier cycle.
	previous, err := s.cycleRepo.FindByLeague(ctx, league)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		slog.Error("Failed to load previous cycles", "error", err, "league", league)
		return nil, 0, fmt.Errorf("failed to load previous cycles: %w", err)
	}
	excluded := map[primitive.ObjectID]bool{}
	for _, cycle := range previous {
		for _, id := range cycle.MatchIDs {
			excluded[id] = true
		}
	}

	var eligible []*models.Match
	for _, m := range candidates {
		if locked[m.ID] || excluded[m.ID] {
			continue
		}
		eligible = append(eligible, m)
	}

	// 4. Uniform shuffle, then take only what is needed to reach the target.
	rand.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	needed := lg.SelectionTarget - len(locked)
	if needed > len(eligible) {
		needed = len(eligible)
	}
	picks := make([]primitive.ObjectID, 0, needed)
	for _, m := range eligible[:needed] {
		picks = append(picks, m.ID)
	}

	// 5. Merge into the durable set. The append is a set-union, so concurrent
	// invocations cannot shrink or replace what another writer locked.
	cycle, err := s.cycleRepo.AppendMatchIDs(ctx, league, cycleDate, picks)
	if err != nil {
		slog.Error("Failed to persist selection cycle", "error", err, "league", league, "cycleDate", cycleDate)
		return nil, 0, fmt.Errorf("failed to persist selection cycle: %w", err)
	}

	for _, id := range picks {
		if err := s.matchRepo.UpdateState(ctx, id, models.StateLocked); err != nil {
			slog.Warn("Failed to mark match locked", "error", err, "matchId", id.Hex())
		}
	}

	shortfall := lg.SelectionMin - len(cycle.MatchIDs)
	if shortfall < 0 {
		shortfall = 0
	}
	if shortfall > 0 {
		slog.Warn("Selection below league minimum",
			"league", league, "cycleDate", cycleDate.Format("2006-01-02"),
			"locked", len(cycle.MatchIDs), "minimum", lg.SelectionMin)
	} else {
		slog.Info("Selection cycle locked",
			"league", league, "cycleDate", cycleDate.Format("2006-01-02"),
			"locked", len(cycle.MatchIDs), "added", len(picks))
	}
	return cycle, shortfall, nil
}
