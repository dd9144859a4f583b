package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/config"
	"github.com/sportpicks/sportpicks-backend/internal/models"
	"github.com/sportpicks/sportpicks-backend/internal/repositories"
	"github.com/sportpicks/sportpicks-backend/pkg/scorefeed"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure MatchServiceImpl implements MatchService
var _ MatchService = (*MatchServiceImpl)(nil)

// FixtureFeed is the slice of the feed client the match cache needs
type FixtureFeed interface {
	FetchLeague(ctx context.Context, league string) ([]scorefeed.Snapshot, error)
}

// MatchServiceImpl maintains the normalized match cache
type MatchServiceImpl struct {
	cfg       *config.Config
	matchRepo repositories.MatchRepository
	cycleRepo repositories.SelectionCycleRepository
	feed      FixtureFeed
}

// NewMatchService creates a new MatchServiceImpl
func NewMatchService(cfg *config.Config, matchRepo repositories.MatchRepository, cycleRepo repositories.SelectionCycleRepository, feed FixtureFeed) *MatchServiceImpl {
	return &MatchServiceImpl{
		cfg:       cfg,
		matchRepo: matchRepo,
		cycleRepo: cycleRepo,
		feed:      feed,
	}
}

// RefreshLeague pulls the league's fixtures from the feed and upserts them into
// the cache keyed by (league, externalId). Returns the number of snapshots
// applied.
func (s *MatchServiceImpl) RefreshLeague(ctx context.Context, league string) (int, error) {
	if _, ok := s.cfg.League(league); !ok {
		return 0, ErrUnknownLeague
	}

	feedCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.ScoreFeed.TimeoutSecs)*time.Second)
	defer cancel()
	snaps, err := s.feed.FetchLeague(feedCtx, league)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch fixtures: %w", err)
	}

	applied := 0
	for _, snap := range snaps {
		if snap.League != league {
			continue
		}
		match := snapshotToMatch(snap)
		if err := s.matchRepo.UpsertByExternalID(ctx, match); err != nil {
			slog.Warn("Failed to upsert match", "error", err, "league", league, "externalId", snap.ExternalID)
			continue
		}
		applied++
	}
	slog.Info("Fixture refresh complete", "league", league, "fetched", len(snaps), "applied", applied)
	return applied, nil
}

// ListCurrent returns the league's current locked selection as storefront
// views. Before the selection job has run for the day the list is empty: the
// storefront never shows matches that cannot become buyable this cycle.
func (s *MatchServiceImpl) ListCurrent(ctx context.Context, league string, now time.Time) ([]models.MatchView, error) {
	lg, ok := s.cfg.League(league)
	if !ok {
		return nil, ErrUnknownLeague
	}
	win := windowFor(lg)

	cycle, err := s.cycleRepo.FindByLeagueAndDate(ctx, league, win.CycleDate(now))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []models.MatchView{}, nil
		}
		return nil, fmt.Errorf("failed to load selection cycle: %w", err)
	}

	matches, err := s.matchRepo.FindByIDs(ctx, cycle.MatchIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load locked matches: %w", err)
	}

	open := win.IsOpen(now)
	buyableFrom := win.BuyableFrom(now)
	views := make([]models.MatchView, 0, len(matches))
	for _, match := range matches {
		views = append(views, models.MatchView{
			Match:       *match,
			Buyable:     open && match.State == models.StateLocked && match.StartTime.After(now),
			BuyableFrom: buyableFrom,
		})
	}
	return views, nil
}

// ListArchived returns finalized matches for a league, paginated
func (s *MatchServiceImpl) ListArchived(ctx context.Context, league string, page, limit int) ([]*models.Match, error) {
	if _, ok := s.cfg.League(league); !ok {
		return nil, ErrUnknownLeague
	}
	return s.matchRepo.FindArchivedByLeague(ctx, league, page, limit)
}

// snapshotToMatch maps a feed snapshot onto the cache record. Selection state
// is left to the upsert: new records start UPCOMING, existing records keep
// whatever state the lifecycle has moved them to.
func snapshotToMatch(snap scorefeed.Snapshot) *models.Match {
	return &models.Match{
		League:     snap.League,
		ExternalID: snap.ExternalID,
		HomeTeam:   snap.HomeTeam,
		AwayTeam:   snap.AwayTeam,
		StartTime:  snap.StartTime,
		Venue:      snap.Venue,
		Status:     snapshotStatus(snap.Status),
		HomeScore:  snap.HomeScore,
		AwayScore:  snap.AwayScore,
		State:      models.StateUpcoming,
	}
}

func snapshotStatus(s string) models.MatchStatus {
	switch s {
	case scorefeed.StatusLive:
		return models.MatchStatusLive
	case scorefeed.StatusFinished:
		return models.MatchStatusFinished
	case scorefeed.StatusPostponed:
		return models.MatchStatusPostponed
	default:
		return models.MatchStatusScheduled
	}
}
