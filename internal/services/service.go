package services

import (
	"context"
	"errors"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/config"
	"github.com/sportpicks/sportpicks-backend/internal/models"
	"github.com/sportpicks/sportpicks-backend/internal/schedule"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conflict errors map to HTTP 409 in the handlers; they signal a rejected
// idempotency violation, not a system failure.
var (
	ErrAlreadyPurchased = errors.New("buyer already purchased this match")
	ErrAlreadyPaid      = errors.New("raffle payout already completed")
	ErrNotBuyable       = errors.New("match is not currently buyable")
	ErrUnknownLeague    = errors.New("unknown league")
	ErrUnknownPhase     = errors.New("unknown scheduler phase")
)

// AuthService handles operator authentication
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
}

// MatchService maintains the normalized match cache and the storefront views
type MatchService interface {
	RefreshLeague(ctx context.Context, league string) (int, error)
	ListCurrent(ctx context.Context, league string, now time.Time) ([]models.MatchView, error)
	ListArchived(ctx context.Context, league string, page, limit int) ([]*models.Match, error)
}

// SelectionService locks the random subset of matches for each league cycle
type SelectionService interface {
	// SelectForCycle tops the locked set up to the league target and returns
	// the cycle plus the shortfall against the configured minimum (0 when met).
	SelectForCycle(ctx context.Context, league string, now time.Time) (*models.SelectionCycle, int, error)
}

// PredictionService generates predictions for locked matches
type PredictionService interface {
	// GenerateForLocked generates missing predictions for the league's current
	// locked set. bypassScope must only be true for the dedicated per-league
	// scheduled job; the general sweep leaves it false so it can never write
	// across league boundaries.
	GenerateForLocked(ctx context.Context, league string, now time.Time, bypassScope bool) (int, error)
	// EnsurePrediction returns the match's prediction, generating a fallback
	// inline when none exists yet.
	EnsurePrediction(ctx context.Context, match *models.Match) (*models.Prediction, error)
	GetByMatchID(ctx context.Context, matchID primitive.ObjectID) (*models.Prediction, error)
}

// PurchaseService is the purchase ledger
type PurchaseService interface {
	Buy(ctx context.Context, matchID primitive.ObjectID, buyer, paymentRef string, amount float64, token string, now time.Time) (*models.Purchase, error)
	Count(ctx context.Context, matchID primitive.ObjectID) (*models.PurchaseCount, error)
	Find(ctx context.Context, matchID *primitive.ObjectID, buyer string) ([]*models.Purchase, error)
}

// SettlementService draws raffle winners and pays them out
type SettlementService interface {
	// SettleDue settles every match of the league that has reached terminal
	// status, has buyers and has no raffle yet. Returns the number settled.
	SettleDue(ctx context.Context, league string, now time.Time) (int, error)
	// RetryPayout re-runs only the payout leg for a raffle whose payout
	// failed. The drawn winner is never re-rolled.
	RetryPayout(ctx context.Context, matchID primitive.ObjectID) (*models.Raffle, error)
	GetByMatchID(ctx context.Context, matchID primitive.ObjectID) (*models.Raffle, error)
	List(ctx context.Context, page, limit int) ([]models.RaffleView, int64, error)
}

// ReconcileService fills in final scores from the external feeds
type ReconcileService interface {
	ReconcilePending(ctx context.Context) (int, error)
}

// PhaseResult is the JSON envelope returned by scheduler trigger endpoints
type PhaseResult struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message"`
	Counts  map[string]int `json:"counts,omitempty"`
}

// SchedulerService routes timer triggers to the right job for the phase
type SchedulerService interface {
	RunPhase(ctx context.Context, league, phase string, now time.Time) (*PhaseResult, error)
}

// windowFor builds the league's window evaluator from its configuration
func windowFor(lg config.LeagueConfig) schedule.Window {
	return schedule.Window{
		OpenHourLocal:    lg.OpenHourLocal,
		CloseHourLocal:   lg.CloseHourLocal,
		TZOffsetHours:    lg.TZOffsetHours,
		PreWindowMinutes: lg.PreWindowMinutes,
	}
}
