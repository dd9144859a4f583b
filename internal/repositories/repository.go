package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrResultAlreadySet is returned when a result write would overwrite an
// already-resolved prediction or raffle.
var ErrResultAlreadySet = errors.New("result already recorded")

// MatchRepository defines the interface for the normalized match cache
type MatchRepository interface {
	UpsertByExternalID(ctx context.Context, match *models.Match) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Match, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Match, error)
	FindByLeague(ctx context.Context, league string) ([]*models.Match, error)
	FindUpcomingByLeague(ctx context.Context, league string, from, to time.Time) ([]*models.Match, error)
	FindByState(ctx context.Context, state models.FinalizationState) ([]*models.Match, error)
	UpdateState(ctx context.Context, id primitive.ObjectID, state models.FinalizationState) error
	UpdateResult(ctx context.Context, id primitive.ObjectID, homeScore, awayScore int, status models.MatchStatus) error
	Archive(ctx context.Context, match *models.Match) error
	FindArchivedByLeague(ctx context.Context, league string, page, limit int) ([]*models.Match, error)
}

// SelectionCycleRepository defines the interface for per-league locked selections
type SelectionCycleRepository interface {
	FindByLeagueAndDate(ctx context.Context, league string, cycleDate time.Time) (*models.SelectionCycle, error)
	FindByLeague(ctx context.Context, league string) ([]*models.SelectionCycle, error)
	// AppendMatchIDs upserts the cycle and merges the given ids into the locked
	// set without ever removing existing members.
	AppendMatchIDs(ctx context.Context, league string, cycleDate time.Time, ids []primitive.ObjectID) (*models.SelectionCycle, error)
}

// PredictionRepository defines the interface for generated predictions
type PredictionRepository interface {
	Create(ctx context.Context, prediction *models.Prediction) error
	FindByMatchID(ctx context.Context, matchID primitive.ObjectID) (*models.Prediction, error)
	ExistsByMatchID(ctx context.Context, matchID primitive.ObjectID) (bool, error)
	FindUnresolved(ctx context.Context) ([]*models.Prediction, error)
	// SetResult writes the actual outcome exactly once; it must not overwrite a
	// record whose actual fields are already populated.
	SetResult(ctx context.Context, matchID primitive.ObjectID, actualWinner string, homeScore, awayScore int, isCorrect bool, finalizedAt time.Time) error
}

// PurchaseRepository defines the interface for the purchase ledger
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *models.Purchase) error
	ExistsByMatchAndBuyer(ctx context.Context, matchID primitive.ObjectID, buyer string) (bool, error)
	FindByMatchID(ctx context.Context, matchID primitive.ObjectID) ([]*models.Purchase, error)
	Find(ctx context.Context, matchID *primitive.ObjectID, buyer string) ([]*models.Purchase, error)
	CountByMatchID(ctx context.Context, matchID primitive.ObjectID) (int64, error)
	DistinctBuyers(ctx context.Context, matchID primitive.ObjectID) ([]string, error)
	MatchIDsWithPurchases(ctx context.Context) ([]primitive.ObjectID, error)
}

// RaffleRepository defines the interface for settlement records
type RaffleRepository interface {
	Create(ctx context.Context, raffle *models.Raffle) error
	FindByMatchID(ctx context.Context, matchID primitive.ObjectID) (*models.Raffle, error)
	ExistsByMatchID(ctx context.Context, matchID primitive.ObjectID) (bool, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Raffle, error)
	Count(ctx context.Context) (int64, error)
	UpdatePayout(ctx context.Context, matchID primitive.ObjectID, status models.PayoutStatus, payoutRef string) error
	SetResult(ctx context.Context, matchID primitive.ObjectID, actualWinner string, homeScore, awayScore int, correct bool) error
}

// OperatorRepository defines the interface for back-office operator accounts
type OperatorRepository interface {
	Create(ctx context.Context, operator *models.Operator) error
	FindByEmail(ctx context.Context, email string) (*models.Operator, error)
}
