package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sportpicks/sportpicks-backend/internal/config"
	"github.com/sportpicks/sportpicks-backend/internal/models"
	"github.com/sportpicks/sportpicks-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure PurchaseServiceImpl implements PurchaseService
var _ PurchaseService = (*PurchaseServiceImpl)(nil)

// PurchaseServiceImpl is the purchase ledger
type PurchaseServiceImpl struct {
	cfg          *config.Config
	purchaseRepo repositories.PurchaseRepository
	matchRepo    repositories.MatchRepository
	cycleRepo    repositories.SelectionCycleRepository
	predictions  PredictionService
}

// NewPurchaseService creates a new PurchaseServiceImpl
func NewPurchaseService(cfg *config.Config, purchaseRepo repositories.PurchaseRepository, matchRepo repositories.MatchRepository, cycleRepo repositories.SelectionCycleRepository, predictions PredictionService) *PurchaseServiceImpl {
	return &PurchaseServiceImpl{
		cfg:          cfg,
		purchaseRepo: purchaseRepo,
		matchRepo:    matchRepo,
		cycleRepo:    cycleRepo,
		predictions:  predictions,
	}
}

// Buy records one purchase for (match, buyer). The pre-insert existence check
// produces the friendly conflict; the unique index is the hard guarantee when
// two requests race past it.
func (s *PurchaseServiceImpl) Buy(ctx context.Context, matchID primitive.ObjectID, buyer, paymentRef string, amount float64, token string, now time.Time) (*models.Purchase, error) {
	match, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("match not found")
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	lg, ok := s.cfg.League(match.League)
	if !ok {
		return nil, ErrUnknownLeague
	}
	if err := s.checkBuyable(ctx, match, lg.TokenSymbol, token, lg.EntryFee, amount, now); err != nil {
		return nil, err
	}

	exists, err := s.purchaseRepo.ExistsByMatchAndBuyer(ctx, matchID, buyer)
	if err != nil {
		return nil, fmt.Errorf("failed duplicate check: %w", err)
	}
	if exists {
		return nil, ErrAlreadyPurchased
	}

	// Buyers outside the scheduled-generation path still get content.
	prediction, err := s.predictions.EnsurePrediction(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prediction: %w", err)
	}

	purchase := &models.Purchase{
		PurchaseID:     uuid.NewString(),
		MatchID:        matchID,
		League:         match.League,
		BuyerAddress:   buyer,
		PaymentRef:     paymentRef,
		Amount:         amount,
		TokenSymbol:    token,
		PredictionText: prediction.Narrative,
	}
	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyPurchased
		}
		slog.Error("Failed to persist purchase", "error", err, "matchId", matchID.Hex(), "buyer", buyer)
		return nil, fmt.Errorf("failed to persist purchase: %w", err)
	}

	slog.Info("Purchase recorded", "matchId", matchID.Hex(), "buyer", buyer, "amount", amount, "token", token)
	return purchase, nil
}

// checkBuyable enforces the storefront gating: window open, match not started,
// match in the cycle's locked set, and the fee as configured.
func (s *PurchaseServiceImpl) checkBuyable(ctx context.Context, match *models.Match, wantToken, token string, entryFee, amount float64, now time.Time) error {
	lg, _ := s.cfg.League(match.League)
	win := windowFor(lg)

	if !win.IsOpen(now) {
		return ErrNotBuyable
	}
	if !match.StartTime.After(now) {
		return ErrNotBuyable
	}

	cycle, err := s.cycleRepo.FindByLeagueAndDate(ctx, match.League, win.CycleDate(now))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotBuyable
		}
		return fmt.Errorf("failed to load selection cycle: %w", err)
	}
	if !cycle.Contains(match.ID) {
		return ErrNotBuyable
	}

	if token != wantToken {
		return fmt.Errorf("unsupported token %q, expected %q", token, wantToken)
	}
	if amount != entryFee {
		return fmt.Errorf("amount %.4f does not match entry fee %.4f", amount, entryFee)
	}
	return nil
}

// Count returns buyer and purchase counts for a match
func (s *PurchaseServiceImpl) Count(ctx context.Context, matchID primitive.ObjectID) (*models.PurchaseCount, error) {
	total, err := s.purchaseRepo.CountByMatchID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to count purchases: %w", err)
	}
	buyers, err := s.purchaseRepo.DistinctBuyers(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to count buyers: %w", err)
	}
	return &models.PurchaseCount{
		MatchID:        matchID,
		BuyerCount:     len(buyers),
		TotalPurchases: int(total),
	}, nil
}

// Find lists purchases filtered by match and/or buyer
func (s *PurchaseServiceImpl) Find(ctx context.Context, matchID *primitive.ObjectID, buyer string) ([]*models.Purchase, error) {
	return s.purchaseRepo.Find(ctx, matchID, buyer)
}
