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
	"github.com/sportpicks/sportpicks-backend/pkg/payout"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure SettlementServiceImpl implements SettlementService
var _ SettlementService = (*SettlementServiceImpl)(nil)

// SettlementServiceImpl draws raffle winners once per match and submits payouts
type SettlementServiceImpl struct {
	cfg            *config.Config
	matchRepo      repositories.MatchRepository
	purchaseRepo   repositories.PurchaseRepository
	raffleRepo     repositories.RaffleRepository
	predictionRepo repositories.PredictionRepository
	gateway        payout.Gateway
}

// NewSettlementService creates a new SettlementServiceImpl
func NewSettlementService(cfg *config.Config, matchRepo repositories.MatchRepository, purchaseRepo repositories.PurchaseRepository, raffleRepo repositories.RaffleRepository, predictionRepo repositories.PredictionRepository, gateway payout.Gateway) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		cfg:            cfg,
		matchRepo:      matchRepo,
		purchaseRepo:   purchaseRepo,
		raffleRepo:     raffleRepo,
		predictionRepo: predictionRepo,
		gateway:        gateway,
	}
}

// SettleDue walks the league's in-flight matches and finalizes every one that
// has a terminal result. A failure on one match never aborts the batch.
func (s *SettlementServiceImpl) SettleDue(ctx context.Context, league string, now time.Time) (int, error) {
	lg, ok := s.cfg.League(league)
	if !ok {
		return 0, ErrUnknownLeague
	}
	win := windowFor(lg)

	settled := 0
	for _, state := range []models.FinalizationState{models.StateLocked, models.StateAwaitingResult} {
		matches, err := s.matchRepo.FindByState(ctx, state)
		if err != nil {
			return settled, fmt.Errorf("failed to load matches in state %s: %w", state, err)
		}
		for _, match := range matches {
			if match.League != league {
				continue
			}
			if !match.Status.Terminal() {
				// Once the window has closed a locked match is just waiting on
				// its result; record that explicitly.
				if state == models.StateLocked && !win.IsOpen(now) {
					if err := s.matchRepo.UpdateState(ctx, match.ID, models.StateAwaitingResult); err != nil {
						slog.Warn("Failed to mark match awaiting result", "error", err, "matchId", match.ID.Hex())
					}
				}
				continue
			}
			if err := s.finalize(ctx, match, lg); err != nil {
				slog.Error("Failed to settle match", "error", err, "matchId", match.ID.Hex(), "league", league)
				continue
			}
			settled++
		}
	}
	slog.Info("Settlement pass complete", "league", league, "settled", settled)
	return settled, nil
}

// finalize draws the winner and pays out for one terminal match. The raffle
// record is inserted before the payout is attempted: the unique index on
// matchId serializes concurrent triggers, and a payout failure afterwards is
// recorded on the already-drawn raffle rather than re-rolling the winner.
func (s *SettlementServiceImpl) finalize(ctx context.Context, match *models.Match, lg config.LeagueConfig) error {
	exists, err := s.raffleRepo.ExistsByMatchID(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("failed raffle existence check: %w", err)
	}
	if exists {
		return s.archiveFinalized(ctx, match)
	}

	buyers, err := s.purchaseRepo.DistinctBuyers(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("failed to load buyers: %w", err)
	}
	if len(buyers) == 0 {
		// Nobody bought in; nothing to raffle, just close the match out.
		slog.Info("No buyers, archiving without raffle", "matchId", match.ID.Hex())
		return s.archiveFinalized(ctx, match)
	}

	winner := buyers[rand.Intn(len(buyers))]
	prizePool := float64(len(buyers)) * lg.EntryFee
	winnerPayout := prizePool * lg.PayoutFraction

	raffle := &models.Raffle{
		MatchID:       match.ID,
		League:        match.League,
		Buyers:        buyers,
		BuyerCount:    len(buyers),
		WinnerAddress: winner,
		PrizePool:     prizePool,
		WinnerPayout:  winnerPayout,
		TokenSymbol:   lg.TokenSymbol,
		PayoutStatus:  models.PayoutStatusPending,
		DrawnAt:       time.Now(),
	}
	s.attachResult(ctx, match, raffle)
	if err := s.raffleRepo.Create(ctx, raffle); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent trigger drew first; its record stands.
			slog.Warn("Raffle already drawn by concurrent settlement", "matchId", match.ID.Hex())
			return s.archiveFinalized(ctx, match)
		}
		return fmt.Errorf("failed to persist raffle: %w", err)
	}
	slog.Info("Raffle winner drawn",
		"matchId", match.ID.Hex(), "winner", winner,
		"buyers", len(buyers), "prizePool", prizePool, "winnerPayout", winnerPayout)

	s.submitPayout(ctx, raffle)
	return s.archiveFinalized(ctx, match)
}

// attachResult copies the final outcome onto the raffle at draw time. The
// match is terminal here, so the scores are authoritative; this saves the
// reconciler a back-fill pass for raffles drawn after results landed.
func (s *SettlementServiceImpl) attachResult(ctx context.Context, match *models.Match, raffle *models.Raffle) {
	actualWinner, ok := match.ActualWinner()
	if !ok {
		return
	}
	raffle.ActualWinner = &actualWinner
	raffle.ActualHomeScore = match.HomeScore
	raffle.ActualAwayScore = match.AwayScore

	prediction, err := s.predictionRepo.FindByMatchID(ctx, match.ID)
	if err != nil {
		return
	}
	correct := prediction.PredictedWinner == actualWinner
	raffle.PredictionCorrect = &correct
}

// submitPayout attempts the transfer and records the outcome. Failure is not
// an error for the settlement pass: the drawn winner is durable and the payout
// is retried out-of-band via RetryPayout.
func (s *SettlementServiceImpl) submitPayout(ctx context.Context, raffle *models.Raffle) {
	payoutCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Payout.TimeoutSecs)*time.Second)
	defer cancel()

	ref, err := s.gateway.Payout(payoutCtx, raffle.WinnerAddress, raffle.WinnerPayout, raffle.TokenSymbol)
	status := models.PayoutStatusPaid
	if err != nil {
		slog.Warn("Payout failed, raffle kept with failure sentinel",
			"error", err, "matchId", raffle.MatchID.Hex(), "winner", raffle.WinnerAddress)
		status = models.PayoutStatusFailed
		ref = ""
	}
	if updateErr := s.raffleRepo.UpdatePayout(ctx, raffle.MatchID, status, ref); updateErr != nil {
		slog.Error("Failed to record payout outcome", "error", updateErr, "matchId", raffle.MatchID.Hex())
		return
	}
	raffle.PayoutStatus = status
	raffle.PayoutRef = ref
}

func (s *SettlementServiceImpl) archiveFinalized(ctx context.Context, match *models.Match) error {
	if err := s.matchRepo.UpdateState(ctx, match.ID, models.StateFinalized); err != nil {
		return fmt.Errorf("failed to mark match finalized: %w", err)
	}
	match.State = models.StateFinalized
	if err := s.matchRepo.Archive(ctx, match); err != nil {
		return fmt.Errorf("failed to archive match: %w", err)
	}
	return nil
}

// RetryPayout re-runs only the payout leg for a raffle whose transfer failed
func (s *SettlementServiceImpl) RetryPayout(ctx context.Context, matchID primitive.ObjectID) (*models.Raffle, error) {
	raffle, err := s.raffleRepo.FindByMatchID(ctx, matchID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("no raffle for match %s", matchID.Hex())
		}
		return nil, fmt.Errorf("failed to load raffle: %w", err)
	}
	if raffle.PayoutStatus == models.PayoutStatusPaid {
		return raffle, ErrAlreadyPaid
	}

	s.submitPayout(ctx, raffle)
	slog.Info("Payout retried", "matchId", matchID.Hex(), "status", raffle.PayoutStatus, "ref", raffle.PayoutRef)
	return raffle, nil
}

// GetByMatchID finds the raffle for a match
func (s *SettlementServiceImpl) GetByMatchID(ctx context.Context, matchID primitive.ObjectID) (*models.Raffle, error) {
	return s.raffleRepo.FindByMatchID(ctx, matchID)
}

// List returns paginated raffles enriched with match details
func (s *SettlementServiceImpl) List(ctx context.Context, page, limit int) ([]models.RaffleView, int64, error) {
	raffles, err := s.raffleRepo.FindAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list raffles: %w", err)
	}
	total, err := s.raffleRepo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count raffles: %w", err)
	}

	views := make([]models.RaffleView, 0, len(raffles))
	for _, raffle := range raffles {
		view := models.RaffleView{Raffle: *raffle}
		if match, err := s.matchRepo.FindByID(ctx, raffle.MatchID); err == nil {
			view.Match = match
		}
		views = append(views, view)
	}
	return views, total, nil
}
