package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/models"
)

type settlementFixture struct {
	svc       *SettlementServiceImpl
	matches   *fakeMatchRepo
	purchases *fakePurchaseRepo
	raffles   *fakeRaffleRepo
	gateway   *fakeGateway
	match     *models.Match
}

func newSettlementFixture(t *testing.T, buyers int) *settlementFixture {
	t.Helper()
	matchRepo := newFakeMatchRepo()
	purchaseRepo := newFakePurchaseRepo()
	raffleRepo := newFakeRaffleRepo()
	predictionRepo := newFakePredictionRepo()
	gateway := &fakeGateway{}

	match := newTestMatch("epl", "Arsenal", "Chelsea", windowOpenAt.Add(-2*time.Hour))
	match.State = models.StateLocked
	home, away := 2, 1
	match.HomeScore = &home
	match.AwayScore = &away
	match.Status = models.MatchStatusFinished
	matchRepo.add(match)

	for i := 0; i < buyers; i++ {
		p := &models.Purchase{
			PurchaseID:   fmt.Sprintf("p-%d", i),
			MatchID:      match.ID,
			League:       "epl",
			BuyerAddress: fmt.Sprintf("0xbuyer%d", i),
			Amount:       1,
			TokenSymbol:  "CARV",
		}
		if err := purchaseRepo.Create(context.Background(), p); err != nil {
			t.Fatalf("failed to seed purchase: %v", err)
		}
	}

	return &settlementFixture{
		svc:       NewSettlementService(testConfig(), matchRepo, purchaseRepo, raffleRepo, predictionRepo, gateway),
		matches:   matchRepo,
		purchases: purchaseRepo,
		raffles:   raffleRepo,
		gateway:   gateway,
		match:     match,
	}
}

func TestSettleDueDrawsOnceAndPaysOut(t *testing.T) {
	f := newSettlementFixture(t, 5)

	settled, err := f.svc.SettleDue(context.Background(), "epl", windowClosedAt)
	if err != nil {
		t.Fatalf("SettleDue failed: %v", err)
	}
	if settled != 1 {
		t.Fatalf("expected 1 settled match, got %d", settled)
	}

	raffle, err := f.raffles.FindByMatchID(context.Background(), f.match.ID)
	if err != nil {
		t.Fatalf("raffle not persisted: %v", err)
	}
	if raffle.BuyerCount != 5 {
		t.Errorf("expected 5 buyers in the draw, got %d", raffle.BuyerCount)
	}
	if raffle.PrizePool != 5 {
		t.Errorf("expected prize pool 5, got %v", raffle.PrizePool)
	}
	if raffle.WinnerPayout != 4 {
		t.Errorf("expected winner payout 4 (pool x 0.8), got %v", raffle.WinnerPayout)
	}
	winnerFound := false
	for _, b := range raffle.Buyers {
		if b == raffle.WinnerAddress {
			winnerFound = true
		}
	}
	if !winnerFound {
		t.Errorf("winner %q is not one of the buyers", raffle.WinnerAddress)
	}
	if raffle.PayoutStatus != models.PayoutStatusPaid {
		t.Errorf("expected PAID, got %s", raffle.PayoutStatus)
	}
	if raffle.PayoutRef == "" {
		t.Errorf("expected a transaction reference")
	}
	if f.gateway.lastTo != raffle.WinnerAddress || f.gateway.lastAmt != 4 {
		t.Errorf("gateway called with %q/%v, want %q/4", f.gateway.lastTo, f.gateway.lastAmt, raffle.WinnerAddress)
	}
	if raffle.ActualWinner == nil || *raffle.ActualWinner != "Arsenal" {
		t.Errorf("expected actual winner Arsenal on the raffle")
	}

	if f.match.State != models.StateFinalized {
		t.Errorf("expected match finalized, state %s", f.match.State)
	}
	if _, ok := f.matches.archived[f.match.ID]; !ok {
		t.Errorf("expected match archived")
	}

	// A repeated trigger must not draw a second raffle or pay again.
	calls := f.gateway.calls
	settled, err = f.svc.SettleDue(context.Background(), "epl", windowClosedAt)
	if err != nil {
		t.Fatalf("repeat SettleDue failed: %v", err)
	}
	if settled != 0 {
		t.Fatalf("repeat trigger settled %d matches", settled)
	}
	if f.gateway.calls != calls {
		t.Fatalf("repeat trigger paid out again")
	}
}

func TestSettleDueFailedPayoutKeepsWinner(t *testing.T) {
	f := newSettlementFixture(t, 3)
	f.gateway.fail = true

	if _, err := f.svc.SettleDue(context.Background(), "epl", windowClosedAt); err != nil {
		t.Fatalf("SettleDue failed: %v", err)
	}

	raffle, err := f.raffles.FindByMatchID(context.Background(), f.match.ID)
	if err != nil {
		t.Fatalf("raffle not persisted despite payout failure: %v", err)
	}
	if raffle.PayoutStatus != models.PayoutStatusFailed {
		t.Fatalf("expected FAILED, got %s", raffle.PayoutStatus)
	}
	if raffle.PayoutRef != "" {
		t.Fatalf("expected empty tx ref on failure, got %q", raffle.PayoutRef)
	}
	winner := raffle.WinnerAddress

	// Retry pays the same winner; the draw is never re-run.
	f.gateway.fail = false
	retried, err := f.svc.RetryPayout(context.Background(), f.match.ID)
	if err != nil {
		t.Fatalf("RetryPayout failed: %v", err)
	}
	if retried.WinnerAddress != winner {
		t.Fatalf("retry re-rolled the winner: %q -> %q", winner, retried.WinnerAddress)
	}
	if retried.PayoutStatus != models.PayoutStatusPaid {
		t.Fatalf("expected PAID after retry, got %s", retried.PayoutStatus)
	}
	if f.gateway.lastTo != winner {
		t.Fatalf("retry paid %q, want %q", f.gateway.lastTo, winner)
	}
}

func TestRetryPayoutAlreadyPaid(t *testing.T) {
	f := newSettlementFixture(t, 2)

	if _, err := f.svc.SettleDue(context.Background(), "epl", windowClosedAt); err != nil {
		t.Fatalf("SettleDue failed: %v", err)
	}
	_, err := f.svc.RetryPayout(context.Background(), f.match.ID)
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
}

func TestSettleDueNoBuyersArchivesWithoutRaffle(t *testing.T) {
	f := newSettlementFixture(t, 0)

	settled, err := f.svc.SettleDue(context.Background(), "epl", windowClosedAt)
	if err != nil {
		t.Fatalf("SettleDue failed: %v", err)
	}
	if settled != 1 {
		t.Fatalf("expected the empty match closed out, got %d", settled)
	}
	if exists, _ := f.raffles.ExistsByMatchID(context.Background(), f.match.ID); exists {
		t.Fatalf("raffle drawn with zero buyers")
	}
	if f.gateway.calls != 0 {
		t.Fatalf("payout attempted with zero buyers")
	}
	if f.match.State != models.StateFinalized {
		t.Fatalf("expected match finalized, state %s", f.match.State)
	}
}

func TestSettleDueMovesLockedToAwaitingResult(t *testing.T) {
	f := newSettlementFixture(t, 1)
	// Still in play: no terminal result yet.
	f.match.Status = models.MatchStatusLive
	f.match.HomeScore = nil
	f.match.AwayScore = nil

	settled, err := f.svc.SettleDue(context.Background(), "epl", windowClosedAt)
	if err != nil {
		t.Fatalf("SettleDue failed: %v", err)
	}
	if settled != 0 {
		t.Fatalf("non-terminal match was settled")
	}
	if f.match.State != models.StateAwaitingResult {
		t.Fatalf("expected AWAITING_RESULT after window close, state %s", f.match.State)
	}
	if exists, _ := f.raffles.ExistsByMatchID(context.Background(), f.match.ID); exists {
		t.Fatalf("raffle drawn before the result landed")
	}
}
