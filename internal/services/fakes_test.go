package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/config"
	"github.com/sportpicks/sportpicks-backend/internal/models"
	"github.com/sportpicks/sportpicks-backend/internal/repositories"
	"github.com/sportpicks/sportpicks-backend/pkg/scorefeed"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory repository fakes. Each one mirrors the uniqueness guarantees the
// real Mongo indexes provide, so the race-handling paths in the services are
// exercised the same way in tests.

func dupKeyErr() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
}

func testConfig() *config.Config {
	return &config.Config{
		JWT:       config.JWTConfig{Secret: "test-secret", ExpiresIn: 3600},
		ScoreFeed: config.ScoreFeedConfig{TimeoutSecs: 2},
		Payout:    config.PayoutConfig{TimeoutSecs: 2},
		Leagues: map[string]config.LeagueConfig{
			"epl": {
				DisplayName:      "Premier League",
				OpenHourLocal:    19,
				CloseHourLocal:   10,
				TZOffsetHours:    1,
				PreWindowMinutes: 5,
				SelectionMin:     3,
				SelectionTarget:  5,
				LookaheadDays:    1,
				EntryFee:         1,
				TokenSymbol:      "CARV",
				PayoutFraction:   0.8,
			},
		},
	}
}

// windowOpenAt is 20:00 UTC (21:00 league-local), inside the 19:00-10:00 window
var windowOpenAt = time.Date(2026, time.January, 10, 20, 0, 0, 0, time.UTC)

// windowClosedAt is 12:00 UTC (13:00 league-local), outside the window
var windowClosedAt = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

func newTestMatch(league, home, away string, start time.Time) *models.Match {
	return &models.Match{
		ID:         primitive.NewObjectID(),
		League:     league,
		ExternalID: fmt.Sprintf("ext-%s-%s", home, away),
		HomeTeam:   home,
		AwayTeam:   away,
		StartTime:  start,
		Status:     models.MatchStatusScheduled,
		State:      models.StateUpcoming,
	}
}

// --- match repo ---

type fakeMatchRepo struct {
	matches  map[primitive.ObjectID]*models.Match
	archived map[primitive.ObjectID]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{
		matches:  map[primitive.ObjectID]*models.Match{},
		archived: map[primitive.ObjectID]*models.Match{},
	}
}

func (r *fakeMatchRepo) add(matches ...*models.Match) {
	for _, m := range matches {
		r.matches[m.ID] = m
	}
}

func (r *fakeMatchRepo) UpsertByExternalID(ctx context.Context, match *models.Match) error {
	for _, existing := range r.matches {
		if existing.League == match.League && existing.ExternalID == match.ExternalID {
			existing.HomeTeam = match.HomeTeam
			existing.AwayTeam = match.AwayTeam
			existing.StartTime = match.StartTime
			existing.Venue = match.Venue
			existing.Status = match.Status
			existing.HomeScore = match.HomeScore
			existing.AwayScore = match.AwayScore
			*match = *existing
			return nil
		}
	}
	match.ID = primitive.NewObjectID()
	match.State = models.StateUpcoming
	r.matches[match.ID] = match
	return nil
}

func (r *fakeMatchRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Match, error) {
	if m, ok := r.matches[id]; ok {
		return m, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeMatchRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Match, error) {
	var out []*models.Match
	for _, id := range ids {
		if m, ok := r.matches[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) FindByLeague(ctx context.Context, league string) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.League == league {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) FindUpcomingByLeague(ctx context.Context, league string, from, to time.Time) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.League == league && m.Status == models.MatchStatusScheduled &&
			!m.StartTime.Before(from) && m.StartTime.Before(to) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeMatchRepo) FindByState(ctx context.Context, state models.FinalizationState) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.State == state {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateState(ctx context.Context, id primitive.ObjectID, state models.FinalizationState) error {
	m, ok := r.matches[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	m.State = state
	return nil
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, id primitive.ObjectID, homeScore, awayScore int, status models.MatchStatus) error {
	m, ok := r.matches[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	m.HomeScore = &homeScore
	m.AwayScore = &awayScore
	m.Status = status
	return nil
}

func (r *fakeMatchRepo) Archive(ctx context.Context, match *models.Match) error {
	copied := *match
	r.archived[match.ID] = &copied
	return nil
}

func (r *fakeMatchRepo) FindArchivedByLeague(ctx context.Context, league string, page, limit int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.archived {
		if m.League == league {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- selection cycle repo ---

type fakeCycleRepo struct {
	cycles map[string]*models.SelectionCycle
}

func newFakeCycleRepo() *fakeCycleRepo {
	return &fakeCycleRepo{cycles: map[string]*models.SelectionCycle{}}
}

func cycleKey(league string, cycleDate time.Time) string {
	return league + "|" + cycleDate.Format("2006-01-02")
}

func (r *fakeCycleRepo) FindByLeagueAndDate(ctx context.Context, league string, cycleDate time.Time) (*models.SelectionCycle, error) {
	if c, ok := r.cycles[cycleKey(league, cycleDate)]; ok {
		return c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeCycleRepo) FindByLeague(ctx context.Context, league string) ([]*models.SelectionCycle, error) {
	var out []*models.SelectionCycle
	for _, c := range r.cycles {
		if c.League == league {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCycleRepo) AppendMatchIDs(ctx context.Context, league string, cycleDate time.Time, ids []primitive.ObjectID) (*models.SelectionCycle, error) {
	key := cycleKey(league, cycleDate)
	cycle, ok := r.cycles[key]
	if !ok {
		cycle = &models.SelectionCycle{
			ID:        primitive.NewObjectID(),
			League:    league,
			CycleDate: cycleDate,
			LockedAt:  time.Now(),
		}
		r.cycles[key] = cycle
	}
	for _, id := range ids {
		if !cycle.Contains(id) {
			cycle.MatchIDs = append(cycle.MatchIDs, id)
		}
	}
	return cycle, nil
}

// --- prediction repo ---

type fakePredictionRepo struct {
	predictions map[primitive.ObjectID]*models.Prediction
}

func newFakePredictionRepo() *fakePredictionRepo {
	return &fakePredictionRepo{predictions: map[primitive.ObjectID]*models.Prediction{}}
}

func (r *fakePredictionRepo) Create(ctx context.Context, prediction *models.Prediction) error {
	if _, ok := r.predictions[prediction.MatchID]; ok {
		return dupKeyErr()
	}
	prediction.ID = primitive.NewObjectID()
	r.predictions[prediction.MatchID] = prediction
	return nil
}

func (r *fakePredictionRepo) FindByMatchID(ctx context.Context, matchID primitive.ObjectID) (*models.Prediction, error) {
	if p, ok := r.predictions[matchID]; ok {
		return p, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakePredictionRepo) ExistsByMatchID(ctx context.Context, matchID primitive.ObjectID) (bool, error) {
	_, ok := r.predictions[matchID]
	return ok, nil
}

func (r *fakePredictionRepo) FindUnresolved(ctx context.Context) ([]*models.Prediction, error) {
	var out []*models.Prediction
	for _, p := range r.predictions {
		if p.ActualWinner == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePredictionRepo) SetResult(ctx context.Context, matchID primitive.ObjectID, actualWinner string, homeScore, awayScore int, isCorrect bool, finalizedAt time.Time) error {
	p, ok := r.predictions[matchID]
	if !ok || p.ActualWinner != nil {
		return repositories.ErrResultAlreadySet
	}
	p.ActualWinner = &actualWinner
	p.ActualHomeScore = &homeScore
	p.ActualAwayScore = &awayScore
	p.IsCorrect = &isCorrect
	p.FinalizedAt = &finalizedAt
	return nil
}

// --- purchase repo ---

type fakePurchaseRepo struct {
	purchases []*models.Purchase
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{}
}

func (r *fakePurchaseRepo) Create(ctx context.Context, purchase *models.Purchase) error {
	for _, p := range r.purchases {
		if p.MatchID == purchase.MatchID && p.BuyerAddress == purchase.BuyerAddress {
			return dupKeyErr()
		}
	}
	purchase.ID = primitive.NewObjectID()
	purchase.CreatedAt = time.Now()
	r.purchases = append(r.purchases, purchase)
	return nil
}

func (r *fakePurchaseRepo) ExistsByMatchAndBuyer(ctx context.Context, matchID primitive.ObjectID, buyer string) (bool, error) {
	for _, p := range r.purchases {
		if p.MatchID == matchID && p.BuyerAddress == buyer {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePurchaseRepo) FindByMatchID(ctx context.Context, matchID primitive.ObjectID) ([]*models.Purchase, error) {
	var out []*models.Purchase
	for _, p := range r.purchases {
		if p.MatchID == matchID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePurchaseRepo) Find(ctx context.Context, matchID *primitive.ObjectID, buyer string) ([]*models.Purchase, error) {
	var out []*models.Purchase
	for _, p := range r.purchases {
		if matchID != nil && p.MatchID != *matchID {
			continue
		}
		if buyer != "" && p.BuyerAddress != buyer {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePurchaseRepo) CountByMatchID(ctx context.Context, matchID primitive.ObjectID) (int64, error) {
	var n int64
	for _, p := range r.purchases {
		if p.MatchID == matchID {
			n++
		}
	}
	return n, nil
}

func (r *fakePurchaseRepo) DistinctBuyers(ctx context.Context, matchID primitive.ObjectID) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range r.purchases {
		if p.MatchID == matchID && !seen[p.BuyerAddress] {
			seen[p.BuyerAddress] = true
			out = append(out, p.BuyerAddress)
		}
	}
	return out, nil
}

func (r *fakePurchaseRepo) MatchIDsWithPurchases(ctx context.Context) ([]primitive.ObjectID, error) {
	seen := map[primitive.ObjectID]bool{}
	var out []primitive.ObjectID
	for _, p := range r.purchases {
		if !seen[p.MatchID] {
			seen[p.MatchID] = true
			out = append(out, p.MatchID)
		}
	}
	return out, nil
}

// --- raffle repo ---

type fakeRaffleRepo struct {
	raffles map[primitive.ObjectID]*models.Raffle
}

func newFakeRaffleRepo() *fakeRaffleRepo {
	return &fakeRaffleRepo{raffles: map[primitive.ObjectID]*models.Raffle{}}
}

func (r *fakeRaffleRepo) Create(ctx context.Context, raffle *models.Raffle) error {
	if _, ok := r.raffles[raffle.MatchID]; ok {
		return dupKeyErr()
	}
	raffle.ID = primitive.NewObjectID()
	r.raffles[raffle.MatchID] = raffle
	return nil
}

func (r *fakeRaffleRepo) FindByMatchID(ctx context.Context, matchID primitive.ObjectID) (*models.Raffle, error) {
	if raffle, ok := r.raffles[matchID]; ok {
		return raffle, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeRaffleRepo) ExistsByMatchID(ctx context.Context, matchID primitive.ObjectID) (bool, error) {
	_, ok := r.raffles[matchID]
	return ok, nil
}

func (r *fakeRaffleRepo) FindAll(ctx context.Context, page, limit int) ([]*models.Raffle, error) {
	var out []*models.Raffle
	for _, raffle := range r.raffles {
		out = append(out, raffle)
	}
	return out, nil
}

func (r *fakeRaffleRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.raffles)), nil
}

func (r *fakeRaffleRepo) UpdatePayout(ctx context.Context, matchID primitive.ObjectID, status models.PayoutStatus, payoutRef string) error {
	raffle, ok := r.raffles[matchID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	raffle.PayoutStatus = status
	raffle.PayoutRef = payoutRef
	return nil
}

func (r *fakeRaffleRepo) SetResult(ctx context.Context, matchID primitive.ObjectID, actualWinner string, homeScore, awayScore int, correct bool) error {
	raffle, ok := r.raffles[matchID]
	if !ok || raffle.ActualWinner != nil {
		return repositories.ErrResultAlreadySet
	}
	raffle.ActualWinner = &actualWinner
	raffle.ActualHomeScore = &homeScore
	raffle.ActualAwayScore = &awayScore
	raffle.PredictionCorrect = &correct
	return nil
}

// --- operator repo ---

type fakeOperatorRepo struct {
	operators map[string]*models.Operator
}

func newFakeOperatorRepo() *fakeOperatorRepo {
	return &fakeOperatorRepo{operators: map[string]*models.Operator{}}
}

func (r *fakeOperatorRepo) Create(ctx context.Context, operator *models.Operator) error {
	if _, ok := r.operators[operator.Email]; ok {
		return dupKeyErr()
	}
	operator.ID = primitive.NewObjectID()
	r.operators[operator.Email] = operator
	return nil
}

func (r *fakeOperatorRepo) FindByEmail(ctx context.Context, email string) (*models.Operator, error) {
	if op, ok := r.operators[email]; ok {
		return op, nil
	}
	return nil, mongo.ErrNoDocuments
}

// --- payout gateway ---

type fakeGateway struct {
	fail      bool
	calls     int
	lastTo    string
	lastAmt   float64
	lastToken string
}

func (g *fakeGateway) Payout(ctx context.Context, walletAddress string, amount float64, tokenSymbol string) (string, error) {
	g.calls++
	g.lastTo = walletAddress
	g.lastAmt = amount
	g.lastToken = tokenSymbol
	if g.fail {
		return "", errors.New("gateway unavailable")
	}
	return fmt.Sprintf("TX-%d", g.calls), nil
}

// --- score feed ---

type fakeFeed struct {
	league map[string][]scorefeed.Snapshot
	scores []scorefeed.Snapshot
	err    error
}

func (f *fakeFeed) FetchLeague(ctx context.Context, league string) ([]scorefeed.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.league[league], nil
}

func (f *fakeFeed) FetchLiveScores(ctx context.Context) ([]scorefeed.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

// Compile-time checks that the fakes satisfy the repository interfaces
var (
	_ repositories.MatchRepository          = (*fakeMatchRepo)(nil)
	_ repositories.SelectionCycleRepository = (*fakeCycleRepo)(nil)
	_ repositories.PredictionRepository     = (*fakePredictionRepo)(nil)
	_ repositories.PurchaseRepository       = (*fakePurchaseRepo)(nil)
	_ repositories.RaffleRepository         = (*fakeRaffleRepo)(nil)
	_ repositories.OperatorRepository       = (*fakeOperatorRepo)(nil)
)
