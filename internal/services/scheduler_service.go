package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/config"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure SchedulerServiceImpl implements SchedulerService
var _ SchedulerService = (*SchedulerServiceImpl)(nil)

// Phases accepted by the trigger endpoint
const (
	PhaseRefresh   = "refresh"
	PhaseSelect    = "select"
	PhaseGenerate  = "generate"
	PhaseSettle    = "settle"
	PhaseReconcile = "reconcile"
	PhasePrepare   = "prepare" // refresh + select + generate in one shot
)

// SchedulerServiceImpl routes external timer triggers to the right job. The
// timers themselves live outside the process (cron hitting the trigger
// endpoints), same as the payment and feed providers: this service only decides
// what a trigger means and runs it.
type SchedulerServiceImpl struct {
	cfg         *config.Config
	matches     MatchService
	selections  SelectionService
	predictions PredictionService
	settlements SettlementService
	reconciler  ReconcileService
}

// NewSchedulerService creates a new SchedulerServiceImpl
func NewSchedulerService(cfg *config.Config, matches MatchService, selections SelectionService, predictions PredictionService, settlements SettlementService, reconciler ReconcileService) *SchedulerServiceImpl {
	return &SchedulerServiceImpl{
		cfg:         cfg,
		matches:     matches,
		selections:  selections,
		predictions: predictions,
		settlements: settlements,
		reconciler:  reconciler,
	}
}

// RunPhase executes one scheduler phase for a league. Triggers arriving outside
// the league's pre-window automation slot are logged and run anyway: operators
// re-fire missed jobs by hand and the underlying operations are idempotent, so
// refusing out-of-slot triggers would only make recovery harder.
func (s *SchedulerServiceImpl) RunPhase(ctx context.Context, league, phase string, now time.Time) (*PhaseResult, error) {
	if phase != PhaseReconcile {
		lg, ok := s.cfg.League(league)
		if !ok {
			return nil, ErrUnknownLeague
		}
		if !windowFor(lg).IsAutomationSlot(now) {
			slog.Warn("Trigger outside automation slot, running anyway", "league", league, "phase", phase)
		}
	}

	switch phase {
	case PhaseRefresh:
		applied, err := s.matches.RefreshLeague(ctx, league)
		if err != nil {
			return nil, err
		}
		return phaseOK(fmt.Sprintf("refreshed %s fixtures", league), map[string]int{"applied": applied}), nil

	case PhaseSelect:
		cycle, shortfall, err := s.selections.SelectForCycle(ctx, league, now)
		if err != nil {
			return nil, err
		}
		res := phaseOK(fmt.Sprintf("selection locked for %s", league), map[string]int{
			"locked":    len(cycle.MatchIDs),
			"shortfall": shortfall,
		})
		if shortfall > 0 {
			res.Message = fmt.Sprintf("selection locked for %s with shortfall %d", league, shortfall)
		}
		return res, nil

	case PhaseGenerate:
		generated, err := s.predictions.GenerateForLocked(ctx, league, now, true)
		if err != nil {
			return nil, err
		}
		return phaseOK(fmt.Sprintf("predictions generated for %s", league), map[string]int{"generated": generated}), nil

	case PhaseSettle:
		settled, err := s.settlements.SettleDue(ctx, league, now)
		if err != nil {
			return nil, err
		}
		return phaseOK(fmt.Sprintf("settlement ran for %s", league), map[string]int{"settled": settled}), nil

	case PhaseReconcile:
		updated, err := s.reconciler.ReconcilePending(ctx)
		if err != nil {
			return nil, err
		}
		return phaseOK("reconcile ran", map[string]int{"updated": updated}), nil

	case PhasePrepare:
		return s.runPrepare(ctx, league, now)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}
}

// runPrepare chains the pre-window jobs in order so a single cron entry can
// stand the league's day up. A refresh failure does not stop selection: the
// cache from the previous refresh is still usable.
func (s *SchedulerServiceImpl) runPrepare(ctx context.Context, league string, now time.Time) (*PhaseResult, error) {
	counts := map[string]int{}

	applied, err := s.matches.RefreshLeague(ctx, league)
	if err != nil {
		slog.Warn("Refresh failed during prepare, selecting from cached fixtures", "error", err, "league", league)
	} else {
		counts["applied"] = applied
	}

	cycle, shortfall, err := s.selections.SelectForCycle(ctx, league, now)
	if err != nil {
		return nil, err
	}
	counts["locked"] = len(cycle.MatchIDs)
	counts["shortfall"] = shortfall

	generated, err := s.predictions.GenerateForLocked(ctx, league, now, true)
	if err != nil {
		return nil, err
	}
	counts["generated"] = generated

	return phaseOK(fmt.Sprintf("prepare ran for %s", league), counts), nil
}

func phaseOK(message string, counts map[string]int) *PhaseResult {
	return &PhaseResult{OK: true, Message: message, Counts: counts}
}
