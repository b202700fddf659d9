package scheduler

import (
	"context"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
)

// Evaluator raises the first reminder of the day. Every tick it compares
// each vitamin's remind time with the current minute; a match is exactly one
// minute wide, so the tick interval must not be coarser than a minute.
type Evaluator struct {
	store    Store
	notifier Notifier
	users    []int64
	interval time.Duration
	loc      *time.Location
	clk      clock.Clock
	logger   *zap.SugaredLogger
}

func NewEvaluator(s Store, n Notifier, users []int64, interval time.Duration, loc *time.Location, l *zap.SugaredLogger) *Evaluator {
	return &Evaluator{
		store:    s,
		notifier: n,
		users:    users,
		interval: interval,
		loc:      loc,
		clk:      clock.New(),
		logger:   l,
	}
}

// Run ticks until the context is canceled. Run is supposed to be started in
// a new goroutine.
func (e *Evaluator) Run(ctx context.Context) {
	e.logger.Infow("evaluator started", "interval", e.interval, "users", len(e.users))

	t := time.NewTicker(e.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("evaluator stopped")
			return
		case <-t.C:
			e.checkOnce(ctx)
		}
	}
}

// checkOnce is a single evaluation pass. The wall clock is read once so a
// pass can't straddle a minute boundary. Failures are per user/vitamin and
// never abort the rest of the pass.
func (e *Evaluator) checkOnce(ctx context.Context) {
	cur := e.clk.Now().In(e.loc).Format("15:04")

	for _, usr := range e.users {
		vitamins, err := e.store.ListActiveVitamins(ctx, usr)
		if err != nil {
			e.logger.Errorw("failed listing vitamins", "user", usr, "err", err)
			continue
		}

		for _, v := range vitamins {
			if v.RemindAt != cur {
				continue
			}

			created, err := e.store.UpsertActiveReminder(ctx, v.ID, usr)
			if err != nil {
				e.logger.Errorw("failed upserting active reminder", "user", usr, "vitamin", v.ID, "err", err)
				continue
			}
			if !created {
				// already raised today, the escalator owns it now
				continue
			}

			if err := e.notifier.SendReminder(usr, v.ID, v.Name, v.RemindAt); err != nil {
				e.logger.Errorw("failed sending reminder", "user", usr, "vitamin", v.ID, "err", err)
			}
		}
	}
}
