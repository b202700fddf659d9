package scheduler

import (
	"context"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
)

// Escalator re-sends unacknowledged reminders. A reminder is escalated when
// its last notification is older than the repeat interval and its attempt
// counter hasn't reached the cap; capped reminders stay in the store until
// acknowledged or the day rolls over.
type Escalator struct {
	store          Store
	notifier       Notifier
	prefs          *Prefs
	users          []int64
	interval       time.Duration
	repeatInterval time.Duration
	maxAttempts    int
	loc            *time.Location
	clk            clock.Clock
	logger         *zap.SugaredLogger
}

func NewEscalator(s Store, n Notifier, prefs *Prefs, users []int64, interval, repeatInterval time.Duration, maxAttempts int, loc *time.Location, l *zap.SugaredLogger) *Escalator {
	return &Escalator{
		store:          s,
		notifier:       n,
		prefs:          prefs,
		users:          users,
		interval:       interval,
		repeatInterval: repeatInterval,
		maxAttempts:    maxAttempts,
		loc:            loc,
		clk:            clock.New(),
		logger:         l,
	}
}

// Run ticks until the context is canceled. Run is supposed to be started in
// a new goroutine.
func (e *Escalator) Run(ctx context.Context) {
	e.logger.Infow("escalator started", "interval", e.interval, "repeatInterval", e.repeatInterval, "maxAttempts", e.maxAttempts)

	t := time.NewTicker(e.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("escalator stopped")
			return
		case <-t.C:
			e.checkOnce(ctx)
		}
	}
}

func (e *Escalator) checkOnce(ctx context.Context) {
	now := e.clk.Now().In(e.loc)

	for _, usr := range e.users {
		if !e.prefs.Enabled(usr) {
			continue
		}

		reminders, err := e.store.ListActiveReminders(ctx, usr)
		if err != nil {
			e.logger.Errorw("failed listing active reminders", "user", usr, "err", err)
			continue
		}

		for _, r := range reminders {
			if r.Attempts >= e.maxAttempts {
				continue
			}
			if now.Sub(r.LastReminder) < e.repeatInterval {
				continue
			}

			if err := e.store.BumpAttempt(ctx, r.ID); err != nil {
				e.logger.Errorw("failed bumping attempt", "user", usr, "reminder", r.ID, "err", err)
				continue
			}

			attempt := r.Attempts + 1
			if err := e.notifier.SendEscalation(usr, r.VitaminID, r.VitaminName, attempt, e.maxAttempts); err != nil {
				// the bump already happened; the next tick retries delivery
				e.logger.Errorw("failed sending escalation", "user", usr, "reminder", r.ID, "err", err)
			}
		}
	}
}
