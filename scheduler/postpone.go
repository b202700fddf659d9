package scheduler

import (
	"time"

	"go.uber.org/zap"
)

// Postponer schedules one-shot deferred re-deliveries. A deferred send is
// fire-and-forget: acknowledging the vitamin in the meantime does not cancel
// it, so the user may get one extra reminder after a postpone.
type Postponer struct {
	notifier Notifier
	logger   *zap.SugaredLogger
}

func NewPostponer(n Notifier, l *zap.SugaredLogger) *Postponer {
	return &Postponer{notifier: n, logger: l}
}

// Defer re-delivers the reminder once after the given delay. The escalation
// state of the reminder is left untouched.
func (p *Postponer) Defer(usr int64, vitaminID int64, name, remindAt string, delay time.Duration) {
	p.logger.Infow("postponing reminder", "user", usr, "vitamin", vitaminID, "delay", delay)

	time.AfterFunc(delay, func() {
		p.deliver(usr, vitaminID, name, remindAt)
	})
}

func (p *Postponer) deliver(usr int64, vitaminID int64, name, remindAt string) {
	if err := p.notifier.SendReminder(usr, vitaminID, name, remindAt); err != nil {
		p.logger.Errorw("failed sending postponed reminder", "user", usr, "vitamin", vitaminID, "err", err)
	}
}
