// Package scheduler drives the periodic reminder passes: the evaluator that
// raises first-of-day reminders, the escalator that repeats unacknowledged
// ones, and the one-shot postponed deliveries.
package scheduler

import (
	"context"

	"vitaminbot/db"
)

// Store is the slice of the database the scheduler passes need.
type Store interface {
	ListActiveVitamins(ctx context.Context, usr int64) ([]db.Vitamin, error)
	UpsertActiveReminder(ctx context.Context, vitaminID, usr int64) (created bool, err error)
	ListActiveReminders(ctx context.Context, usr int64) ([]db.ActiveReminder, error)
	BumpAttempt(ctx context.Context, reminderID int64) error
}

// Notifier delivers reminders to the user. A delivery failure concerns that
// one recipient only; the scheduler logs it and moves on.
type Notifier interface {
	SendReminder(usr int64, vitaminID int64, name, remindAt string) error
	SendEscalation(usr int64, vitaminID int64, name string, attempt, maxAttempts int) error
}
