package scheduler

import (
	"context"
	"testing"
	"time"

	"vitaminbot/db"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEscalator(s Store, n Notifier, prefs *Prefs, users []int64, at time.Time) *Escalator {
	e := NewEscalator(s, n, prefs, users, 5*time.Minute, 30*time.Minute, 3, time.UTC, zap.NewNop().Sugar())
	fake := clock.NewFake()
	fake.Set(at)
	e.clk = fake
	return e
}

func TestEscalatorBumpsStaleReminder(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	store := newFakeStore()
	store.reminders[42] = []db.ActiveReminder{
		{ID: 5, VitaminID: 1, UserID: 42, VitaminName: "Vitamin D", LastReminder: now.Add(-30 * time.Minute), Attempts: 0},
	}
	notifier := newFakeNotifier()

	e := newTestEscalator(store, notifier, NewPrefs(true), []int64{42}, now)
	e.checkOnce(context.Background())

	require.Equal(t, []int64{5}, store.bumps)
	require.Len(t, notifier.escalations, 1)
	assert.Equal(t, sentEscalation{usr: 42, vitaminID: 1, name: "Vitamin D", attempt: 1, maxAttempts: 3}, notifier.escalations[0])
}

func TestEscalatorLeavesCappedReminderAlone(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.reminders[42] = []db.ActiveReminder{
		{ID: 5, VitaminID: 1, UserID: 42, VitaminName: "Vitamin D", LastReminder: now.Add(-2 * time.Hour), Attempts: 3},
	}
	notifier := newFakeNotifier()

	e := newTestEscalator(store, notifier, NewPrefs(true), []int64{42}, now)
	e.checkOnce(context.Background())

	assert.Empty(t, store.bumps)
	assert.Empty(t, notifier.escalations)
}

func TestEscalatorRespectsRepeatInterval(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 20, 0, 0, time.UTC)
	store := newFakeStore()
	store.reminders[42] = []db.ActiveReminder{
		{ID: 5, VitaminID: 1, UserID: 42, VitaminName: "Vitamin D", LastReminder: now.Add(-20 * time.Minute), Attempts: 1},
	}
	notifier := newFakeNotifier()

	e := newTestEscalator(store, notifier, NewPrefs(true), []int64{42}, now)
	e.checkOnce(context.Background())

	assert.Empty(t, store.bumps)
	assert.Empty(t, notifier.escalations)
}

func TestEscalatorSkipsUsersWithEscalationOff(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	stale := db.ActiveReminder{ID: 5, VitaminID: 1, VitaminName: "Vitamin D", LastReminder: now.Add(-2 * time.Hour)}
	stale.UserID = 1
	store.reminders[1] = []db.ActiveReminder{stale}
	other := stale
	other.ID, other.UserID = 6, 2
	store.reminders[2] = []db.ActiveReminder{other}
	notifier := newFakeNotifier()

	prefs := NewPrefs(true)
	prefs.Toggle(1) // user 1 switched repeats off

	e := newTestEscalator(store, notifier, prefs, []int64{1, 2}, now)
	e.checkOnce(context.Background())

	require.Equal(t, []int64{6}, store.bumps)
	require.Len(t, notifier.escalations, 1)
	assert.Equal(t, int64(2), notifier.escalations[0].usr)
}

func TestEscalatorCountsAttemptsUpToTheCap(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	store := newFakeStore()
	store.reminders[42] = []db.ActiveReminder{
		{ID: 5, VitaminID: 1, UserID: 42, VitaminName: "Vitamin D", LastReminder: now.Add(-time.Hour), Attempts: 2},
	}
	notifier := newFakeNotifier()

	e := newTestEscalator(store, notifier, NewPrefs(true), []int64{42}, now)
	e.checkOnce(context.Background())

	require.Len(t, notifier.escalations, 1)
	assert.Equal(t, 3, notifier.escalations[0].attempt)
	assert.Equal(t, 3, notifier.escalations[0].maxAttempts)
}
