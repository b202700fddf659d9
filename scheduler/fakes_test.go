package scheduler

import (
	"context"
	"sync"

	"vitaminbot/db"

	"github.com/pkg/errors"
)

type fakeStore struct {
	mu        sync.Mutex
	vitamins  map[int64][]db.Vitamin
	reminders map[int64][]db.ActiveReminder
	existing  map[int64]bool // vitamin ID -> reminder already raised today
	listErr   map[int64]error

	upserts []int64 // vitamin IDs passed to UpsertActiveReminder
	bumps   []int64 // reminder IDs passed to BumpAttempt
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vitamins:  make(map[int64][]db.Vitamin),
		reminders: make(map[int64][]db.ActiveReminder),
		existing:  make(map[int64]bool),
		listErr:   make(map[int64]error),
	}
}

func (s *fakeStore) ListActiveVitamins(_ context.Context, usr int64) ([]db.Vitamin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.listErr[usr]; err != nil {
		return nil, err
	}
	return s.vitamins[usr], nil
}

func (s *fakeStore) UpsertActiveReminder(_ context.Context, vitaminID, usr int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, vitaminID)
	if s.existing[vitaminID] {
		return false, nil
	}
	s.existing[vitaminID] = true
	return true, nil
}

func (s *fakeStore) ListActiveReminders(_ context.Context, usr int64) ([]db.ActiveReminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.listErr[usr]; err != nil {
		return nil, err
	}
	return s.reminders[usr], nil
}

func (s *fakeStore) BumpAttempt(_ context.Context, reminderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bumps = append(s.bumps, reminderID)
	return nil
}

type sentReminder struct {
	usr       int64
	vitaminID int64
	name      string
}

type sentEscalation struct {
	usr         int64
	vitaminID   int64
	name        string
	attempt     int
	maxAttempts int
}

type fakeNotifier struct {
	mu          sync.Mutex
	reminders   []sentReminder
	escalations []sentEscalation
	failFor     map[int64]bool // user IDs whose deliveries fail
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[int64]bool)}
}

func (n *fakeNotifier) SendReminder(usr int64, vitaminID int64, name, remindAt string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[usr] {
		return errors.New("delivery failed")
	}
	n.reminders = append(n.reminders, sentReminder{usr, vitaminID, name})
	return nil
}

func (n *fakeNotifier) SendEscalation(usr int64, vitaminID int64, name string, attempt, maxAttempts int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[usr] {
		return errors.New("delivery failed")
	}
	n.escalations = append(n.escalations, sentEscalation{usr, vitaminID, name, attempt, maxAttempts})
	return nil
}

func (n *fakeNotifier) reminderCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reminders)
}
