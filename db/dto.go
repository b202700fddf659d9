package db

import "time"

// Intake statuses. Only StatusTaken clears the day's active reminder.
const (
	StatusTaken   = "taken"
	StatusSkipped = "skipped"
)

// Vitamin is a user's tracked daily intake with its reminder time.
type Vitamin struct {
	ID       int64
	UserID   int64
	Name     string
	RemindAt string // reminder time as "HH:MM"
	Active   bool
	Created  time.Time
}

// IntakeLog is an append-only record of a single intake event. VitaminID is
// kept nullable in the schema so history survives vitamin deactivation.
type IntakeLog struct {
	ID        int64
	VitaminID int64
	UserID    int64
	TakenAt   time.Time
	Status    string
}

// ActiveReminder is the in-flight escalation state for one vitamin on one
// calendar day. At most one row exists per (vitamin, user, date).
type ActiveReminder struct {
	ID           int64
	VitaminID    int64
	UserID       int64
	VitaminName  string // joined from vitamins
	Date         time.Time
	LastReminder time.Time
	Attempts     int
}
