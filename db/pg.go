package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// AddVitamin inserts a new vitamin and returns its ID.
func (d *Database) AddVitamin(ctx context.Context, usr int64, name, remindAt string) (int64, error) {
	var id int64
	err := d.pool.QueryRow(ctx, `INSERT INTO vitamins(user_id, name, remind_at, created_at)
VALUES($1, $2, $3, $4) RETURNING id`, usr, name, remindAt, d.now()).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "failed adding vitamin")
	}
	return id, nil
}

// ListActiveVitamins returns the user's vitamins that have not been deleted.
func (d *Database) ListActiveVitamins(ctx context.Context, usr int64) ([]Vitamin, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, user_id, name, remind_at, is_active, created_at
FROM vitamins
WHERE user_id=$1 AND is_active=TRUE
ORDER BY id ASC`, usr)
	if err != nil {
		return nil, errors.Wrap(err, "failed querying vitamins")
	}
	defer rows.Close()

	var vitamins []Vitamin
	for rows.Next() {
		var v Vitamin
		if err := rows.Scan(&v.ID, &v.UserID, &v.Name, &v.RemindAt, &v.Active, &v.Created); err != nil {
			return nil, errors.Wrap(err, "failed scanning vitamin")
		}
		vitamins = append(vitamins, v)
	}

	return vitamins, rows.Err()
}

// GetVitamin returns the user's active vitamin or nil when there's no such
// vitamin.
func (d *Database) GetVitamin(ctx context.Context, id, usr int64) (*Vitamin, error) {
	var v Vitamin
	err := d.pool.QueryRow(ctx, `SELECT id, user_id, name, remind_at, is_active, created_at
FROM vitamins
WHERE id=$1 AND user_id=$2 AND is_active=TRUE`, id, usr).
		Scan(&v.ID, &v.UserID, &v.Name, &v.RemindAt, &v.Active, &v.Created)

	switch {
	case err == pgx.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "failed fetching vitamin")
	}

	return &v, nil
}

// DeactivateVitamin soft-deletes the vitamin so intake history stays
// queryable. Deleting a vitamin that doesn't exist is a no-op.
func (d *Database) DeactivateVitamin(ctx context.Context, id, usr int64) error {
	if _, err := d.pool.Exec(ctx, `UPDATE vitamins SET is_active=FALSE
WHERE id=$1 AND user_id=$2`, id, usr); err != nil {
		return errors.Wrap(err, "failed deactivating vitamin")
	}
	return nil
}

// RecordIntake appends an intake log entry. When the status is StatusTaken
// it also clears today's active reminder in the same transaction, so
// escalation can't fire in between.
func (d *Database) RecordIntake(ctx context.Context, vitaminID, usr int64, status string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `INSERT INTO intake_logs(vitamin_id, user_id, taken_at, status)
VALUES($1, $2, $3, $4)`, vitaminID, usr, d.now(), status); err != nil {
		return errors.Wrap(err, "failed logging intake")
	}

	if status == StatusTaken {
		if _, err = tx.Exec(ctx, `DELETE FROM active_reminders
WHERE vitamin_id=$1 AND user_id=$2 AND reminder_date=$3`, vitaminID, usr, d.today()); err != nil {
			return errors.Wrap(err, "failed clearing active reminder")
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	return nil
}

// UpsertActiveReminder creates the reminder row for (vitamin, user, today)
// unless one already exists. It reports whether a new row was created, which
// is what decides if the first notification of the day goes out.
func (d *Database) UpsertActiveReminder(ctx context.Context, vitaminID, usr int64) (bool, error) {
	tag, err := d.pool.Exec(ctx, `INSERT INTO active_reminders(vitamin_id, user_id, reminder_date, last_reminder)
VALUES($1, $2, $3, $4)
ON CONFLICT (vitamin_id, user_id, reminder_date) DO NOTHING`, vitaminID, usr, d.today(), d.now())
	if err != nil {
		return false, errors.Wrap(err, "failed upserting active reminder")
	}
	return tag.RowsAffected() == 1, nil
}

// ListActiveReminders returns today's in-flight reminders of the user along
// with vitamin names. Rows from previous days are left behind by the date
// filter and never touched again.
func (d *Database) ListActiveReminders(ctx context.Context, usr int64) ([]ActiveReminder, error) {
	rows, err := d.pool.Query(ctx, `SELECT ar.id, ar.vitamin_id, ar.user_id, v.name, ar.reminder_date, ar.last_reminder, ar.attempts
FROM active_reminders ar
JOIN vitamins v ON ar.vitamin_id = v.id
WHERE ar.user_id=$1 AND ar.reminder_date=$2
ORDER BY ar.id ASC`, usr, d.today())
	if err != nil {
		return nil, errors.Wrap(err, "failed querying active reminders")
	}
	defer rows.Close()

	var reminders []ActiveReminder
	for rows.Next() {
		var r ActiveReminder
		if err := rows.Scan(&r.ID, &r.VitaminID, &r.UserID, &r.VitaminName, &r.Date, &r.LastReminder, &r.Attempts); err != nil {
			return nil, errors.Wrap(err, "failed scanning active reminder")
		}
		reminders = append(reminders, r)
	}

	return reminders, rows.Err()
}

// BumpAttempt increments the attempt counter and refreshes the last
// notification stamp of the reminder.
func (d *Database) BumpAttempt(ctx context.Context, reminderID int64) error {
	if _, err := d.pool.Exec(ctx, `UPDATE active_reminders
SET attempts=attempts+1, last_reminder=$1
WHERE id=$2`, d.now(), reminderID); err != nil {
		return errors.Wrap(err, "failed bumping attempt")
	}
	return nil
}

// IntakeStats returns the user's intake counts grouped by status.
func (d *Database) IntakeStats(ctx context.Context, usr int64) (map[string]int, error) {
	rows, err := d.pool.Query(ctx, `SELECT status, COUNT(*) FROM intake_logs
WHERE user_id=$1 GROUP BY status`, usr)
	if err != nil {
		return nil, errors.Wrap(err, "failed querying intake stats")
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.Wrap(err, "failed scanning intake stats")
		}
		stats[status] = count
	}

	return stats, rows.Err()
}
