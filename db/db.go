package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
)

// PgxIface is the slice of pgxpool.Pool the store needs. pgxmock implements
// it too, so tests run without a live database.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var initQueries = []string{
	`CREATE TABLE IF NOT EXISTS vitamins (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL,
	name       TEXT NOT NULL,
	remind_at  TEXT NOT NULL,
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS intake_logs (
	id         BIGSERIAL PRIMARY KEY,
	vitamin_id BIGINT,
	user_id    BIGINT NOT NULL,
	taken_at   TIMESTAMPTZ NOT NULL,
	status     TEXT NOT NULL DEFAULT 'taken'
)`,
	`CREATE TABLE IF NOT EXISTS active_reminders (
	id            BIGSERIAL PRIMARY KEY,
	vitamin_id    BIGINT NOT NULL,
	user_id       BIGINT NOT NULL,
	reminder_date DATE NOT NULL,
	last_reminder TIMESTAMPTZ NOT NULL,
	attempts      INTEGER NOT NULL DEFAULT 0,
	UNIQUE (vitamin_id, user_id, reminder_date)
)`,
}

// Database is the store for vitamins, intake history and in-flight
// reminders. All dates and "now" stamps are taken from clk in loc, never
// from the server's local zone.
type Database struct {
	pool PgxIface
	clk  clock.Clock
	loc  *time.Location
}

// Init connects to the database, makes sure the schema exists and returns
// the store.
// The connection string should look like postgresql://localhost:5432/vitamins?user=admn&password=passwd
func Init(ctx context.Context, connStr string, loc *time.Location) (*Database, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, errors.Wrap(err, "failed opening database")
	}

	if err = pool.Ping(ctx); err != nil {
		return nil, errors.Wrap(err, "failed pinging database")
	}

	d := &Database{pool: pool, clk: clock.New(), loc: loc}
	if err = d.createTables(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Database) createTables(ctx context.Context) error {
	for _, q := range initQueries {
		if _, err := d.pool.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "failed creating tables")
		}
	}
	return nil
}

func (d *Database) Close() {
	d.pool.Close()
}

func (d *Database) now() time.Time {
	return d.clk.Now().In(d.loc)
}

// today returns midnight of the current day in the configured zone. It is
// the value stored in and matched against reminder_date.
func (d *Database) today() time.Time {
	n := d.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, d.loc)
}
