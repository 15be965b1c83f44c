// Package postgres keeps the simulated day run log in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kilianp07/fleetsizer/core/factory"
	"github.com/kilianp07/fleetsizer/core/runlog"
	"github.com/kilianp07/fleetsizer/core/simulation"
)

const schema = `CREATE TABLE IF NOT EXISTS simulated_days (
	id                 uuid PRIMARY KEY,
	recorded_at        timestamptz NOT NULL,
	run_id             text NOT NULL,
	characteristic_day integer NOT NULL,
	occurrence         integer NOT NULL,
	day_type           text NOT NULL,
	visits             integer NOT NULL,
	solved             boolean NOT NULL,
	not_visited        integer NOT NULL,
	used_vehicles      integer NOT NULL,
	cost               bigint NOT NULL,
	elapsed_ms         bigint NOT NULL
);
CREATE INDEX IF NOT EXISTS simulated_days_run_idx ON simulated_days (run_id, recorded_at);`

const columns = `recorded_at, run_id, characteristic_day, occurrence, day_type, visits, solved, not_visited, used_vehicles, cost, elapsed_ms`

// Store implements runlog.Store on a simulated_days table.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and creates the table when missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("verify postgres connection: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Append(ctx context.Context, rec runlog.Record) error {
	d := rec.Day
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO simulated_days (id, `+columns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		uuid.New(), rec.Timestamp, rec.RunID, d.CharacteristicDay, d.Occurrence, d.DayType.String(),
		d.Visits, d.Solved, d.NotVisitedClientsCount, d.UsedVehicles, d.Cost, d.ElapsedMS)
	return err
}

func (s *Store) Query(ctx context.Context, q runlog.Query) ([]runlog.Record, error) {
	query, args := buildQuery(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []runlog.Record
	for rows.Next() {
		var r runlog.Record
		var dayType string
		d := &r.Day
		if err := rows.Scan(&r.Timestamp, &r.RunID, &d.CharacteristicDay, &d.Occurrence, &dayType,
			&d.Visits, &d.Solved, &d.NotVisitedClientsCount, &d.UsedVehicles, &d.Cost, &d.ElapsedMS); err != nil {
			return nil, err
		}
		if d.DayType, err = simulation.ParseDayType(dayType); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

func buildQuery(q runlog.Query) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if !q.Start.IsZero() {
		add("recorded_at >= $%d", q.Start)
	}
	if !q.End.IsZero() {
		add("recorded_at <= $%d", q.End)
	}
	if q.RunID != "" {
		add("run_id = $%d", q.RunID)
	}
	if q.DayType != "" {
		add("day_type = $%d", q.DayType)
	}
	if q.FailedOnly {
		where = append(where, "NOT solved")
	}
	query := "SELECT " + columns + " FROM simulated_days"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY recorded_at, characteristic_day, occurrence", args
}

func init() {
	_ = runlog.RegisterStore("postgres", func(conf map[string]any) (runlog.Store, error) {
		var c struct {
			DSN string `json:"dsn"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.DSN == "" {
			return nil, errors.New("postgres run log needs a dsn")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return Open(ctx, c.DSN)
	})
}
