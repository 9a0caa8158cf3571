// Package store persists experiment summaries in SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"xfactorlab/internal/experiment"
	"xfactorlab/internal/store/migrations"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Record is one stored (support, build) result.
type Record struct {
	ID        int64
	CreatedAt time.Time
	Profile   string
	Support   string
	Build     string
	Runs      int
	Seed      int64
	Turns     int
	Mean      float64
	StdDev    float64
	StdErr    float64
	P50       float64
	P90       float64
	Uplift    float64
}

// Records flattens a comparison table, one record per cell.
func Records(t experiment.Table, at time.Time) []Record {
	var out []Record
	for _, row := range t.Rows {
		for _, c := range row.Cells {
			s := c.Summary
			out = append(out, Record{
				CreatedAt: at,
				Profile:   s.Profile,
				Support:   s.Support,
				Build:     s.Build,
				Runs:      s.Runs,
				Seed:      s.Seed,
				Turns:     s.Turns,
				Mean:      s.Stats.Mean,
				StdDev:    s.Stats.StdDev,
				StdErr:    s.Stats.StdErr,
				P50:       s.Stats.P50,
				P90:       s.Stats.P90,
				Uplift:    c.Uplift,
			})
		}
	}
	return out
}

type Store struct {
	sqlDB  *sql.DB
	driver string
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

func migrate(ctx context.Context, sqlDB *sql.DB, driver string) error {
	dialect, dir := "sqlite3", "sqlite"
	if driver == DriverPostgres {
		dialect, dir = "postgres", "postgres"
	}
	migrateMu.Lock()
	defer migrateMu.Unlock()
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Open connects to dsn with driver ("sqlite" or "pgx") and applies the
// embedded migrations.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("store dsn is required")
	}
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if err := migrate(ctx, sqlDB, driver); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Store{sqlDB: sqlDB, driver: driver}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save inserts records in one transaction. A zero CreatedAt is stamped with
// the current time.
func (s *Store) Save(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(records) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO experiments (
		   created_at, profile, support, build, runs, seed, turns,
		   mean, stddev, stderr, p50, p90, uplift
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range records {
		at := r.CreatedAt
		if at.IsZero() {
			at = now
		}
		if _, err := stmt.ExecContext(ctx,
			toMillis(at), r.Profile, r.Support, r.Build, r.Runs, r.Seed, r.Turns,
			r.Mean, r.StdDev, r.StdErr, r.P50, r.P90, r.Uplift,
		); err != nil {
			return fmt.Errorf("insert experiment %s/%s/%s: %w", r.Profile, r.Support, r.Build, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns the stored records of profile in insertion order. An empty
// profile lists everything.
func (s *Store) List(ctx context.Context, profile string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	query := `SELECT id, created_at, profile, support, build, runs, seed, turns,
	                 mean, stddev, stderr, p50, p90, uplift
	            FROM experiments`
	var args []any
	if profile = strings.TrimSpace(profile); profile != "" {
		query += ` WHERE profile = ?`
		args = append(args, profile)
	}
	query += ` ORDER BY id`

	rows, err := s.sqlDB.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var createdAt int64
		if err := rows.Scan(
			&r.ID, &createdAt, &r.Profile, &r.Support, &r.Build, &r.Runs, &r.Seed, &r.Turns,
			&r.Mean, &r.StdDev, &r.StdErr, &r.P50, &r.P90, &r.Uplift,
		); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		r.CreatedAt = fromMillis(createdAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experiments: %w", err)
	}
	return out, nil
}
