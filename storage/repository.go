package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"newsbrief/shared/logger"
	"newsbrief/types"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	DefaultMaxOpenConns    = 5
	DefaultMaxIdleConns    = 2
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultPingTimeout     = 5 * time.Second

	// MaxListedDates caps ListAvailableDates.
	MaxListedDates = 30

	pqUndefinedTable = "42P01"
)

// ErrRelationNotFound reports that the briefings table does not exist yet.
var ErrRelationNotFound = errors.New("relation not found")

// SchemaSQL creates the durable layout. It is safe to run repeatedly.
const SchemaSQL = `CREATE TABLE IF NOT EXISTS briefings (
	date_key     TEXT PRIMARY KEY,
	display_date DATE NOT NULL,
	content      JSON NOT NULL,
	created_at   TIMESTAMP DEFAULT NOW()
)`

// Durable is the relational tier used by Store.
type Durable interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, dateKey string, displayDate time.Time, items []types.BriefingItem) error
	// Latest returns nil without error when the table is empty.
	Latest(ctx context.Context) (*types.BriefingRecord, error)
	ByDisplayDate(ctx context.Context, displayDate time.Time) ([]types.BriefingRecord, error)
	DisplayDates(ctx context.Context, limit int) ([]time.Time, error)
}

// Open builds a Postgres pool without connecting. The database may be down
// at boot; every query dials on demand, so the handle recovers by itself.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	return db, nil
}

// Ping checks reachability with DefaultPingTimeout.
func Ping(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Repository is the Postgres implementation of Durable.
type Repository struct {
	db  *sqlx.DB
	log logger.Logger
}

// NewRepository wraps db. log may be nil.
func NewRepository(db *sqlx.DB, log logger.Logger) *Repository {
	if log == nil {
		log = logger.NewNop()
	}
	return &Repository{db: db, log: log}
}

type briefingRow struct {
	DateKey     string    `db:"date_key"`
	DisplayDate time.Time `db:"display_date"`
	Content     []byte    `db:"content"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row briefingRow) record() (types.BriefingRecord, error) {
	rec := types.BriefingRecord{
		DateKey:     row.DateKey,
		DisplayDate: row.DisplayDate,
		CreatedAt:   row.CreatedAt,
	}
	if err := json.Unmarshal(row.Content, &rec.Content); err != nil {
		return rec, fmt.Errorf("decode content of %s: %w", row.DateKey, err)
	}
	if rec.Content == nil {
		rec.Content = []types.BriefingItem{}
	}
	return rec, nil
}

// mapErr turns the undefined_table SQLSTATE into ErrRelationNotFound.
func mapErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable {
		return fmt.Errorf("%s: %w: %s", op, ErrRelationNotFound, pqErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *Repository) Upsert(ctx context.Context, dateKey string, displayDate time.Time, items []types.BriefingItem) error {
	if items == nil {
		items = []types.BriefingItem{}
	}
	content, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}

	query := `
		INSERT INTO briefings (date_key, display_date, content, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (date_key) DO UPDATE SET
			display_date = EXCLUDED.display_date,
			content = EXCLUDED.content,
			created_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, dateKey, displayDate.Format(types.DisplayDateLayout), content); err != nil {
		return mapErr("upsert briefing", err)
	}
	return nil
}

func (r *Repository) Latest(ctx context.Context) (*types.BriefingRecord, error) {
	var row briefingRow
	query := `SELECT date_key, display_date, content, created_at FROM briefings ORDER BY created_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapErr("latest briefing", err)
	}
	rec, err := row.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) ByDisplayDate(ctx context.Context, displayDate time.Time) ([]types.BriefingRecord, error) {
	var rows []briefingRow
	query := `
		SELECT date_key, display_date, content, created_at
		FROM briefings
		WHERE display_date = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query, displayDate.Format(types.DisplayDateLayout)); err != nil {
		return nil, mapErr("briefings by date", err)
	}

	out := make([]types.BriefingRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			r.log.Warn("Skipping undecodable briefing record",
				logger.String("date_key", row.DateKey), logger.Err(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repository) DisplayDates(ctx context.Context, limit int) ([]time.Time, error) {
	var dates []time.Time
	query := `SELECT DISTINCT display_date FROM briefings ORDER BY display_date DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &dates, query, limit); err != nil {
		return nil, mapErr("display dates", err)
	}
	return dates, nil
}
