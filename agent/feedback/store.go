// Package feedback persists user feedback as an append-only log used by
// the offline reinforcement pass. It sits outside the synchronous
// request path; records are never updated or deleted.
package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

type Config struct {
	// DSN selects the backend: a postgres:// URL uses the Postgres
	// driver, anything else is treated as an embedded sqlite path.
	DSN string `envconfig:"DSN" split_words:"true" default:"file:lenox.db?_pragma=busy_timeout(5000)"`
}

type record struct {
	bun.BaseModel `bun:"table:feedback,alias:f"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Query     string    `bun:"query,notnull"`
	Feedback  string    `bun:"feedback,notnull"`
	SessionID string    `bun:"session_id,notnull"`
	Timestamp time.Time `bun:"timestamp,notnull"`
}

// Store is the durable feedback log backed by bun. The database/sql
// pool serializes writers, so concurrent Record calls are safe.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(cfg Config, opts ...Option) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: feedback dsn is required", contractx.ErrValidation)
	}

	var db *bun.DB
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite feedback store: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	store := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// Init creates the feedback table if it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*record)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create feedback table: %w", err)
	}
	return nil
}

// Record appends one feedback entry and returns its id.
func (s *Store) Record(ctx context.Context, query string, label contractx.FeedbackLabel, sessionID string) (int64, error) {
	rec := &record{
		Query:     query,
		Feedback:  string(label),
		SessionID: sessionID,
		Timestamp: s.now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	return rec.ID, nil
}

// Recent returns records stored within the trailing window, oldest
// first. Consumers must tolerate seeing a record more than once; there
// is no offset tracking.
func (s *Store) Recent(ctx context.Context, since time.Duration) ([]contractx.FeedbackRecord, error) {
	cutoff := s.now().UTC().Add(-since)

	var recs []record
	if err := s.db.NewSelect().
		Model(&recs).
		Where("timestamp >= ?", cutoff).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("select recent feedback: %w", err)
	}

	out := make([]contractx.FeedbackRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, contractx.FeedbackRecord{
			ID:        rec.ID,
			Query:     rec.Query,
			Feedback:  contractx.ParseFeedbackLabel(rec.Feedback),
			SessionID: rec.SessionID,
			Timestamp: rec.Timestamp,
		})
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
