package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"ringba-rpc-monitor/models"

	"github.com/rs/zerolog"

	_ "github.com/lib/pq"
)

// PostgresStore keeps snapshots in a single table keyed by time_slot, with
// the target rows serialized as JSONB.
type PostgresStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPostgresStore opens and pings the database.
func NewPostgresStore(connStr string, log zerolog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	log.Info().Msg("connected to PostgreSQL")
	return &PostgresStore{db: db, log: log}, nil
}

// CreateTable creates the snapshot table if it doesn't exist.
func (s *PostgresStore) CreateTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS ringba_reports (
		time_slot   VARCHAR(20) PRIMARY KEY,
		captured_at TIMESTAMPTZ NOT NULL,
		targets     JSONB       NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	s.log.Info().Msg("table 'ringba_reports' is ready")
	return nil
}

// Put upserts the snapshot for its time slot, last write wins.
func (s *PostgresStore) Put(ctx context.Context, snap models.Snapshot) error {
	targets, err := json.Marshal(snap.Targets)
	if err != nil {
		return fmt.Errorf("marshal targets: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ringba_reports (time_slot, captured_at, targets)
		VALUES ($1, $2, $3)
		ON CONFLICT (time_slot) DO UPDATE
		SET captured_at = EXCLUDED.captured_at, targets = EXCLUDED.targets
	`, snap.TimeSlot, snap.CapturedAt, targets)
	if err != nil {
		return fmt.Errorf("upsert snapshot %q: %w", snap.TimeSlot, err)
	}

	s.log.Info().Str("time_slot", snap.TimeSlot).Int("targets", len(snap.Targets)).
		Msg("saved snapshot")
	return nil
}

// Get fetches the snapshot for a slot, if any.
func (s *PostgresStore) Get(ctx context.Context, timeSlot string) (models.Snapshot, bool, error) {
	var snap models.Snapshot
	var raw []byte

	row := s.db.QueryRowContext(ctx, `
		SELECT time_slot, captured_at, targets FROM ringba_reports WHERE time_slot = $1
	`, timeSlot)
	if err := row.Scan(&snap.TimeSlot, &snap.CapturedAt, &raw); err != nil {
		if err == sql.ErrNoRows {
			return models.Snapshot{}, false, nil
		}
		return models.Snapshot{}, false, fmt.Errorf("query snapshot %q: %w", timeSlot, err)
	}

	if err := json.Unmarshal(raw, &snap.Targets); err != nil {
		return models.Snapshot{}, false, fmt.Errorf("unmarshal targets for %q: %w", timeSlot, err)
	}
	return snap, true, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
