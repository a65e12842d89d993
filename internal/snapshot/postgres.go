package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore upserts snapshots into token_snapshots.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type snapshotRow struct {
	Mint      string    `db:"mint"`
	Body      []byte    `db:"body"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *PostgresStore) Load(ctx context.Context, mint string) (*Snapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, `SELECT mint, body, updated_at FROM token_snapshots WHERE mint = $1`, mint)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(row.Body, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", mint, err)
	}
	return &snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, snap *Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO token_snapshots (mint, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (mint) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		snap.Mint, body)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Mints lists stored mints, most recently updated first.
func (s *PostgresStore) Mints(ctx context.Context) ([]string, error) {
	var mints []string
	if err := s.db.SelectContext(ctx, &mints, `SELECT mint FROM token_snapshots ORDER BY updated_at DESC`); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return mints, nil
}
