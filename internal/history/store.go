// Package history persists the recent-generations record shown in the UI.
// Only the completion path writes here; the queue manager never does.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"studio/internal/dispatch"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// ErrNotFound indicates the generation id has no history record.
var ErrNotFound = errors.New("history: generation not found")

// RetainedGenerations caps how many records Prune keeps.
const RetainedGenerations = 50

// Record is one generation's provenance row.
type Record struct {
	ID           string           `json:"id"`
	ModelID      string           `json:"model_id"`
	ModelType    string           `json:"model_type"`
	Prompt       string           `json:"prompt"`
	Status       string           `json:"status"`
	PredictionID string           `json:"prediction_id,omitempty"`
	Assets       []dispatch.Asset `json:"assets"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// Store reads and writes generation history rows.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Insert records a freshly admitted generation.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	_, err := s.sql.Exec(ctx, sqlinline.QInsertGeneration,
		rec.ID,
		rec.ModelID,
		rec.ModelType,
		rec.Prompt,
		rec.Status,
		rec.PredictionID,
	)
	return err
}

// UpdateStatus moves a record through its lifecycle. Assets and error are
// optional; nil assets leave the stored list untouched.
func (s *Store) UpdateStatus(ctx context.Context, id, status, predictionID string, assets []dispatch.Asset, errMsg string) error {
	var assetJSON []byte
	if assets != nil {
		encoded, err := json.Marshal(assets)
		if err != nil {
			return err
		}
		assetJSON = encoded
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpdateGenerationStatus, id, status, predictionID, assetJSON, errMsg)
	return err
}

// Get returns one record by generation id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectGeneration, id)
	rec, err := scanRecord(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Recent lists up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > RetainedGenerations {
		limit = RetainedGenerations
	}
	rows, err := s.sql.Query(ctx, sqlinline.QSelectRecentGenerations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Prune drops everything beyond the retention window.
func (s *Store) Prune(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteOldGenerations, RetainedGenerations)
	return err
}

// FailStale marks generations stuck in a non-terminal status for longer than
// maxAge as failed. Returns the number of affected rows.
func (s *Store) FailStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := s.sql.Exec(ctx, sqlinline.QFailStaleGenerations, maxAge.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var assets []byte
	if err := row.Scan(
		&rec.ID,
		&rec.ModelID,
		&rec.ModelType,
		&rec.Prompt,
		&rec.Status,
		&rec.PredictionID,
		&assets,
		&rec.Error,
		&rec.CreatedAt,
		&rec.CompletedAt,
	); err != nil {
		return nil, err
	}
	if len(assets) > 0 {
		if err := json.Unmarshal(assets, &rec.Assets); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}
