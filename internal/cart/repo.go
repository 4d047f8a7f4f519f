package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo keeps one JSONB snapshot per session in the carts table.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Load(ctx context.Context, sessionID string) ([]Line, error) {
	var raw []byte
	err := r.DB.QueryRow(ctx, `SELECT lines FROM carts WHERE session_id=$1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []Line{}, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *Repo) Save(ctx context.Context, sessionID string, lines []Line) error {
	if len(lines) == 0 {
		_, err := r.DB.Exec(ctx, `DELETE FROM carts WHERE session_id=$1`, sessionID)
		return err
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO carts(session_id, lines, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (session_id) DO UPDATE SET lines = EXCLUDED.lines, updated_at = now()
	`, sessionID, string(b))
	return err
}

// Purge drops carts untouched for longer than olderThan.
func (r *Repo) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	ct, err := r.DB.Exec(ctx, `DELETE FROM carts WHERE updated_at < now() - $1::interval`, olderThan)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
