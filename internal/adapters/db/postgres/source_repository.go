package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postforge/internal/domain/content"
)

// SourceRepository is a Postgres implementation of content.SourceRepository
type SourceRepository struct {
	db *sql.DB
}

// NewSourceRepository constructs a SourceRepository
func NewSourceRepository(db *sql.DB) *SourceRepository { return &SourceRepository{db: db} }

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row scanner) (*content.Source, error) {
	var s content.Source
	var url sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &url, &s.Kind, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if url.Valid {
		s.URL = url.String
	}
	return &s, nil
}

func (r *SourceRepository) CreateSource(ctx context.Context, source *content.Source) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sources (id,user_id,name,url,kind,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		source.ID, source.UserID, source.Name, source.URL, source.Kind, source.CreatedAt, source.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}
	return nil
}

func (r *SourceRepository) GetSource(ctx context.Context, userID, sourceID string) (*content.Source, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id,user_id,name,url,kind,created_at,updated_at FROM sources WHERE id=$1 AND user_id=$2`,
		sourceID, userID)
	s, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, content.ErrSourceNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *SourceRepository) ListSources(ctx context.Context, userID string) ([]*content.Source, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,user_id,name,url,kind,created_at,updated_at FROM sources WHERE user_id=$1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []*content.Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (r *SourceRepository) DeleteSource(ctx context.Context, userID, sourceID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id=$1 AND user_id=$2`, sourceID, userID)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrSourceNotFound
	}
	return nil
}
