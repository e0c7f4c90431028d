package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"postforge/internal/domain/content"
)

// PostRepository is a Postgres implementation of content.PostRepository.
// Embeddings are stored as float8[]; similarity search over them belongs to
// the datastore, not this adapter.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository constructs a PostRepository
func NewPostRepository(db *sql.DB) *PostRepository { return &PostRepository{db: db} }

func scanPost(row scanner) (*content.Post, error) {
	var p content.Post
	var sourceID sql.NullString
	var embedding []float64
	err := row.Scan(&p.ID, &p.UserID, &sourceID, &p.Body, pq.Array(&embedding), &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sourceID.Valid {
		p.SourceID = sourceID.String
	}
	p.Embedding = toFloat32(embedding)
	return &p, nil
}

func toFloat32(values []float64) []float32 {
	if values == nil {
		return nil
	}
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func (r *PostRepository) CreatePost(ctx context.Context, post *content.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id,user_id,source_id,body,embedding,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		post.ID, post.UserID, nullString(post.SourceID), post.Body, pq.Array(toFloat64(post.Embedding)), post.CreatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostRepository) GetPost(ctx context.Context, userID, postID string) (*content.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id,user_id,source_id,body,embedding,created_at FROM posts WHERE id=$1 AND user_id=$2`,
		postID, userID)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, content.ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) ListPosts(ctx context.Context, userID string) ([]*content.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,user_id,source_id,body,embedding,created_at FROM posts WHERE user_id=$1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []*content.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) DeletePost(ctx context.Context, userID, postID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id=$1 AND user_id=$2`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrPostNotFound
	}
	return nil
}
