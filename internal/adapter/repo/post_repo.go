package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adwork/internal/domain"
)

// PostRepositoryPG implements domain.PostRepository backed by PostgreSQL.
// Likes live in a text[] column; toggling rewrites the array in one statement.
type PostRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPostRepository creates a new PostRepositoryPG.
func NewPostRepository(pool *pgxpool.Pool) *PostRepositoryPG {
	return &PostRepositoryPG{pool: pool}
}

const postColumns = `id, user_id, author_name, author_avatar, title, description, media_url, media_asset_id, media_type, link, likes, created_at`

// Create inserts a new community post.
func (r *PostRepositoryPG) Create(ctx context.Context, post *domain.Post) error {
	query := `
INSERT INTO posts (id, user_id, author_name, author_avatar, title, description, media_url, media_asset_id, media_type, link, likes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`
	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.UserID,
		post.AuthorName,
		post.AuthorAvatar,
		post.Title,
		post.Description,
		post.MediaURL,
		post.MediaAssetID,
		post.MediaType,
		post.Link,
		post.Likes,
	)
	return err
}

// GetByID fetches a post by its identifier.
func (r *PostRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return scanPost(row)
}

// List pages through the feed, newest first, with the total count.
func (r *PostRepositoryPG) List(ctx context.Context, page, pageSize int) ([]domain.Post, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
SELECT ` + postColumns + `
FROM posts
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;
`
	rows, err := r.pool.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByUser returns the user's posts, newest first.
func (r *PostRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+postColumns+`
FROM posts
WHERE user_id = $1
ORDER BY created_at DESC, id DESC;
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ToggleLike adds or removes the user's like atomically and returns the new
// state and count.
func (r *PostRepositoryPG) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	query := `
UPDATE posts
SET likes = CASE
    WHEN $2 = ANY(likes) THEN array_remove(likes, $2)
    ELSE array_append(likes, $2)
END
WHERE id = $1
RETURNING $2 = ANY(likes), cardinality(likes);
`
	var liked bool
	var count int
	if err := r.pool.QueryRow(ctx, query, postID, userID).Scan(&liked, &count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, domain.ErrNotFound
		}
		return false, 0, err
	}
	return liked, count, nil
}

// Delete removes a post and reports whether a row existed.
func (r *PostRepositoryPG) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func collectPosts(rows pgx.Rows) ([]domain.Post, error) {
	items := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.AuthorName,
		&p.AuthorAvatar,
		&p.Title,
		&p.Description,
		&p.MediaURL,
		&p.MediaAssetID,
		&p.MediaType,
		&p.Link,
		&p.Likes,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

var _ domain.PostRepository = (*PostRepositoryPG)(nil)
