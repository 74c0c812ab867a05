package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adwork/internal/domain"
)

// GenerationRepositoryPG implements domain.GenerationRepository backed by
// PostgreSQL.
type GenerationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository creates a new generation repository backed by PostgreSQL.
func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{pool: pool}
}

const generationColumns = `id, user_id, prompt, brand_name, duration, style, aspect_ratio, status, progress, video_url, thumbnail_url, product_image_url, model_image_url, media_asset_id, error_message, created_at, updated_at`

// Create inserts a new generation record.
func (r *GenerationRepositoryPG) Create(ctx context.Context, gen *domain.Generation) error {
	query := `
INSERT INTO generations (id, user_id, prompt, brand_name, duration, style, aspect_ratio, status, progress)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		gen.ID,
		gen.UserID,
		gen.Prompt,
		gen.BrandName,
		gen.Duration,
		gen.Style,
		gen.AspectRatio,
		gen.Status,
		gen.Progress,
	)
	return err
}

// FindByID fetches a generation by its identifier.
func (r *GenerationRepositoryPG) FindByID(ctx context.Context, id string) (*domain.Generation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+generationColumns+` FROM generations WHERE id = $1`, id)
	return scanGeneration(row)
}

// FindByUser pages through the user's generations, newest first, and returns
// the total count alongside the page.
func (r *GenerationRepositoryPG) FindByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Generation, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM generations WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
SELECT ` + generationColumns + `
FROM generations
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.pool.Query(ctx, query, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []domain.Generation{}
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *gen)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateStatus applies a partial update; nil fields keep their stored value.
func (r *GenerationRepositoryPG) UpdateStatus(ctx context.Context, id string, update domain.GenerationUpdate) (*domain.Generation, error) {
	query := `
UPDATE generations
SET status = $2,
    updated_at = NOW(),
    progress = COALESCE($3, progress),
    video_url = COALESCE($4, video_url),
    thumbnail_url = COALESCE($5, thumbnail_url),
    product_image_url = COALESCE($6, product_image_url),
    model_image_url = COALESCE($7, model_image_url),
    media_asset_id = COALESCE($8, media_asset_id),
    error_message = COALESCE($9, error_message)
WHERE id = $1
RETURNING ` + generationColumns + `;
`
	row := r.pool.QueryRow(ctx, query, id,
		update.Status,
		update.Progress,
		update.VideoURL,
		update.ThumbnailURL,
		update.ProductImageURL,
		update.ModelImageURL,
		update.MediaAssetID,
		update.ErrorMessage,
	)
	return scanGeneration(row)
}

// Delete removes a generation and reports whether a row existed.
func (r *GenerationRepositoryPG) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM generations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanGeneration(row pgx.Row) (*domain.Generation, error) {
	var g domain.Generation
	if err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.Prompt,
		&g.BrandName,
		&g.Duration,
		&g.Style,
		&g.AspectRatio,
		&g.Status,
		&g.Progress,
		&g.VideoURL,
		&g.ThumbnailURL,
		&g.ProductImageURL,
		&g.ModelImageURL,
		&g.MediaAssetID,
		&g.ErrorMessage,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
