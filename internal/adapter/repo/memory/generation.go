package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"adwork/internal/domain"
)

// GenerationRepository keeps generation records in a process-local map. It
// backs development and tests; the Postgres implementation serves the same
// interface in production.
type GenerationRepository struct {
	mu    sync.Mutex
	items map[string]domain.Generation
}

// NewGenerationRepository constructs an empty in-memory store.
func NewGenerationRepository() *GenerationRepository {
	return &GenerationRepository{items: make(map[string]domain.Generation)}
}

// Create stores a copy of the record.
func (r *GenerationRepository) Create(ctx context.Context, gen *domain.Generation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[gen.ID] = cloneGeneration(*gen)
	return nil
}

// FindByID returns a copy of the record or domain.ErrNotFound.
func (r *GenerationRepository) FindByID(ctx context.Context, id string) (*domain.Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	gen, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneGeneration(gen)
	return &out, nil
}

// FindByUser lists the user's records newest first with the total count.
func (r *GenerationRepository) FindByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Generation, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	r.mu.Lock()
	var all []domain.Generation
	for _, gen := range r.items {
		if gen.UserID == userID {
			all = append(all, cloneGeneration(gen))
		}
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return []domain.Generation{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// UpdateStatus merges only the provided fields under the store lock, so a
// concurrent update can never interleave half of two writes, and always bumps
// UpdatedAt. Unknown ids report domain.ErrNotFound.
func (r *GenerationRepository) UpdateStatus(ctx context.Context, id string, update domain.GenerationUpdate) (*domain.Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	gen, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	gen.Status = update.Status
	if update.Progress != nil {
		gen.Progress = *update.Progress
	}
	if update.VideoURL != nil {
		gen.VideoURL = update.VideoURL
	}
	if update.ThumbnailURL != nil {
		gen.ThumbnailURL = update.ThumbnailURL
	}
	if update.ProductImageURL != nil {
		gen.ProductImageURL = update.ProductImageURL
	}
	if update.ModelImageURL != nil {
		gen.ModelImageURL = update.ModelImageURL
	}
	if update.MediaAssetID != nil {
		gen.MediaAssetID = update.MediaAssetID
	}
	if update.ErrorMessage != nil {
		gen.ErrorMessage = update.ErrorMessage
	}
	gen.UpdatedAt = time.Now().UTC()

	r.items[id] = cloneGeneration(gen)
	out := cloneGeneration(gen)
	return &out, nil
}

// Delete removes the record and reports whether it existed.
func (r *GenerationRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

// cloneGeneration deep-copies pointer fields so callers never alias stored
// state.
func cloneGeneration(gen domain.Generation) domain.Generation {
	gen.VideoURL = clonePtr(gen.VideoURL)
	gen.ThumbnailURL = clonePtr(gen.ThumbnailURL)
	gen.ProductImageURL = clonePtr(gen.ProductImageURL)
	gen.ModelImageURL = clonePtr(gen.ModelImageURL)
	gen.MediaAssetID = clonePtr(gen.MediaAssetID)
	gen.ErrorMessage = clonePtr(gen.ErrorMessage)
	return gen
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ domain.GenerationRepository = (*GenerationRepository)(nil)
