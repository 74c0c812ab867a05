package memory

import (
	"context"
	"sort"
	"sync"

	"adwork/internal/domain"
)

// PostRepository keeps community posts in a process-local map.
type PostRepository struct {
	mu    sync.Mutex
	items map[string]domain.Post
}

// NewPostRepository constructs an empty in-memory post store.
func NewPostRepository() *PostRepository {
	return &PostRepository{items: make(map[string]domain.Post)}
}

// Create stores a copy of the post.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[post.ID] = clonePost(*post)
	return nil
}

// GetByID returns a copy of the post or domain.ErrNotFound.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := clonePost(post)
	return &out, nil
}

// List returns the feed newest first with the total count.
func (r *PostRepository) List(ctx context.Context, page, pageSize int) ([]domain.Post, int, error) {
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
	all := make([]domain.Post, 0, len(r.items))
	for _, post := range r.items {
		all = append(all, clonePost(post))
	}
	r.mu.Unlock()

	sortNewestFirst(all)

	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return []domain.Post{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// ListByUser returns the user's posts newest first.
func (r *PostRepository) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	var out []domain.Post
	for _, post := range r.items {
		if post.UserID == userID {
			out = append(out, clonePost(post))
		}
	}
	r.mu.Unlock()
	sortNewestFirst(out)
	return out, nil
}

// ToggleLike adds or removes the user's like and reports the new state.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.items[postID]
	if !ok {
		return false, 0, domain.ErrNotFound
	}

	liked := true
	kept := post.Likes[:0:0]
	for _, id := range post.Likes {
		if id == userID {
			liked = false
			continue
		}
		kept = append(kept, id)
	}
	if liked {
		kept = append(kept, userID)
	}
	post.Likes = kept
	r.items[postID] = clonePost(post)
	return liked, len(kept), nil
}

// Delete removes the post and reports whether it existed.
func (r *PostRepository) Delete(ctx context.Context, id string) (bool, error) {
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

func sortNewestFirst(posts []domain.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func clonePost(post domain.Post) domain.Post {
	post.Likes = append([]string(nil), post.Likes...)
	return post
}

var _ domain.PostRepository = (*PostRepository)(nil)
