package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"adwork/internal/domain"
)

func newGeneration(id, userID string, createdAt time.Time) *domain.Generation {
	return &domain.Generation{
		ID:          id,
		UserID:      userID,
		Prompt:      "red sneakers",
		BrandName:   "Nova",
		Duration:    8,
		Style:       domain.StyleBold,
		AspectRatio: "9:16",
		Status:      domain.GenerationProcessing,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestGenerationRoundTrip(t *testing.T) {
	repo := NewGenerationRepository()
	ctx := context.Background()
	created := newGeneration("gen-1", "user-1", time.Now().UTC())
	if err := repo.Create(ctx, created); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.FindByID(ctx, "gen-1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.AspectRatio != "9:16" || got.Duration != 8 || got.Style != domain.StyleBold {
		t.Errorf("round trip mismatch: %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.Prompt = "changed"
	again, _ := repo.FindByID(ctx, "gen-1")
	if again.Prompt != "red sneakers" {
		t.Error("store shares memory with returned records")
	}
}

func TestGenerationUpdateStatusMergesOnlyProvidedFields(t *testing.T) {
	repo := NewGenerationRepository()
	ctx := context.Background()
	base := newGeneration("gen-1", "user-1", time.Now().UTC().Add(-time.Minute))
	if err := repo.Create(ctx, base); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	progress := 45
	videoURL := "https://cdn.test/v.mp4"
	if _, err := repo.UpdateStatus(ctx, "gen-1", domain.GenerationUpdate{
		Status:   domain.GenerationProcessing,
		Progress: &progress,
		VideoURL: &videoURL,
	}); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	// Second update leaves VideoURL untouched.
	done := 100
	got, err := repo.UpdateStatus(ctx, "gen-1", domain.GenerationUpdate{
		Status:   domain.GenerationSucceeded,
		Progress: &done,
	})
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if got.Status != domain.GenerationSucceeded || got.Progress != 100 {
		t.Errorf("status/progress = %q/%d", got.Status, got.Progress)
	}
	if got.VideoURL == nil || *got.VideoURL != videoURL {
		t.Errorf("VideoURL = %v, merge dropped an earlier field", got.VideoURL)
	}
	if !got.UpdatedAt.After(base.UpdatedAt) {
		t.Error("UpdatedAt not bumped")
	}
}

func TestGenerationUpdateStatusUnknownID(t *testing.T) {
	repo := NewGenerationRepository()
	_, err := repo.UpdateStatus(context.Background(), "missing", domain.GenerationUpdate{Status: domain.GenerationFailed})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateStatus() error = %v, want ErrNotFound", err)
	}
}

func TestGenerationFindByUserPaginatesNewestFirst(t *testing.T) {
	repo := NewGenerationRepository()
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 1; i <= 12; i++ {
		gen := newGeneration(fmt.Sprintf("gen-%02d", i), "user-1", base.Add(time.Duration(i)*time.Minute))
		if err := repo.Create(ctx, gen); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if err := repo.Create(ctx, newGeneration("other", "user-2", base)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	items, total, err := repo.FindByUser(ctx, "user-1", 2, 5)
	if err != nil {
		t.Fatalf("FindByUser() error = %v", err)
	}
	if total != 12 {
		t.Fatalf("total = %d, want 12", total)
	}
	if len(items) != 5 {
		t.Fatalf("len(items) = %d, want 5", len(items))
	}
	// Newest first: page 2 of size 5 holds gen-07 down to gen-03.
	if items[0].ID != "gen-07" || items[4].ID != "gen-03" {
		t.Errorf("page 2 = %s..%s, want gen-07..gen-03", items[0].ID, items[4].ID)
	}

	empty, total, err := repo.FindByUser(ctx, "user-1", 4, 5)
	if err != nil {
		t.Fatalf("FindByUser() error = %v", err)
	}
	if total != 12 || len(empty) != 0 {
		t.Errorf("past-the-end page: len=%d total=%d", len(empty), total)
	}
}

func TestGenerationDelete(t *testing.T) {
	repo := NewGenerationRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, newGeneration("gen-1", "user-1", time.Now().UTC())); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	existed, err := repo.Delete(ctx, "gen-1")
	if err != nil || !existed {
		t.Fatalf("Delete() = %v, %v", existed, err)
	}
	existed, err = repo.Delete(ctx, "gen-1")
	if err != nil || existed {
		t.Fatalf("second Delete() = %v, %v, want false", existed, err)
	}
	if _, err := repo.FindByID(ctx, "gen-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("FindByID() after delete = %v, want ErrNotFound", err)
	}
}
