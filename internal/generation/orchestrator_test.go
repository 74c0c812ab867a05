package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"adwork/internal/adapter/repo/memory"
	"adwork/internal/domain"
	"adwork/internal/mediasink"
	"adwork/internal/providers/copywriter"
	"adwork/internal/providers/image"
	"adwork/internal/providers/video"
)

type fakeCopywriter struct {
	copy *domain.AdCopy
	err  error
}

func (f *fakeCopywriter) GenerateCopy(ctx context.Context, brief copywriter.Brief) (*domain.AdCopy, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.copy, nil
}

type fakeImage struct {
	data []byte
	err  error
	last image.GenerateRequest
}

func (f *fakeImage) Generate(ctx context.Context, req image.GenerateRequest) ([]byte, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeVideo struct {
	data []byte
	err  error
	fn   func(ctx context.Context) ([]byte, error)
	last video.GenerateRequest
}

func (f *fakeVideo) Generate(ctx context.Context, req video.GenerateRequest) ([]byte, error) {
	f.last = req
	if f.fn != nil {
		return f.fn(ctx)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeSink struct {
	mu      sync.Mutex
	uploads []string
	fail    bool
}

func (s *fakeSink) Upload(ctx context.Context, data []byte, kind mediasink.Kind, folder string) (*mediasink.Asset, error) {
	if s.fail {
		return nil, fmt.Errorf("sink unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, folder)
	n := len(s.uploads)
	ext := "jpg"
	if kind == mediasink.KindVideo {
		ext = "mp4"
	}
	return &mediasink.Asset{
		AssetID: fmt.Sprintf("asset-%d", n),
		URL:     fmt.Sprintf("https://cdn.test/%s/%d.%s", folder, n, ext),
	}, nil
}

func (s *fakeSink) Delete(ctx context.Context, assetID string, kind mediasink.Kind) error {
	return nil
}

// recordingRepo captures every progress value written through it.
type recordingRepo struct {
	domain.GenerationRepository
	mu       sync.Mutex
	progress []int
}

func (r *recordingRepo) UpdateStatus(ctx context.Context, id string, update domain.GenerationUpdate) (*domain.Generation, error) {
	if update.Progress != nil {
		r.mu.Lock()
		r.progress = append(r.progress, *update.Progress)
		r.mu.Unlock()
	}
	return r.GenerationRepository.UpdateStatus(ctx, id, update)
}

func validCopy() *domain.AdCopy {
	return &domain.AdCopy{
		Headline:         "Run The City",
		CTA:              "Shop Now",
		ImagePrompt:      "a model lacing up red sneakers on a rooftop",
		VideoDescription: "slow pan across red sneakers under neon light",
	}
}

func validRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		ProductDescription: "red sneakers",
		BrandName:          "Nova",
		Duration:           6,
		Style:              domain.StyleBold,
		AspectRatio:        "16:9",
		Deliverable:        domain.DeliverableImage,
	}
}

func newTestPipeline(opts Options) (*Pipeline, *memory.GenerationRepository) {
	records := memory.NewGenerationRepository()
	if opts.Records == nil {
		opts.Records = records
	}
	return NewPipeline(opts), records
}

func TestGenerateImageDeliverableSucceeds(t *testing.T) {
	sink := &fakeSink{}
	pipeline, records := newTestPipeline(Options{
		Copywriter: &fakeCopywriter{copy: validCopy()},
		Images:     &fakeImage{data: []byte("png")},
		Videos:     &fakeVideo{},
		Sink:       sink,
	})

	gen, err := pipeline.Generate(context.Background(), "user-1", validRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Status != domain.GenerationSucceeded {
		t.Errorf("status = %q", gen.Status)
	}
	if gen.Progress != 100 {
		t.Errorf("progress = %d, want 100", gen.Progress)
	}
	if gen.VideoURL == nil || *gen.VideoURL == "" {
		t.Error("videoUrl is empty, want the stored asset URL")
	}
	if gen.MediaAssetID == nil || *gen.MediaAssetID == "" {
		t.Error("media asset id not recorded")
	}

	stored, err := records.FindByID(context.Background(), gen.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.Status != domain.GenerationSucceeded {
		t.Errorf("stored status = %q", stored.Status)
	}
}

func TestGenerateCopyFailureFallsBackAndStillSucceeds(t *testing.T) {
	img := &fakeImage{data: []byte("png")}
	pipeline, _ := newTestPipeline(Options{
		Copywriter: &fakeCopywriter{err: fmt.Errorf("model down")},
		Images:     img,
		Videos:     &fakeVideo{},
		Sink:       &fakeSink{},
	})

	gen, err := pipeline.Generate(context.Background(), "user-1", validRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v, copy failure must not abort", err)
	}
	if gen.Status != domain.GenerationSucceeded {
		t.Errorf("status = %q", gen.Status)
	}
	if !strings.Contains(img.last.ScenePrompt, "red sneakers") {
		t.Errorf("fallback scene prompt %q does not mention the product", img.last.ScenePrompt)
	}
}

func TestGenerateVideoDeliverable(t *testing.T) {
	sink := &fakeSink{}
	vid := &fakeVideo{data: []byte("mp4")}
	pipeline, _ := newTestPipeline(Options{
		Copywriter: &fakeCopywriter{copy: validCopy()},
		Images:     &fakeImage{data: []byte("png")},
		Videos:     vid,
		Sink:       sink,
	})

	req := validRequest()
	req.Deliverable = domain.DeliverableVideo
	gen, err := pipeline.Generate(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Status != domain.GenerationSucceeded {
		t.Fatalf("status = %q", gen.Status)
	}
	if gen.VideoURL == nil || !strings.Contains(*gen.VideoURL, "videos") {
		t.Errorf("videoUrl = %v, want the video asset", gen.VideoURL)
	}
	if gen.ThumbnailURL == nil || !strings.Contains(*gen.ThumbnailURL, "thumbnails") {
		t.Errorf("thumbnailUrl = %v, want the thumbnail asset", gen.ThumbnailURL)
	}
	for _, want := range []string{"Nova", "slow pan across red sneakers", "6 seconds"} {
		if !strings.Contains(vid.last.Prompt, want) {
			t.Errorf("video prompt %q missing %q", vid.last.Prompt, want)
		}
	}
}

func TestGenerateVideoDeliverableSurvivesThumbnailFailure(t *testing.T) {
	pipeline, _ := newTestPipeline(Options{
		Copywriter: &fakeCopywriter{copy: validCopy()},
		Images:     &fakeImage{err: fmt.Errorf("image model down")},
		Videos:     &fakeVideo{data: []byte("mp4")},
		Sink:       &fakeSink{},
	})

	req := validRequest()
	req.Deliverable = domain.DeliverableVideo
	gen, err := pipeline.Generate(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("Generate() error = %v, thumbnail failure must not abort", err)
	}
	if gen.Status != domain.GenerationSucceeded {
		t.Fatalf("status = %q", gen.Status)
	}
	if gen.ThumbnailURL != nil {
		t.Errorf("thumbnailUrl = %q, want unset", *gen.ThumbnailURL)
	}
}

func TestGenerateVideoTimeoutMarksRecordFailed(t *testing.T) {
	pipeline, records := newTestPipeline(Options{
		Copywriter: &fakeCopywriter{copy: validCopy()},
		Images:     &fakeImage{data: []byte("png")},
		Videos:     &fakeVideo{err: fmt.Errorf("%w: still running", domain.ErrUpstreamTimeout)},
		Sink:       &fakeSink{},
	})

	req := validRequest()
	req.Deliverable = domain.DeliverableVideo
	gen, err := pipeline.Generate(context.Background(), "user-1", req)
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("Generate() error = %v, want ErrUpstreamTimeout", err)
	}
	if gen == nil {
		t.Fatal("Generate() returned no finalized record")
	}
	if gen.Status != domain.GenerationFailed {
		t.Errorf("status = %q, want failed", gen.Status)
	}
	if gen.ErrorMessage == nil || !strings.Contains(*gen.ErrorMessage, "timed out") {
		t.Errorf("error message = %v, want a timeout reason", gen.ErrorMessage)
	}

	stored, err := records.FindByID(context.Background(), gen.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if !stored.Status.Terminal() {
		t.Errorf("stored status = %q, record must reach a terminal state", stored.Status)
	}
}

func TestGenerateProgressIsMonotonic(t *testing.T) {
	records := &recordingRepo{GenerationRepository: memory.NewGenerationRepository()}
	pipeline := NewPipeline(Options{
		Copywriter: &fakeCopywriter{copy: validCopy()},
		Images:     &fakeImage{data: []byte("png")},
		Videos:     &fakeVideo{data: []byte("mp4")},
		Sink:       &fakeSink{},
		Records:    records,
	})

	req := validRequest()
	req.Deliverable = domain.DeliverableVideo
	req.ProductPhoto = []byte("photo")
	if _, err := pipeline.Generate(context.Background(), "user-1", req); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(records.progress) == 0 {
		t.Fatal("no progress updates recorded")
	}
	for i := 1; i < len(records.progress); i++ {
		if records.progress[i] < records.progress[i-1] {
			t.Fatalf("progress went backwards: %v", records.progress)
		}
	}
	if last := records.progress[len(records.progress)-1]; last != 100 {
		t.Fatalf("final progress = %d, want 100", last)
	}
}

func TestGenerateInvalidRequestCreatesNoRecord(t *testing.T) {
	pipeline, records := newTestPipeline(Options{
		Copywriter: &fakeCopywriter{copy: validCopy()},
		Images:     &fakeImage{data: []byte("png")},
		Videos:     &fakeVideo{},
		Sink:       &fakeSink{},
	})

	req := validRequest()
	req.Duration = 99
	_, err := pipeline.Generate(context.Background(), "user-1", req)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("Generate() error = %v, want ErrInvalidRequest", err)
	}

	_, total, err := records.FindByUser(context.Background(), "user-1", 1, 10)
	if err != nil {
		t.Fatalf("FindByUser() error = %v", err)
	}
	if total != 0 {
		t.Fatalf("records created for invalid request: %d", total)
	}
}

func TestGenerateCanceledCallerFinalizesRecord(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	vid := &fakeVideo{fn: func(ctx context.Context) ([]byte, error) {
		cancel()
		return nil, ctx.Err()
	}}
	pipeline, records := newTestPipeline(Options{
		Copywriter: &fakeCopywriter{copy: validCopy()},
		Images:     &fakeImage{data: []byte("png")},
		Videos:     vid,
		Sink:       &fakeSink{},
	})

	req := validRequest()
	req.Deliverable = domain.DeliverableVideo
	gen, err := pipeline.Generate(ctx, "user-1", req)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	if gen == nil {
		t.Fatal("Generate() returned no finalized record")
	}
	if gen.Status != domain.GenerationFailed {
		t.Errorf("status = %q, want failed", gen.Status)
	}
	if gen.ErrorMessage == nil || *gen.ErrorMessage != "canceled" {
		t.Errorf("error message = %v, want canceled", gen.ErrorMessage)
	}

	stored, err := records.FindByID(context.Background(), gen.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.Status != domain.GenerationFailed {
		t.Errorf("stored status = %q, terminal write must survive cancellation", stored.Status)
	}
}
