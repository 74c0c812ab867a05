package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"adwork/internal/domain"
	"adwork/internal/infra"
	"adwork/internal/mediasink"
	"adwork/internal/providers/copywriter"
	"adwork/internal/providers/image"
	"adwork/internal/providers/video"
)

// Copywriter produces structured ad copy from a brief.
type Copywriter interface {
	GenerateCopy(ctx context.Context, brief copywriter.Brief) (*domain.AdCopy, error)
}

// ImageGenerator renders a still ad image.
type ImageGenerator interface {
	Generate(ctx context.Context, req image.GenerateRequest) ([]byte, error)
}

// VideoGenerator renders a short ad video, polling its provider internally.
type VideoGenerator interface {
	Generate(ctx context.Context, req video.GenerateRequest) ([]byte, error)
}

// Options wires the pipeline's collaborators. Every dependency is injected so
// tests can substitute fakes without process-wide state.
type Options struct {
	Copywriter Copywriter
	Images     ImageGenerator
	Videos     VideoGenerator
	Sink       mediasink.Sink
	Records    domain.GenerationRepository
	Logger     *infra.Logger
}

// Pipeline sequences one ad generation across the provider adapters, writing
// progress to the record store after each stage so concurrent status lookups
// observe it. It performs no cross-stage retries: each adapter owns its own
// retry/fallback policy, the pipeline owns sequencing and bookkeeping.
type Pipeline struct {
	copy    Copywriter
	images  ImageGenerator
	videos  VideoGenerator
	sink    mediasink.Sink
	records domain.GenerationRepository
	logger  *infra.Logger
}

// Stage progress milestones. Values only ever increase within a run.
const (
	progressAccepted   = 0
	progressReferences = 10
	progressCopy       = 25
	progressRendering  = 45
	progressUploading  = 80
	progressDone       = 100
)

const (
	folderProductImages = "adwork/product-images"
	folderModelImages   = "adwork/model-images"
	folderImages        = "adwork/images"
	folderVideos        = "adwork/videos"
	folderThumbnails    = "adwork/thumbnails"
)

// NewPipeline constructs the orchestrator.
func NewPipeline(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Pipeline{
		copy:    opts.Copywriter,
		images:  opts.Images,
		videos:  opts.Videos,
		sink:    opts.Sink,
		records: opts.Records,
		logger:  logger,
	}
}

// Generate validates the request, creates the record, and drives the stages
// to a terminal state. The returned Generation is the finalized record; when
// it is non-nil alongside an error, the record has already been marked failed
// and the error classifies why for the transport layer.
//
// Caller cancellation (ctx) aborts between stages and inside the video poll
// loop; the record is then finalized as failed with a "canceled" reason using
// a detached context so the terminal write itself cannot be canceled.
func (p *Pipeline) Generate(ctx context.Context, userID string, req domain.GenerationRequest) (*domain.Generation, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	gen := &domain.Generation{
		ID:          uuid.NewString(),
		UserID:      userID,
		Prompt:      req.ProductDescription,
		BrandName:   req.BrandName,
		Duration:    req.Duration,
		Style:       req.Style,
		AspectRatio: req.AspectRatio,
		Status:      domain.GenerationProcessing,
		Progress:    progressAccepted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.records.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("create generation record: %w", err)
	}

	final, err := p.run(ctx, gen, req)
	if err != nil {
		return p.finalizeFailure(ctx, gen.ID, err), err
	}
	return final, nil
}

func (p *Pipeline) run(ctx context.Context, gen *domain.Generation, req domain.GenerationRequest) (*domain.Generation, error) {
	productURL, modelURL, err := p.uploadReferences(ctx, req)
	if err != nil {
		return nil, err
	}
	if productURL != "" || modelURL != "" {
		p.progress(ctx, gen.ID, progressReferences, domain.GenerationUpdate{
			ProductImageURL: optional(productURL),
			ModelImageURL:   optional(modelURL),
		})
	}

	brief := copywriter.Brief{
		ProductDescription: req.ProductDescription,
		BrandName:          req.BrandName,
		Style:              req.Style,
		Locale:             req.Locale,
		HasModelPhoto:      len(req.ModelPhoto) > 0,
	}

	adCopy := p.generateCopy(ctx, gen.ID, brief)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.progress(ctx, gen.ID, progressCopy, domain.GenerationUpdate{})

	switch req.Deliverable {
	case domain.DeliverableImage:
		return p.runImage(ctx, gen, req, adCopy)
	default:
		return p.runVideo(ctx, gen, req, adCopy)
	}
}

// generateCopy never fails: when the text model errors or returns garbage the
// deterministic fallback keeps the pipeline moving.
func (p *Pipeline) generateCopy(ctx context.Context, genID string, brief copywriter.Brief) *domain.AdCopy {
	adCopy, err := p.copy.GenerateCopy(ctx, brief)
	if err != nil {
		p.logger.Warn().Err(err).Str("generation_id", genID).Msg("pipeline: copy generation failed, using fallback")
		return copywriter.Fallback(brief)
	}
	return adCopy
}

func (p *Pipeline) runImage(ctx context.Context, gen *domain.Generation, req domain.GenerationRequest, adCopy *domain.AdCopy) (*domain.Generation, error) {
	p.progress(ctx, gen.ID, progressRendering, domain.GenerationUpdate{})

	imgBytes, err := p.images.Generate(ctx, image.GenerateRequest{
		ScenePrompt: adCopy.ImagePrompt,
		Style:       req.Style,
		BrandName:   req.BrandName,
		Product:     req.ProductDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation: %w", err)
	}

	p.progress(ctx, gen.ID, progressUploading, domain.GenerationUpdate{})
	asset, err := p.sink.Upload(ctx, imgBytes, mediasink.KindImage, folderImages)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	return p.finalizeSuccess(ctx, gen.ID, asset.URL, asset.URL, asset.AssetID)
}

func (p *Pipeline) runVideo(ctx context.Context, gen *domain.Generation, req domain.GenerationRequest, adCopy *domain.AdCopy) (*domain.Generation, error) {
	// The still image is the thumbnail for a video deliverable; losing it
	// does not fail the run.
	var thumbBytes []byte
	if p.images != nil {
		var err error
		thumbBytes, err = p.images.Generate(ctx, image.GenerateRequest{
			ScenePrompt: adCopy.ImagePrompt,
			Style:       req.Style,
			BrandName:   req.BrandName,
			Product:     req.ProductDescription,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn().Err(err).Str("generation_id", gen.ID).Msg("pipeline: thumbnail image failed, continuing without")
			thumbBytes = nil
		}
	}

	p.progress(ctx, gen.ID, progressRendering, domain.GenerationUpdate{})

	videoPrompt := fmt.Sprintf("Professional %s video ad for %q. %s. Target duration: %d seconds. Cinematic quality, smooth transitions.",
		req.Style, req.BrandName, adCopy.VideoDescription, req.Duration)
	videoBytes, err := p.videos.Generate(ctx, video.GenerateRequest{
		Prompt:      videoPrompt,
		AspectRatio: req.AspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("video generation: %w", err)
	}

	p.progress(ctx, gen.ID, progressUploading, domain.GenerationUpdate{})

	videoAsset, err := p.sink.Upload(ctx, videoBytes, mediasink.KindVideo, folderVideos)
	if err != nil {
		return nil, fmt.Errorf("store video: %w", err)
	}

	thumbnailURL := ""
	if len(thumbBytes) > 0 {
		if thumbAsset, err := p.sink.Upload(ctx, thumbBytes, mediasink.KindImage, folderThumbnails); err != nil {
			p.logger.Warn().Err(err).Str("generation_id", gen.ID).Msg("pipeline: thumbnail upload failed, continuing without")
		} else {
			thumbnailURL = thumbAsset.URL
		}
	}

	return p.finalizeSuccess(ctx, gen.ID, videoAsset.URL, thumbnailURL, videoAsset.AssetID)
}

// uploadReferences pushes the caller-provided photos to the sink so the
// record can point at them. The two uploads are independent and run
// concurrently.
func (p *Pipeline) uploadReferences(ctx context.Context, req domain.GenerationRequest) (productURL, modelURL string, err error) {
	if len(req.ProductPhoto) == 0 && len(req.ModelPhoto) == 0 {
		return "", "", nil
	}
	g, gctx := errgroup.WithContext(ctx)
	if len(req.ProductPhoto) > 0 {
		g.Go(func() error {
			asset, uploadErr := p.sink.Upload(gctx, req.ProductPhoto, mediasink.KindImage, folderProductImages)
			if uploadErr != nil {
				return fmt.Errorf("store product photo: %w", uploadErr)
			}
			productURL = asset.URL
			return nil
		})
	}
	if len(req.ModelPhoto) > 0 {
		g.Go(func() error {
			asset, uploadErr := p.sink.Upload(gctx, req.ModelPhoto, mediasink.KindImage, folderModelImages)
			if uploadErr != nil {
				return fmt.Errorf("store model photo: %w", uploadErr)
			}
			modelURL = asset.URL
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return productURL, modelURL, nil
}

// progress records a stage completion. A failed progress write is logged and
// swallowed: the run itself is the source of truth and the next write will
// catch the record up.
func (p *Pipeline) progress(ctx context.Context, genID string, pct int, update domain.GenerationUpdate) {
	update.Status = domain.GenerationProcessing
	update.Progress = &pct
	if _, err := p.records.UpdateStatus(context.WithoutCancel(ctx), genID, update); err != nil {
		p.logger.Error().Err(err).Str("generation_id", genID).Int("progress", pct).Msg("pipeline: progress update failed")
	}
}

func (p *Pipeline) finalizeSuccess(ctx context.Context, genID, videoURL, thumbnailURL, assetID string) (*domain.Generation, error) {
	pct := progressDone
	update := domain.GenerationUpdate{
		Status:       domain.GenerationSucceeded,
		Progress:     &pct,
		VideoURL:     &videoURL,
		MediaAssetID: &assetID,
	}
	if thumbnailURL != "" {
		update.ThumbnailURL = &thumbnailURL
	}
	final, err := p.records.UpdateStatus(context.WithoutCancel(ctx), genID, update)
	if err != nil {
		return nil, fmt.Errorf("finalize generation: %w", err)
	}
	p.logger.Info().Str("generation_id", genID).Msg("pipeline: generation succeeded")
	return final, nil
}

// finalizeFailure marks the record failed with a human-readable reason. It
// always uses a detached context: a canceled caller must still observe a
// terminal record, never one stuck in processing.
func (p *Pipeline) finalizeFailure(ctx context.Context, genID string, cause error) *domain.Generation {
	message := failureMessage(cause)
	update := domain.GenerationUpdate{
		Status:       domain.GenerationFailed,
		ErrorMessage: &message,
	}
	final, err := p.records.UpdateStatus(context.WithoutCancel(ctx), genID, update)
	if err != nil {
		p.logger.Error().Err(err).Str("generation_id", genID).Msg("pipeline: failed to finalize failure")
		return nil
	}
	p.logger.Warn().Str("generation_id", genID).Str("reason", message).Msg("pipeline: generation failed")
	return final
}

// failureMessage maps an error to the message stored on the record. Provider
// internals stay out of it; the preserved cases are the ones safe to expose.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "video generation timed out, please try again"
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		return "AI models are overloaded, please wait and try again"
	case errors.Is(err, domain.ErrUpstreamConfig):
		return "generation service is misconfigured"
	case errors.Is(err, domain.ErrGenerationRejected):
		return err.Error()
	default:
		return "generation failed"
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
