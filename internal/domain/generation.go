package domain

import (
	"fmt"
	"strings"
	"time"
)

// GenerationStatus enumerates the lifecycle states of an ad generation.
type GenerationStatus string

const (
	GenerationPending    GenerationStatus = "pending"
	GenerationProcessing GenerationStatus = "processing"
	GenerationSucceeded  GenerationStatus = "succeeded"
	GenerationFailed     GenerationStatus = "failed"
	GenerationCanceled   GenerationStatus = "canceled"
)

// Terminal reports whether the status can no longer change.
func (s GenerationStatus) Terminal() bool {
	return s == GenerationSucceeded || s == GenerationFailed || s == GenerationCanceled
}

// AdStyle enumerates the supported ad aesthetics.
type AdStyle string

const (
	StyleCinematic AdStyle = "cinematic"
	StyleMinimal   AdStyle = "minimal"
	StyleBold      AdStyle = "bold"
	StyleCorporate AdStyle = "corporate"
	StylePlayful   AdStyle = "playful"
	StyleLuxury    AdStyle = "luxury"
)

// AdStyles lists every valid style in a stable order.
var AdStyles = []AdStyle{StyleCinematic, StyleMinimal, StyleBold, StyleCorporate, StylePlayful, StyleLuxury}

// AspectRatios lists the supported output formats.
var AspectRatios = []string{"9:16", "16:9"}

const (
	MinDescriptionLen = 3
	MaxDescriptionLen = 500
	MaxBrandNameLen   = 100
	MinDurationSec    = 4
	MaxDurationSec    = 12
	DefaultAspect     = "16:9"
)

// Deliverable selects which asset the pipeline must produce.
type Deliverable string

const (
	DeliverableVideo Deliverable = "video"
	DeliverableImage Deliverable = "image"
)

// GenerationRequest carries the validated inputs of one ad generation. The
// photo fields hold raw upload bytes and are never persisted.
type GenerationRequest struct {
	ProductDescription string
	BrandName          string
	Duration           int
	Style              AdStyle
	AspectRatio        string
	Deliverable        Deliverable
	Locale             string
	ProductPhoto       []byte
	ModelPhoto         []byte
}

// Normalize fills defaults and trims free-text fields.
func (r *GenerationRequest) Normalize() {
	r.ProductDescription = strings.TrimSpace(r.ProductDescription)
	r.BrandName = strings.TrimSpace(r.BrandName)
	if r.AspectRatio == "" {
		r.AspectRatio = DefaultAspect
	}
	if r.Deliverable == "" {
		r.Deliverable = DeliverableVideo
	}
}

// Validate rejects out-of-range fields before any provider call or record
// write happens. The returned error wraps ErrInvalidRequest.
func (r *GenerationRequest) Validate() error {
	if n := len(r.ProductDescription); n < MinDescriptionLen || n > MaxDescriptionLen {
		return fmt.Errorf("%w: product description must be %d-%d characters", ErrInvalidRequest, MinDescriptionLen, MaxDescriptionLen)
	}
	if len(r.BrandName) > MaxBrandNameLen {
		return fmt.Errorf("%w: brand name must be at most %d characters", ErrInvalidRequest, MaxBrandNameLen)
	}
	if r.Duration < MinDurationSec || r.Duration > MaxDurationSec {
		return fmt.Errorf("%w: duration must be between %d and %d seconds", ErrInvalidRequest, MinDurationSec, MaxDurationSec)
	}
	if !validStyle(r.Style) {
		return fmt.Errorf("%w: invalid style %q", ErrInvalidRequest, r.Style)
	}
	if !validAspect(r.AspectRatio) {
		return fmt.Errorf("%w: invalid aspect ratio %q", ErrInvalidRequest, r.AspectRatio)
	}
	if r.Deliverable != DeliverableVideo && r.Deliverable != DeliverableImage {
		return fmt.Errorf("%w: invalid deliverable %q", ErrInvalidRequest, r.Deliverable)
	}
	return nil
}

func validStyle(s AdStyle) bool {
	for _, known := range AdStyles {
		if s == known {
			return true
		}
	}
	return false
}

func validAspect(a string) bool {
	for _, known := range AspectRatios {
		if a == known {
			return true
		}
	}
	return false
}

// Generation is the persisted record of one ad-creation attempt.
type Generation struct {
	ID              string
	UserID          string
	Prompt          string
	BrandName       string
	Duration        int
	Style           AdStyle
	AspectRatio     string
	Status          GenerationStatus
	Progress        int
	VideoURL        *string
	ThumbnailURL    *string
	ProductImageURL *string
	ModelImageURL   *string
	MediaAssetID    *string
	ErrorMessage    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GenerationUpdate is a partial mutation applied through
// GenerationRepository.UpdateStatus. Nil fields are left untouched.
type GenerationUpdate struct {
	Status          GenerationStatus
	Progress        *int
	VideoURL        *string
	ThumbnailURL    *string
	ProductImageURL *string
	ModelImageURL   *string
	MediaAssetID    *string
	ErrorMessage    *string
}
