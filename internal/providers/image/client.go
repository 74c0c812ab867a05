package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"adwork/internal/domain"
	"adwork/internal/infra"
)

// GenerateRequest captures the inputs for one still-image generation.
type GenerateRequest struct {
	ScenePrompt string
	Style       domain.AdStyle
	BrandName   string
	Product     string
}

// Options configures the image client.
type Options struct {
	APIToken   string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client calls a diffusion inference endpoint that answers a prompt with raw
// image bytes. One POST, no job handle, no polling.
type Client struct {
	apiToken   string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

const (
	imageDefaultTimeout = 90 * time.Second

	negativePrompt = "blurry, low quality, distorted text, watermark, ugly, deformed, amateur, clipart"
	qualitySuffix  = "professional advertisement photography, magazine ad campaign, commercial quality, sharp focus, professional lighting, bokeh background, high fashion, 8k, no text, no words, no letters, no watermark"
)

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty"`
	GuidanceScale     float64 `json:"guidance_scale,omitempty"`
}

// NewClient constructs an image client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: imageDefaultTimeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/hf-inference/models"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "stabilityai/stable-diffusion-xl-base-1.0"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiToken:   strings.TrimSpace(opts.APIToken),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Generate renders the ad scene and returns the raw image bytes.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	if c.apiToken == "" {
		return nil, fmt.Errorf("%w: image api token is not set", domain.ErrUpstreamConfig)
	}

	payload := inferenceRequest{
		Inputs: BuildPrompt(req),
		Parameters: inferenceParameters{
			NegativePrompt:    negativePrompt,
			NumInferenceSteps: 30,
			GuidanceScale:     7.5,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/" + url.PathEscape(c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoke image model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, classifyStatus(resp.StatusCode, string(data))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image bytes: %w", err)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("image model returned no bytes")
	}

	c.logger.Debug().Str("model", c.model).Int("bytes", len(blob)).Msg("image: generated ad image")
	return blob, nil
}

// BuildPrompt concatenates the scene prompt from the ad copy with the fixed
// brand line and quality modifiers.
func BuildPrompt(req GenerateRequest) string {
	scene := strings.TrimSpace(req.ScenePrompt)
	if scene == "" {
		scene = fmt.Sprintf("An attractive model confidently showcasing %s, professional studio lighting, %s aesthetic", req.Product, req.Style)
	}
	parts := []string{scene}
	if req.Product != "" {
		brandLine := fmt.Sprintf("the model is holding and promoting %s", req.Product)
		if req.BrandName != "" {
			brandLine += " by " + req.BrandName
		}
		parts = append(parts, brandLine)
	}
	parts = append(parts, fmt.Sprintf("%s aesthetic", req.Style), qualitySuffix)
	return strings.Join(parts, ", ")
}

func classifyStatus(code int, body string) error {
	switch {
	case code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: image model status %d", domain.ErrUpstreamRateLimited, code)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: image model status %d", domain.ErrUpstreamConfig, code)
	default:
		return fmt.Errorf("image model status %d: %s", code, strings.TrimSpace(body))
	}
}
