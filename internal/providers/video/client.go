package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"adwork/internal/domain"
	"adwork/internal/infra"
)

// GenerateRequest captures the inputs for one video generation.
type GenerateRequest struct {
	Prompt      string
	AspectRatio string
}

// Job is the handle returned by the provider on submission.
type Job struct {
	ID string
}

// Options configures the video client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger

	// PollInterval and MaxPollAttempts bound the wait for an asynchronous
	// job. Zero values take the defaults (5s, 60 attempts — a five-minute
	// ceiling). Tests shrink them.
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Client drives an asynchronous text-to-video provider: submit a job, poll
// its status on a fixed interval, then fetch the finished bytes from the URL
// the final status payload points at.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	httpClient   *http.Client
	logger       *infra.Logger
	pollInterval time.Duration
	maxAttempts  int
}

const (
	defaultPollInterval    = 5 * time.Second
	defaultMaxPollAttempts = 60
	videoDefaultTimeout    = 60 * time.Second
)

type submitRequest struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	AspectRatio string `json:"aspect_ratio"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
	ID     string `json:"id"`
}

// feedResponse mirrors the provider's status payload. The result URL has
// moved between fields across provider versions, so every known location is
// scanned in order.
type feedResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
	Data   struct {
		Response []string `json:"response"`
	} `json:"data"`
	VideoURL string `json:"video_url"`
	URL      string `json:"url"`
	Result   struct {
		URL string `json:"url"`
	} `json:"result"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (f *feedResponse) resultURL() string {
	if len(f.Data.Response) > 0 && f.Data.Response[0] != "" {
		return f.Data.Response[0]
	}
	for _, candidate := range []string{f.VideoURL, f.URL, f.Result.URL} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func (f *feedResponse) failureMessage() string {
	if f.Error != "" {
		return f.Error
	}
	if f.Message != "" {
		return f.Message
	}
	return "unknown provider failure"
}

// NewClient constructs a video client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: videoDefaultTimeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://veo3api.com"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "veo3-fast"
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxAttempts := opts.MaxPollAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxPollAttempts
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
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		model:        model,
		httpClient:   httpClient,
		logger:       logger,
		pollInterval: interval,
		maxAttempts:  maxAttempts,
	}
}

// Configured reports whether the client holds credentials. The video stage is
// skipped entirely for image deliverables, so main wires a nil-safe check
// instead of failing startup.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Start submits the job and returns its handle immediately; the provider
// renders asynchronously.
func (c *Client) Start(ctx context.Context, req GenerateRequest) (Job, error) {
	if c.apiKey == "" {
		return Job{}, fmt.Errorf("%w: video api key is not set", domain.ErrUpstreamConfig)
	}
	aspect := req.AspectRatio
	if aspect != "9:16" {
		aspect = "16:9"
	}
	body, err := json.Marshal(submitRequest{Prompt: req.Prompt, Model: c.model, AspectRatio: aspect})
	if err != nil {
		return Job{}, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return Job{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Job{}, fmt.Errorf("submit video job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Job{}, classifyStatus(resp.StatusCode, string(data))
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Job{}, fmt.Errorf("decode submit response: %w", err)
	}
	id := out.TaskID
	if id == "" {
		id = out.ID
	}
	if id == "" {
		return Job{}, fmt.Errorf("video provider returned no task id")
	}

	c.logger.Debug().Str("task_id", id).Str("model", c.model).Msg("video: job submitted")
	return Job{ID: id}, nil
}

// Poll fetches the job's current state, normalized to the three-state result.
func (c *Client) Poll(ctx context.Context, job Job) (PollResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/feed?task_id="+job.ID, nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("create poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return PollResult{}, fmt.Errorf("poll video job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return PollResult{}, fmt.Errorf("video status %d", resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return PollResult{}, fmt.Errorf("decode poll response: %w", err)
	}

	raw := feed.Status
	if raw == "" {
		raw = feed.State
	}
	result := PollResult{State: NormalizeState(raw)}
	switch result.State {
	case StateSucceeded:
		result.ResultURL = feed.resultURL()
	case StateFailed:
		result.Message = feed.failureMessage()
	}
	return result, nil
}

// Download performs the second fetch for the finished video bytes; the status
// payload only carries a URL.
func (c *Client) Download(ctx context.Context, resultURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("video download status %d", resp.StatusCode)
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read video bytes: %w", err)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("downloaded video is empty")
	}
	return blob, nil
}

// Generate runs the full submit/poll/download cycle. Transient poll errors
// count as "still running" so one network blip does not abort a multi-minute
// job; a definitive failed state aborts immediately; exhausting the attempt
// ceiling is a timeout, not a hang. The wait is a timer select, so caller
// cancellation takes effect between polls without leaking the loop.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	job, err := c.Start(ctx, req)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		result, err := c.Poll(ctx, job)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn().Err(err).Str("task_id", job.ID).Int("attempt", attempt).Msg("video: poll failed, treating as still running")
			timer.Reset(c.pollInterval)
			continue
		}

		switch result.State {
		case StateSucceeded:
			if result.ResultURL == "" {
				return nil, fmt.Errorf("%w: job %s finished without a result url", domain.ErrGenerationRejected, job.ID)
			}
			c.logger.Debug().Str("task_id", job.ID).Int("attempt", attempt).Msg("video: job succeeded")
			return c.Download(ctx, result.ResultURL)
		case StateFailed:
			return nil, fmt.Errorf("%w: %s", domain.ErrGenerationRejected, result.Message)
		}

		timer.Reset(c.pollInterval)
	}

	return nil, fmt.Errorf("%w: video job %s still running after %d polls", domain.ErrUpstreamTimeout, job.ID, c.maxAttempts)
}

func classifyStatus(code int, body string) error {
	switch {
	case code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: video provider status %d", domain.ErrUpstreamRateLimited, code)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: video provider status %d", domain.ErrUpstreamConfig, code)
	default:
		return fmt.Errorf("video provider status %d: %s", code, strings.TrimSpace(body))
	}
}
