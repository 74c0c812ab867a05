package copywriter

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
	"github.com/sony/gobreaker/v2"

	"adwork/internal/domain"
	"adwork/internal/infra"
)

// Brief is the creative input composed by the orchestrator.
type Brief struct {
	ProductDescription string
	BrandName          string
	Style              domain.AdStyle
	Locale             string
	HasModelPhoto      bool
}

// Options configures the copywriter client.
type Options struct {
	APIToken   string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client calls an OpenAI-compatible chat-completions endpoint to turn a brief
// into structured ad copy. The client performs no retries of its own: a
// failure here is recovered by the orchestrator through the deterministic
// fallback, and a circuit breaker makes a degraded upstream fail fast instead
// of burning the request budget on a model that keeps erroring.
type Client struct {
	apiToken   string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
	breaker    *gobreaker.CircuitBreaker[*domain.AdCopy]
}

const copyDefaultTimeout = 30 * time.Second

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient constructs a copywriter client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: copyDefaultTimeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "Qwen/Qwen2.5-72B-Instruct"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	breaker := gobreaker.NewCircuitBreaker[*domain.AdCopy](gobreaker.Settings{
		Name:        "copywriter",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		apiToken:   strings.TrimSpace(opts.APIToken),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
		breaker:    breaker,
	}
}

// GenerateCopy asks the text model for ad copy matching the AdCopy schema.
// Any failure (transport, HTTP status, unparsable output, missing fields) is
// returned to the caller; the orchestrator owns the fallback policy.
func (c *Client) GenerateCopy(ctx context.Context, brief Brief) (*domain.AdCopy, error) {
	if c.apiToken == "" {
		return nil, fmt.Errorf("%w: copywriter api token is not set", domain.ErrUpstreamConfig)
	}
	return c.breaker.Execute(func() (*domain.AdCopy, error) {
		return c.generate(ctx, brief)
	})
}

func (c *Client) generate(ctx context.Context, brief Brief) (*domain.AdCopy, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You are a world-class advertising creative director. Always respond with ONLY valid JSON, no markdown code fences, no extra text.",
			},
			{Role: "user", Content: buildCopyPrompt(brief)},
		},
		MaxTokens:   600,
		Temperature: 0.7,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke copy model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, classifyStatus(resp.StatusCode, string(data))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode copy response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("copy model returned no choices")
	}

	raw := out.Choices[0].Message.Content
	span, ok := extractJSONObject(raw)
	if !ok {
		c.logger.Warn().Str("model", c.model).Msg("copywriter: no JSON object in model output")
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var copyOut domain.AdCopy
	if err := json.Unmarshal([]byte(span), &copyOut); err != nil {
		return nil, fmt.Errorf("parse ad copy: %w", err)
	}
	if !copyOut.Complete() {
		return nil, fmt.Errorf("ad copy missing required fields")
	}

	c.logger.Debug().Str("model", c.model).Msg("copywriter: generated ad copy")
	return &copyOut, nil
}

func buildCopyPrompt(brief Brief) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Create a compelling advertisement for brand %q.\n", brief.BrandName)
	fmt.Fprintf(sb, "Ad style: %s\nProduct: %s\n", brief.Style, brief.ProductDescription)
	if brief.HasModelPhoto {
		sb.WriteString("A model/person photo is also included.\n")
	}
	if brief.Locale != "" && brief.Locale != "en" {
		fmt.Fprintf(sb, "Write the copy in locale %q.\n", brief.Locale)
	}
	sb.WriteString("\nReturn this exact JSON structure:\n")
	fmt.Fprintf(sb, `{
  "headline": "Powerful headline related to the %[1]s, max 8 words",
  "subheadline": "Supporting context line, max 15 words",
  "cta": "Button text, max 4 words",
  "bodyText": "Ad body paragraph about the %[1]s, max 30 words",
  "colorScheme": "Two hex color codes for the ad",
  "mood": "Three mood words",
  "targetAudience": "Target audience phrase",
  "imagePrompt": "Describe a SPECIFIC AD SCENE for a %[1]s: an attractive model or person confidently HOLDING, WEARING, or USING the %[1]s. Describe the pose, outfit, expression, the setting, lighting, and camera angle. This must look like a professional magazine or Instagram ad. Max 80 words. Do NOT include any text or words in the image.",
  "videoDescription": "Cinematic video ad description for %[1]s: camera movement, lighting, mood, transitions. Max 50 words."
}`, brief.ProductDescription)
	return sb.String()
}

func classifyStatus(code int, body string) error {
	switch {
	case code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: copy model status %d", domain.ErrUpstreamRateLimited, code)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: copy model status %d", domain.ErrUpstreamConfig, code)
	default:
		return fmt.Errorf("copy model status %d: %s", code, strings.TrimSpace(body))
	}
}
