package copywriter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"adwork/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func chatCompletion(content string) *http.Response {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	body, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(fn roundTripFunc) *Client {
	return NewClient(Options{
		APIToken:   "test-token",
		HTTPClient: &http.Client{Transport: fn},
	})
}

const validCopyJSON = `{
  "headline": "Run The City",
  "subheadline": "Sneakers built for the bold",
  "cta": "Shop Now",
  "bodyText": "Red sneakers that keep up with you.",
  "colorScheme": "#FF0000, #111111",
  "mood": "Bold, Urban, Fast",
  "targetAudience": "Young urban athletes",
  "imagePrompt": "A model lacing up red sneakers on a rooftop at dusk",
  "videoDescription": "Slow pan across red sneakers under neon light"
}`

func TestGenerateCopyParsesModelOutput(t *testing.T) {
	var gotPath, gotAuth string
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		return chatCompletion(validCopyJSON), nil
	})

	adCopy, err := client.GenerateCopy(context.Background(), Brief{
		ProductDescription: "red sneakers",
		BrandName:          "Nova",
		Style:              domain.StyleBold,
	})
	if err != nil {
		t.Fatalf("GenerateCopy() error = %v", err)
	}
	if adCopy.Headline != "Run The City" {
		t.Errorf("Headline = %q", adCopy.Headline)
	}
	if adCopy.CTA != "Shop Now" {
		t.Errorf("CTA = %q", adCopy.CTA)
	}
	if !strings.HasSuffix(gotPath, "/chat/completions") {
		t.Errorf("request path = %q, want chat completions", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestGenerateCopyToleratesFencedOutput(t *testing.T) {
	wrapped := "Sure! Here is the ad copy you asked for:\n```json\n" + validCopyJSON + "\n```\nLet me know if you want changes."
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return chatCompletion(wrapped), nil
	})

	adCopy, err := client.GenerateCopy(context.Background(), Brief{ProductDescription: "red sneakers"})
	if err != nil {
		t.Fatalf("GenerateCopy() error = %v", err)
	}
	if adCopy.ImagePrompt == "" || adCopy.VideoDescription == "" {
		t.Fatalf("required fields missing: %+v", adCopy)
	}
}

func TestGenerateCopyRejectsIncompleteCopy(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return chatCompletion(`{"headline": "Hi", "cta": "Buy"}`), nil
	})

	if _, err := client.GenerateCopy(context.Background(), Brief{ProductDescription: "red sneakers"}); err == nil {
		t.Fatal("GenerateCopy() expected error for incomplete copy")
	}
}

func TestGenerateCopyRejectsNonJSONOutput(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return chatCompletion("I cannot help with that."), nil
	})

	if _, err := client.GenerateCopy(context.Background(), Brief{ProductDescription: "red sneakers"}); err == nil {
		t.Fatal("GenerateCopy() expected error for non-JSON output")
	}
}

func TestGenerateCopyWithoutTokenIsConfigError(t *testing.T) {
	client := NewClient(Options{})
	_, err := client.GenerateCopy(context.Background(), Brief{ProductDescription: "red sneakers"})
	if !errors.Is(err, domain.ErrUpstreamConfig) {
		t.Fatalf("GenerateCopy() error = %v, want ErrUpstreamConfig", err)
	}
}

func TestGenerateCopyClassifiesRateLimit(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader("slow down")),
		}, nil
	})

	_, err := client.GenerateCopy(context.Background(), Brief{ProductDescription: "red sneakers"})
	if !errors.Is(err, domain.ErrUpstreamRateLimited) {
		t.Fatalf("GenerateCopy() error = %v, want ErrUpstreamRateLimited", err)
	}
}

func TestGenerateCopyBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, fmt.Errorf("connection refused")
	})

	for i := 0; i < 5; i++ {
		if _, err := client.GenerateCopy(context.Background(), Brief{ProductDescription: "red sneakers"}); err == nil {
			t.Fatalf("call %d: expected error", i+1)
		}
	}
	if calls != 5 {
		t.Fatalf("transport calls = %d, want 5", calls)
	}

	// Breaker is open now; the next call fails fast without a request.
	if _, err := client.GenerateCopy(context.Background(), Brief{ProductDescription: "red sneakers"}); err == nil {
		t.Fatal("expected error from open breaker")
	}
	if calls != 5 {
		t.Fatalf("transport calls after open breaker = %d, want 5", calls)
	}
}
