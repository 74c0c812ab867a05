package video

import "testing"

func TestNormalizeState(t *testing.T) {
	tests := []struct {
		raw  string
		want JobState
	}{
		{"completed", StateSucceeded},
		{"success", StateSucceeded},
		{"succeeded", StateSucceeded},
		{"done", StateSucceeded},
		{"DONE", StateSucceeded},
		{" Completed ", StateSucceeded},
		{"failed", StateFailed},
		{"error", StateFailed},
		{"canceled", StateFailed},
		{"processing", StateRunning},
		{"queued", StateRunning},
		{"pending", StateRunning},
		{"", StateRunning},
		{"some-new-vocabulary", StateRunning},
	}

	for _, tc := range tests {
		if got := NormalizeState(tc.raw); got != tc.want {
			t.Errorf("NormalizeState(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestFeedResponseResultURLScansKnownLocations(t *testing.T) {
	var feed feedResponse
	feed.VideoURL = "https://a.example/a.mp4"
	if got := feed.resultURL(); got != "https://a.example/a.mp4" {
		t.Fatalf("resultURL() = %q", got)
	}

	feed.Data.Response = []string{"https://b.example/b.mp4"}
	if got := feed.resultURL(); got != "https://b.example/b.mp4" {
		t.Fatalf("resultURL() = %q, data.response must win", got)
	}

	var empty feedResponse
	empty.Result.URL = "https://c.example/c.mp4"
	if got := empty.resultURL(); got != "https://c.example/c.mp4" {
		t.Fatalf("resultURL() = %q", got)
	}
	if got := (&feedResponse{}).resultURL(); got != "" {
		t.Fatalf("resultURL() = %q, want empty", got)
	}
}
