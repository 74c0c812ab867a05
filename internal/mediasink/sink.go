package mediasink

import "context"

// Kind selects the media category; some hosts store and delete images and
// videos through different resource namespaces.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Asset is the durable result of an upload. AssetID is the handle for later
// deletion, URL the permanently fetchable location.
type Asset struct {
	AssetID string
	URL     string
}

// Sink turns transient binary output into a permanently fetchable URL and
// deletes it again on request. Implementations are stateless per call and
// safe for concurrent use across generations.
type Sink interface {
	Upload(ctx context.Context, data []byte, kind Kind, folder string) (*Asset, error)
	Delete(ctx context.Context, assetID string, kind Kind) error
}

func extensionFor(kind Kind) string {
	if kind == KindVideo {
		return "mp4"
	}
	return "jpg"
}
