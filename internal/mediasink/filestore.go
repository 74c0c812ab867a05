package mediasink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileSink persists assets onto the local filesystem. It is intended for
// development and test environments where an object storage service is not
// available; URLs are served from under baseURL by whatever fronts the
// directory.
type FileSink struct {
	basePath string
	baseURL  string
}

// NewFileSink initializes a FileSink rooted at basePath.
func NewFileSink(basePath, baseURL string) (*FileSink, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("mediasink: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("mediasink: ensure base path: %w", err)
	}
	return &FileSink{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes the bytes under a fresh key below folder and returns the
// asset handle. Keys are cleaned to prevent directory traversal.
func (s *FileSink) Upload(ctx context.Context, data []byte, kind Kind, folder string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("mediasink: empty payload")
	}
	key, err := sanitizeKey(fmt.Sprintf("%s/%s.%s", folder, uuid.NewString(), extensionFor(kind)))
	if err != nil {
		return nil, err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("mediasink: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("mediasink: write file: %w", err)
	}
	return &Asset{AssetID: key, URL: s.baseURL + "/" + key}, nil
}

// Delete removes the asset's file. A missing file is treated as already
// deleted.
func (s *FileSink) Delete(ctx context.Context, assetID string, _ Kind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := sanitizeKey(assetID)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("mediasink: delete file: %w", err)
	}
	return nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("mediasink: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("mediasink: invalid key")
	}
	return cleaned, nil
}

var _ Sink = (*FileSink)(nil)
