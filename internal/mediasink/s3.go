package mediasink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Sink stores media in an S3 bucket. Keys are namespaced by folder and kind
// so deletes only ever need the asset id.
type S3Sink struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
}

// NewS3Sink builds a sink over the default AWS credential chain. baseURL
// overrides the public URL prefix (CDN in front of the bucket); when empty
// the virtual-hosted bucket URL is used.
func NewS3Sink(ctx context.Context, bucket, region, baseURL string) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("mediasink: bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("mediasink: load aws config: %w", err)
	}
	return &S3Sink{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		region:  region,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload writes the bytes under a fresh key and returns its public URL.
func (s *S3Sink) Upload(ctx context.Context, data []byte, kind Kind, folder string) (*Asset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("mediasink: empty payload")
	}
	key := fmt.Sprintf("%s/%s.%s", strings.Trim(folder, "/"), uuid.NewString(), extensionFor(kind))

	contentType := "image/jpeg"
	if kind == KindVideo {
		contentType = "video/mp4"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("mediasink: s3 upload: %w", err)
	}

	return &Asset{AssetID: key, URL: s.publicURL(key)}, nil
}

// Delete removes the object. Deleting a key that is already gone is not an
// error in S3, which matches the best-effort delete contract.
func (s *S3Sink) Delete(ctx context.Context, assetID string, _ Kind) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return fmt.Errorf("mediasink: s3 delete: %w", err)
	}
	return nil
}

func (s *S3Sink) publicURL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

var _ Sink = (*S3Sink)(nil)
