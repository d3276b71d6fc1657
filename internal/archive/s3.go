// Package archive uploads generated reports to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"property-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrNotConfigured = errors.New("report archive not configured")

type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New returns nil with ErrNotConfigured when no bucket is set
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	a := cfg.Archive
	if a.Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(a.Region),
	}
	if a.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.AccessKey, a.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if a.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{client: client, bucket: a.Bucket, prefix: a.Prefix}, nil
}

// ObjectKey places a report under <prefix>/landlord-<id>/<yyyy-mm>/<name>
func ObjectKey(prefix string, landlordID int, at time.Time, name string) string {
	return path.Join(prefix, fmt.Sprintf("landlord-%d", landlordID), at.Format("2006-01"), name)
}

// Put uploads a report and returns its object key
func (s *Store) Put(ctx context.Context, landlordID int, name, contentType string, data []byte, at time.Time) (string, error) {
	if s == nil {
		return "", ErrNotConfigured
	}
	key := ObjectKey(s.prefix, landlordID, at, name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("archive: put %s: %w", key, err)
	}
	return key, nil
}
