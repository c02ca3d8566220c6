// Package aws provides storages backed by AWS services.
//
// S3Storage keeps every service file as an object below a key prefix. It has
// no push notifications, so Registry.Watch polls it.
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/yacchi/kura/storage"
)

// S3API is the subset of the S3 client used by S3Storage.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Ensure *s3.Client satisfies S3API.
var _ S3API = (*s3.Client)(nil)

// S3Storage reads and writes objects in an S3 bucket.
type S3Storage struct {
	bucket      string
	prefix      string
	contentType string
	awsConfig   *aws.Config
	client      S3API

	clientInit    sync.Once
	clientInitErr error
}

// Ensure S3Storage implements the storage.Storage interface.
var _ storage.Storage = (*S3Storage)(nil)

// S3Option configures an S3Storage.
type S3Option func(*S3Storage)

// WithAWSConfig sets a custom AWS configuration.
// If not provided, the default configuration is loaded from the environment.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(ctx, config.WithRegion("us-west-2"))
//	st := aws.NewS3Storage("bucket", "app/config", aws.WithAWSConfig(cfg))
func WithAWSConfig(cfg aws.Config) S3Option {
	return func(s *S3Storage) {
		s.awsConfig = &cfg
	}
}

// WithS3Client sets the client. This overrides WithAWSConfig.
func WithS3Client(client S3API) S3Option {
	return func(s *S3Storage) {
		s.client = client
	}
}

// WithContentType sets the Content-Type of written objects.
func WithContentType(contentType string) S3Option {
	return func(s *S3Storage) {
		s.contentType = contentType
	}
}

// NewS3Storage creates a storage for the objects below prefix in bucket.
// An empty prefix places service files at the top of the bucket.
//
// Example:
//
//	st := aws.NewS3Storage("my-bucket", "app/config")
//	reg := kura.New("s3://my-bucket/app/config", json5.New(), kura.WithStorage(st))
func NewS3Storage(bucket, prefix string, opts ...S3Option) *S3Storage {
	s := &S3Storage{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bucket returns the S3 bucket name.
func (s *S3Storage) Bucket() string {
	return s.bucket
}

// Prefix returns the key prefix, without leading or trailing slashes.
func (s *S3Storage) Prefix() string {
	return s.prefix
}

// Key returns the object key for rel.
func (s *S3Storage) Key(rel string) string {
	return path.Join(s.prefix, filepath.ToSlash(rel))
}

// Abs implements the storage.Storage interface.
func (s *S3Storage) Abs(rel string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.Key(rel))
}

// ensureClient creates a default S3 client if one was not provided.
func (s *S3Storage) ensureClient(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	s.clientInit.Do(func() {
		var cfg aws.Config
		if s.awsConfig != nil {
			cfg = *s.awsConfig
		} else {
			loaded, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				s.clientInitErr = fmt.Errorf("failed to load AWS config: %w", err)
				return
			}
			cfg = loaded
		}
		s.client = s3.NewFromConfig(cfg)
	})
	return s.clientInitErr
}

// Open implements the storage.Storage interface.
// A missing object yields an error matching storage.ErrNotExist.
func (s *S3Storage) Open(ctx context.Context, rel string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureClient(ctx); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(rel)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("object %s: %w", s.Abs(rel), storage.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", s.Abs(rel), err)
	}
	return result.Body, nil
}

// Write implements the storage.Storage interface.
// The content is buffered and uploaded with a single PutObject, which
// replaces the object atomically. Nothing is uploaded if fn fails.
func (s *S3Storage) Write(ctx context.Context, rel string, fn storage.WriteFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureClient(ctx); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.Key(rel)),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
	}
	if s.contentType != "" {
		input.ContentType = aws.String(s.contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put object %s: %w", s.Abs(rel), err)
	}
	return nil
}

// isNotFound reports whether err means the object does not exist.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
