// Package storage archives rendered statements in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appconsignment "github.com/erp/consignment/internal/application/consignment"
	"github.com/erp/consignment/internal/infrastructure/config"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrArchiveUnavailable is returned while the circuit breaker is open
var ErrArchiveUnavailable = errors.New("statement archive unavailable")

// objectAPI is the subset of the S3 client the archive uses
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3StatementArchive uploads statements to a bucket. Uploads go through a
// circuit breaker so a storage outage does not stall every close.
type S3StatementArchive struct {
	client  objectAPI
	bucket  string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// S3StatementArchiveOption is a functional option for configuring S3StatementArchive
type S3StatementArchiveOption func(*archiveOptions)

type archiveOptions struct {
	logger           *zap.Logger
	failureThreshold uint32
	openTimeout      time.Duration
}

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3StatementArchiveOption {
	return func(o *archiveOptions) {
		o.logger = logger
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how long it stays open
func WithBreaker(failureThreshold uint32, openTimeout time.Duration) S3StatementArchiveOption {
	return func(o *archiveOptions) {
		o.failureThreshold = failureThreshold
		o.openTimeout = openTimeout
	}
}

// NewS3StatementArchive creates an archive from configuration.
// Any S3-compatible backend works (AWS S3, MinIO, RustFS).
func NewS3StatementArchive(ctx context.Context, cfg *config.StorageConfig, opts ...S3StatementArchiveOption) (*S3StatementArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint := normalizeEndpoint(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newArchive(client, cfg.Bucket, opts...), nil
}

func newArchive(client objectAPI, bucket string, opts ...S3StatementArchiveOption) *S3StatementArchive {
	o := archiveOptions{
		logger:           zap.NewNop(),
		failureThreshold: 5,
		openTimeout:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("statement_archive")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "s3-statement-archive",
		MaxRequests: 1,
		Timeout:     o.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &S3StatementArchive{
		client:  client,
		bucket:  bucket,
		breaker: breaker,
		logger:  logger,
	}
}

// normalizeEndpoint adds a scheme to a bare host; an empty endpoint means AWS
func normalizeEndpoint(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return "https://" + endpoint
	}
	return endpoint
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup.
func (a *S3StatementArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("creating statement bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put uploads one statement
func (a *S3StatementArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	_, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}
	if err != nil {
		return fmt.Errorf("failed to upload statement: %w", err)
	}
	return nil
}

// Bucket returns the bucket name
func (a *S3StatementArchive) Bucket() string {
	return a.bucket
}

var _ appconsignment.StatementArchive = (*S3StatementArchive)(nil)
