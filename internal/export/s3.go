package export

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Sink uploads reports to an S3 bucket. Credentials come from the standard
// AWS credential chain (environment, shared config, instance role).
type S3Sink struct {
	name     string
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

// NewS3Sink creates a sink uploading to the given bucket under prefix.
func NewS3Sink(ctx context.Context, name, bucket, prefix, region string) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 sink requires s3_bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Sink{
		name:     name,
		bucket:   bucket,
		prefix:   prefix,
		uploader: manager.NewUploader(client),
	}, nil
}

func (s *S3Sink) Name() string { return s.name }

// Put uploads the report body to s3://bucket/prefix/key.
func (s *S3Sink) Put(ctx context.Context, key string, body io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Join(s.prefix, key)),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("uploading report to s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Compile-time check that S3Sink implements the Sink interface
var _ Sink = (*S3Sink)(nil)
