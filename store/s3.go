package store

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FilesystemS3 stores files as objects of one S3 bucket.
type FilesystemS3 struct {
	client     *s3.Client
	bucketName string
}

// S3Config holds the configuration for an S3 filesystem
type S3Config struct {
	Endpoint        string // custom endpoint for S3-compatible services
	Region          string
	BucketName      string
	AccessKeyID     string // empty uses the default credential chain
	SecretAccessKey string
}

// NewFilesystemS3 creates an S3 filesystem for cfg.BucketName.
func NewFilesystemS3(cfg S3Config) (*FilesystemS3, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("missing S3 bucket name")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsConfig, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &FilesystemS3{client: client, bucketName: cfg.BucketName}, nil
}

// Write uploads reader as the object at path.
func (fs *FilesystemS3) Write(ctx context.Context, path string, reader io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(fs.bucketName),
		Key:    aws.String(path),
		Body:   reader,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := fs.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", fs.bucketName, path, err)
	}
	return nil
}

// Open downloads the object at path.
func (fs *FilesystemS3) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	result, err := fs.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(fs.bucketName),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", fs.bucketName, path, err)
	}
	return result.Body, nil
}
