package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GANESH4511/Dataverse/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignedUpload is a short-lived URL the client PUTs the object to.
type PresignedUpload struct {
	SignedURL string `json:"signedUrl"`
	Key       string `json:"key"`
}

// Presigner issues upload URLs.
type Presigner interface {
	PresignUpload(ctx context.Context, folder Folder, fileName, contentType string) (*PresignedUpload, error)
}

// S3Presigner presigns PutObject requests against one bucket.
type S3Presigner struct {
	client *s3.PresignClient
	bucket string
	ttl    time.Duration
}

// NewS3Presigner builds the S3 client from static credentials when given,
// otherwise from the default AWS credential chain.
func NewS3Presigner(ctx context.Context, cfg config.StorageConfig) (*S3Presigner, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("AWS_S3_BUCKET_NAME not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &S3Presigner{
		client: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		bucket: cfg.Bucket,
		ttl:    ttl,
	}, nil
}

// PresignUpload returns a PUT URL for a fresh key under folder.
func (p *S3Presigner) PresignUpload(ctx context.Context, folder Folder, fileName, contentType string) (*PresignedUpload, error) {
	key := NewObjectKey(folder, fileName)
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", key, err)
	}
	return &PresignedUpload{SignedURL: req.URL, Key: key}, nil
}
