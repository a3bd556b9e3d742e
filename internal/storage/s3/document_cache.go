// Package s3 keeps fetched detail documents in an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"invoicevault/internal/config"
	"invoicevault/internal/port"
)

// ObjectGetter is the slice of the S3 API the cache reads through.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ObjectUploader is the slice of the transfer manager the cache writes through.
type ObjectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type documentCache struct {
	getter   ObjectGetter
	uploader ObjectUploader
	bucket   string
	prefix   string
}

// NewDocumentCache creates an S3-backed DocumentCache.
func NewDocumentCache(ctx context.Context, cfg *config.S3Config) (port.DocumentCache, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return NewDocumentCacheWith(client, manager.NewUploader(client), cfg.Bucket, cfg.Prefix), nil
}

// NewDocumentCacheWith builds the cache over explicit clients.
func NewDocumentCacheWith(getter ObjectGetter, uploader ObjectUploader, bucket, prefix string) port.DocumentCache {
	return &documentCache{getter: getter, uploader: uploader, bucket: bucket, prefix: prefix}
}

func (c *documentCache) objectKey(key string) string {
	return path.Join(c.prefix, key)
}

func (c *documentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := c.getter.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("s3 cache get: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, false, fmt.Errorf("s3 cache read: %w", err)
	}
	return data, true, nil
}

func (c *documentCache) Put(ctx context.Context, key string, data []byte) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(c.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("s3 cache put: %w", err)
	}
	return nil
}
