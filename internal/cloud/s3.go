package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// deleteBatchSize is the S3 DeleteObjects per-request limit.
const deleteBatchSize = 1000

// s3API is the subset of the S3 client the storage diagnostics use.
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Client answers storage diagnostics against one bucket.
type S3Client struct {
	api    s3API
	bucket string
}

// ScanResult summarises an orphan scan of the bucket.
type ScanResult struct {
	Objects     int      `json:"objects"`
	OrphanKeys  []string `json:"orphan_keys"`
	OrphanBytes int64    `json:"orphan_bytes"`
}

// NewS3Client builds an S3 client for the configured bucket. A custom
// endpoint switches to path-style addressing for S3-compatible services.
func NewS3Client(ctx context.Context, cfg Config, bucket string) (*S3Client, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("cloud: s3 bucket is required")
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cloud: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{api: client, bucket: bucket}, nil
}

// NewS3ClientWithAPI wires a preconstructed API, used by tests.
func NewS3ClientWithAPI(api s3API, bucket string) *S3Client {
	return &S3Client{api: api, bucket: bucket}
}

// TestConnection verifies the bucket exists and is reachable with the
// configured credentials.
func (c *S3Client) TestConnection(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err != nil {
		return fmt.Errorf("cloud: head bucket %s: %w", c.bucket, err)
	}
	return nil
}

// ScanOrphans walks the bucket and reports objects that no attachment row
// references.
func (c *S3Client) ScanOrphans(ctx context.Context, known map[string]struct{}) (ScanResult, error) {
	var (
		result ScanResult
		token  *string
	)

	for {
		page, err := c.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.bucket),
			ContinuationToken: token,
		})
		if err != nil {
			return ScanResult{}, fmt.Errorf("cloud: list objects: %w", err)
		}

		for _, object := range page.Contents {
			result.Objects++
			key := aws.ToString(object.Key)
			if _, ok := known[key]; ok {
				continue
			}
			result.OrphanKeys = append(result.OrphanKeys, key)
			result.OrphanBytes += aws.ToInt64(object.Size)
		}

		if page.NextContinuationToken == nil {
			return result, nil
		}
		token = page.NextContinuationToken
	}
}

// DeleteKeys removes the supplied objects in batches and returns how many
// were deleted.
func (c *S3Client) DeleteKeys(ctx context.Context, keys []string) (int, error) {
	var deleted int
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		identifiers := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			identifiers = append(identifiers, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := c.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(c.bucket),
			Delete: &types.Delete{Objects: identifiers, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("cloud: delete objects: %w", err)
		}
		deleted += (end - start) - len(out.Errors)
	}
	return deleted, nil
}
