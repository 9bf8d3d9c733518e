// Package cloud wraps the AWS clients the diagnostics endpoints and the file
// pipeline rely on. Connections are built per request from the stored general
// settings bag, so credential changes take effect without a restart.
package cloud

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Config carries the connection parameters from the general settings bag.
// When AccessKey/SecretKey are empty the default AWS credential chain is used
// (environment, shared config, instance role).
type Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string // optional S3-compatible endpoint (MinIO, Spaces)
}

func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		return aws.Config{}, errors.New("cloud: region is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	return config.LoadDefaultConfig(ctx, opts...)
}
