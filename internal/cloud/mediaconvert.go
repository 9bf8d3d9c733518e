package cloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
)

// mediaConvertAPI is the subset of the MediaConvert client diagnostics use.
type mediaConvertAPI interface {
	DescribeEndpoints(ctx context.Context, params *mediaconvert.DescribeEndpointsInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.DescribeEndpointsOutput, error)
}

// MediaConvertClient answers transcoding diagnostics.
type MediaConvertClient struct {
	api mediaConvertAPI
}

// NewMediaConvertClient builds a MediaConvert client from the stored AWS settings.
func NewMediaConvertClient(ctx context.Context, cfg Config) (*MediaConvertClient, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cloud: load aws config: %w", err)
	}
	return &MediaConvertClient{api: mediaconvert.NewFromConfig(awsCfg)}, nil
}

// NewMediaConvertClientWithAPI wires a preconstructed API, used by tests.
func NewMediaConvertClientWithAPI(api mediaConvertAPI) *MediaConvertClient {
	return &MediaConvertClient{api: api}
}

// TestConnection discovers the account endpoint, which verifies both the
// credentials and the service availability in the configured region.
func (c *MediaConvertClient) TestConnection(ctx context.Context) (string, error) {
	out, err := c.api.DescribeEndpoints(ctx, &mediaconvert.DescribeEndpointsInput{})
	if err != nil {
		return "", fmt.Errorf("cloud: describe endpoints: %w", err)
	}
	if len(out.Endpoints) == 0 {
		return "", errors.New("cloud: no mediaconvert endpoints returned")
	}
	return aws.ToString(out.Endpoints[0].Url), nil
}
