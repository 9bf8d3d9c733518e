package cloud

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	mctypes "github.com/aws/aws-sdk-go-v2/service/mediaconvert/types"
	"github.com/stretchr/testify/require"
)

type fakeMediaConvert struct {
	out *mediaconvert.DescribeEndpointsOutput
	err error
}

func (f *fakeMediaConvert) DescribeEndpoints(ctx context.Context, params *mediaconvert.DescribeEndpointsInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.DescribeEndpointsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func TestMediaConvertTestConnection(t *testing.T) {
	api := &fakeMediaConvert{
		out: &mediaconvert.DescribeEndpointsOutput{
			Endpoints: []mctypes.Endpoint{{Url: aws.String("https://abc123.mediaconvert.us-east-1.amazonaws.com")}},
		},
	}
	client := NewMediaConvertClientWithAPI(api)

	endpoint, err := client.TestConnection(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://abc123.mediaconvert.us-east-1.amazonaws.com", endpoint)
}

func TestMediaConvertTestConnectionNoEndpoints(t *testing.T) {
	client := NewMediaConvertClientWithAPI(&fakeMediaConvert{out: &mediaconvert.DescribeEndpointsOutput{}})

	_, err := client.TestConnection(context.Background())
	require.Error(t, err)
}
