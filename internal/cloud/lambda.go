package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// lambdaAPI is the subset of the Lambda client the converter pipeline uses.
type lambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaClient invokes converter functions and answers function diagnostics.
type LambdaClient struct {
	api lambdaAPI
}

// NewLambdaClient builds a Lambda client from the stored AWS settings.
func NewLambdaClient(ctx context.Context, cfg Config) (*LambdaClient, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cloud: load aws config: %w", err)
	}
	return &LambdaClient{api: lambda.NewFromConfig(awsCfg)}, nil
}

// NewLambdaClientWithAPI wires a preconstructed API, used by tests.
func NewLambdaClientWithAPI(api lambdaAPI) *LambdaClient {
	return &LambdaClient{api: api}
}

// TestFunction performs a dry-run invocation, which validates the function
// exists and the caller holds invoke permission without executing it.
func (c *LambdaClient) TestFunction(ctx context.Context, functionName string) error {
	if strings.TrimSpace(functionName) == "" {
		return errors.New("cloud: function name is required")
	}

	out, err := c.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(functionName),
		InvocationType: lambdatypes.InvocationTypeDryRun,
	})
	if err != nil {
		return fmt.Errorf("cloud: dry-run invoke %s: %w", functionName, err)
	}
	if out.FunctionError != nil {
		return fmt.Errorf("cloud: function %s reported %s", functionName, aws.ToString(out.FunctionError))
	}
	return nil
}

// Invoke dispatches an asynchronous invocation carrying the supplied payload.
// It satisfies the file pipeline's FunctionInvoker contract.
func (c *LambdaClient) Invoke(ctx context.Context, functionName string, payload []byte) error {
	if strings.TrimSpace(functionName) == "" {
		return errors.New("cloud: function name is required")
	}

	out, err := c.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(functionName),
		InvocationType: lambdatypes.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("cloud: invoke %s: %w", functionName, err)
	}
	if out.FunctionError != nil {
		return fmt.Errorf("cloud: function %s reported %s", functionName, aws.ToString(out.FunctionError))
	}
	return nil
}
