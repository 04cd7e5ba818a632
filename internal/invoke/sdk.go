package invoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// LambdaAPI abstracts the Lambda Invoke operation for testability.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

var loadConfig = config.LoadDefaultConfig

// SDKClient invokes the emulator through the Lambda API. The emulator serves
// the same path the Invoke operation targets, so only the base endpoint changes.
type SDKClient struct {
	api LambdaAPI
	log *zap.SugaredLogger
}

// NewSDKClient wraps an existing Lambda API client.
func NewSDKClient(api LambdaAPI, log *zap.SugaredLogger) *SDKClient {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SDKClient{api: api, log: log}
}

// NewLambdaClient builds a Lambda client aimed at the emulator at baseURL.
// The emulator does not check signatures, so static credentials are used and
// the region is fixed. Retries are disabled.
func NewLambdaClient(ctx context.Context, baseURL string) (*lambda.Client, error) {
	cfg, err := loadConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("emulator", "emulator", "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return lambda.NewFromConfig(cfg, func(o *lambda.Options) {
		o.BaseEndpoint = aws.String(baseURL)
		o.Retryer = aws.NopRetryer{}
	}), nil
}

// Invoke sends payload with a RequestResponse invocation. A function error
// reported by the emulator is treated as a failed invocation.
func (c *SDKClient) Invoke(ctx context.Context, payload any) (any, error) {
	body, err := Encode(payload)
	if err != nil {
		return nil, err
	}
	out, err := c.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(FunctionName),
		Payload:      body,
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			c.log.Warnw("lambda api error", "code", ae.ErrorCode(), "fault", ae.ErrorFault().String())
		}
		return nil, fmt.Errorf("invoke %s: %w", FunctionName, err)
	}
	if out.FunctionError != nil {
		return nil, fmt.Errorf("function error %s: %s", aws.ToString(out.FunctionError), out.Payload)
	}
	c.log.Debugw("invoked", "status", out.StatusCode, "bytes", len(out.Payload))
	return Decode(out.Payload)
}
