package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"
)

var (
	lambdaStart = lambda.Start
	log         *zap.SugaredLogger
)

// handler returns the invocation event untouched so a smoke run can compare
// what it sent with what came back.
func handler(ctx context.Context, evt json.RawMessage) (json.RawMessage, error) {
	reqID := ""
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		reqID = lc.AwsRequestID
	}
	log.Infow("echo", "requestId", reqID, "bytes", len(evt))
	return evt, nil
}

func realMain(start func(interface{})) {
	logger, _ := zap.NewProduction()
	log = logger.Sugar()
	start(handler)
}

func main() {
	realMain(lambdaStart)
}
