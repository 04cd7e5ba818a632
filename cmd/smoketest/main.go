package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"go.uber.org/zap"

	"github.com/your-org/lambda-smoke/internal/invoke"
	"github.com/your-org/lambda-smoke/internal/report"
	"github.com/your-org/lambda-smoke/internal/suite"
)

var (
	stdout     io.Writer = os.Stdout
	stderr     io.Writer = os.Stderr
	loadConfig           = config.LoadDefaultConfig
	newMetrics           = func(cfg aws.Config) report.MetricsAPI { return cloudwatch.NewFromConfig(cfg) }
	log                  = zap.NewNop().Sugar()
)

type args struct {
	Host             string `arg:"--host,env:RIE_HOST" default:"localhost" help:"emulator host"`
	Port             int    `arg:"-p,--port,env:RIE_PORT" default:"9000" help:"emulator port"`
	Transport        string `arg:"-t,--transport" default:"http" help:"http posts directly, sdk goes through the Lambda API client"`
	MetricsNamespace string `arg:"--metrics-namespace,env:SMOKE_METRICS_NAMESPACE" help:"publish run metrics to CloudWatch under this namespace"`
}

func (args) Description() string {
	return "\nsend the built-in test payloads to a local Lambda Runtime Interface Emulator\n"
}

func newInvoker(ctx context.Context, a args) (invoke.Invoker, error) {
	switch a.Transport {
	case "", "http":
		return invoke.New(invoke.Endpoint(a.Host, a.Port), nil, log), nil
	case "sdk":
		api, err := invoke.NewLambdaClient(ctx, invoke.BaseURL(a.Host, a.Port))
		if err != nil {
			return nil, err
		}
		return invoke.NewSDKClient(api, log), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", a.Transport)
	}
}

func newRecorder(ctx context.Context, namespace string) *report.Recorder {
	if namespace == "" {
		return nil
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		log.Warnw("metrics disabled", "error", err)
		return nil
	}
	return report.New(newMetrics(cfg), namespace, log)
}

// asSuiteRecorder keeps a disabled recorder out of the runner entirely.
func asSuiteRecorder(rec *report.Recorder) suite.Recorder {
	if rec == nil {
		return nil
	}
	return rec
}

// run returns the process exit code.
func run(ctx context.Context, a args) int {
	inv, err := newInvoker(ctx, a)
	if err != nil {
		log.Errorw("setup", "error", err)
		return 1
	}
	rec := newRecorder(ctx, a.MetricsNamespace)
	runErr := suite.NewRunner(inv, stdout, log, asSuiteRecorder(rec)).Run(ctx, suite.Cases())
	if err := rec.Publish(ctx); err != nil {
		log.Warnw("publish metrics", "error", err)
	}
	if runErr != nil {
		fmt.Fprintf(stdout, "Error invoking Lambda: %v\n", runErr)
		log.Errorw("smoke test failed", "error", runErr)
		return 1
	}
	return 0
}

func realMain(argv []string) int {
	var a args
	p, err := arg.NewParser(arg.Config{Program: "smoketest"}, &a)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	switch err := p.Parse(argv); {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelp(stdout)
		return 0
	case err != nil:
		p.WriteUsage(stderr)
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	return run(context.Background(), a)
}

func main() {
	logger, _ := zap.NewProduction()
	log = logger.Sugar()
	code := realMain(os.Args[1:])
	_ = logger.Sync()
	os.Exit(code)
}
