package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricsAPI abstracts the CloudWatch PutMetricData operation.
type MetricsAPI interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Recorder collects per-case outcomes of a smoke run and publishes them as
// CloudWatch metrics. A nil Recorder, or one without a namespace, records
// nothing.
type Recorder struct {
	cw        MetricsAPI
	namespace string
	log       *zap.SugaredLogger

	mu        sync.Mutex
	succeeded int
	failed    int
	latencies []cwtypes.MetricDatum
}

// New creates a Recorder publishing under namespace.
func New(cw MetricsAPI, namespace string, log *zap.SugaredLogger) *Recorder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Recorder{cw: cw, namespace: namespace, log: log}
}

func (r *Recorder) enabled() bool {
	return r != nil && r.cw != nil && r.namespace != ""
}

// Record notes the outcome of one test case.
func (r *Recorder) Record(name string, latency time.Duration, err error) {
	if !r.enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failed++
		return
	}
	r.succeeded++
	r.latencies = append(r.latencies, cwtypes.MetricDatum{
		MetricName: aws.String("InvokeLatencyMs"),
		Unit:       cwtypes.StandardUnitMilliseconds,
		Value:      aws.Float64(float64(latency.Milliseconds())),
		Dimensions: []cwtypes.Dimension{{Name: aws.String("Case"), Value: aws.String(name)}},
	})
}

// Publish sends everything recorded so far in a single PutMetricData call.
func (r *Recorder) Publish(ctx context.Context) error {
	if !r.enabled() {
		return nil
	}
	r.mu.Lock()
	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("CasesSucceeded"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(r.succeeded))},
		{MetricName: aws.String("CasesFailed"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(r.failed))},
	}
	data = append(data, r.latencies...)
	r.mu.Unlock()

	_, err := r.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(r.namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metrics: %w", err)
	}
	r.log.Infow("metrics published", "namespace", r.namespace, "datums", len(data))
	return nil
}
