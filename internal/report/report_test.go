package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"go.uber.org/zap"
)

type fakeCW struct {
	in  *cloudwatch.PutMetricDataInput
	err error
}

func (f *fakeCW) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.in = in
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestPublish(t *testing.T) {
	cw := &fakeCW{}
	r := New(cw, "LambdaSmoke", zap.NewNop().Sugar())
	r.Record("first", 120*time.Millisecond, nil)
	r.Record("second", 0, errors.New("boom"))

	if err := r.Publish(context.Background()); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	if aws.ToString(cw.in.Namespace) != "LambdaSmoke" {
		t.Errorf("unexpected namespace %q", aws.ToString(cw.in.Namespace))
	}
	got := map[string]float64{}
	for _, d := range cw.in.MetricData {
		got[aws.ToString(d.MetricName)] = aws.ToFloat64(d.Value)
	}
	if got["CasesSucceeded"] != 1 || got["CasesFailed"] != 1 || got["InvokeLatencyMs"] != 120 {
		t.Errorf("unexpected metrics %v", got)
	}
	if len(cw.in.MetricData) != 3 {
		t.Errorf("expected 3 datums, got %d", len(cw.in.MetricData))
	}
}

func TestPublishError(t *testing.T) {
	cw := &fakeCW{err: errors.New("throttled")}
	r := New(cw, "LambdaSmoke", zap.NewNop().Sugar())
	if err := r.Publish(context.Background()); err == nil || err.Error() != "put metrics: throttled" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDisabled(t *testing.T) {
	var nilRec *Recorder
	nilRec.Record("x", time.Second, nil)
	if err := nilRec.Publish(context.Background()); err != nil {
		t.Errorf("nil recorder: %v", err)
	}

	cw := &fakeCW{}
	r := New(cw, "", zap.NewNop().Sugar())
	r.Record("x", time.Second, nil)
	if err := r.Publish(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if cw.in != nil {
		t.Error("metrics sent without namespace")
	}
}
