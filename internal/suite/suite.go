package suite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/your-org/lambda-smoke/internal/invoke"
)

var separator = strings.Repeat("-", 50)

// Case is one named payload sent to the emulator.
type Case struct {
	Name    string
	Payload any
}

// Cases returns the built-in smoke cases in the order they run.
func Cases() []Case {
	return []Case{
		{Name: "Simple string payload", Payload: "Hello World"},
		{
			Name: "JSON payload",
			Payload: map[string]any{
				"message": "Test message",
				"data": map[string]any{
					"key1": "value1",
					"key2": "value2",
				},
			},
		},
		{
			Name: "API Gateway payload",
			Payload: map[string]any{
				"resource":   "/test",
				"path":       "/test",
				"httpMethod": "POST",
				"headers":    map[string]any{"Content-Type": "application/json"},
				"body":       `{"message": "Test message"}`,
			},
		},
	}
}

// Recorder receives the outcome of every case run.
type Recorder interface {
	Record(name string, latency time.Duration, err error)
}

// CaseError reports which case stopped the run.
type CaseError struct {
	Name string
	Err  error
}

func (e *CaseError) Error() string { return fmt.Sprintf("%s: %v", e.Name, e.Err) }

func (e *CaseError) Unwrap() error { return e.Err }

// format indents v for display without escaping HTML characters.
func format(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Runner drives cases through an Invoker one after another.
type Runner struct {
	inv      invoke.Invoker
	out      io.Writer
	log      *zap.SugaredLogger
	recorder Recorder
	now      func() time.Time
}

// NewRunner creates a Runner printing to out. recorder may be nil.
func NewRunner(inv invoke.Invoker, out io.Writer, log *zap.SugaredLogger, recorder Recorder) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{inv: inv, out: out, log: log, recorder: recorder, now: time.Now}
}

// Run invokes each case in order and prints its response. It stops at the
// first failing case and returns a *CaseError; later cases are not sent.
func (r *Runner) Run(ctx context.Context, cases []Case) error {
	for _, c := range cases {
		fmt.Fprintf(r.out, "\nRunning test case: %s\n", c.Name)
		fmt.Fprintln(r.out, separator)

		start := r.now()
		resp, err := r.inv.Invoke(ctx, c.Payload)
		latency := r.now().Sub(start)
		if r.recorder != nil {
			r.recorder.Record(c.Name, latency, err)
		}
		if err != nil {
			return &CaseError{Name: c.Name, Err: err}
		}

		b, err := format(resp)
		if err != nil {
			return &CaseError{Name: c.Name, Err: fmt.Errorf("format response: %w", err)}
		}
		fmt.Fprintf(r.out, "Response: %s\n", b)
		fmt.Fprintln(r.out, separator)
		r.log.Infow("case done", "case", c.Name, "latency", latency, "size", humanize.Bytes(uint64(len(b))))
	}
	return nil
}
