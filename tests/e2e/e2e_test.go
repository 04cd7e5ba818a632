package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/your-org/lambda-smoke/internal/invoke"
	"github.com/your-org/lambda-smoke/internal/suite"
)

// These tests expect an emulator serving cmd/echo, e.g.
//
//	docker run -p 9000:8080 -v $PWD/bin:/var/task --entrypoint /usr/local/bin/aws-lambda-rie \
//	  public.ecr.aws/lambda/provided:al2023 /var/task/bootstrap
const defaultPort = 9000

func emulatorPort(t *testing.T) int {
	t.Helper()
	if os.Getenv("E2E") == "" {
		t.Skip("E2E env not set")
	}
	port := defaultPort
	if v := os.Getenv("RIE_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			t.Fatalf("RIE_PORT: %v", err)
		}
		port = p
	}
	return port
}

func echoed(t *testing.T, inv invoke.Invoker) {
	t.Helper()
	ctx := context.Background()
	for _, c := range suite.Cases() {
		out, err := inv.Invoke(ctx, c.Payload)
		if err != nil {
			t.Fatalf("%s: %v", c.Name, err)
		}
		got, _ := json.Marshal(out)
		sent, _ := invoke.Encode(c.Payload)
		want, _ := invoke.Decode(sent)
		wantB, _ := json.Marshal(want)
		if !bytes.Equal(got, wantB) {
			t.Errorf("%s: sent %s, got %s", c.Name, wantB, got)
		}
	}
}

func TestEmulatorHTTP(t *testing.T) {
	port := emulatorPort(t)
	log := zap.NewExample().Sugar()
	echoed(t, invoke.New(invoke.Endpoint(invoke.DefaultHost, port), nil, log))
}

func TestEmulatorSDK(t *testing.T) {
	port := emulatorPort(t)
	ctx := context.Background()
	api, err := invoke.NewLambdaClient(ctx, invoke.BaseURL(invoke.DefaultHost, port))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	echoed(t, invoke.NewSDKClient(api, zap.NewExample().Sugar()))
}

func TestEmulatorRun(t *testing.T) {
	port := emulatorPort(t)
	var out bytes.Buffer
	inv := invoke.New(invoke.Endpoint(invoke.DefaultHost, port), nil, nil)
	if err := suite.NewRunner(inv, &out, zap.NewExample().Sugar(), nil).Run(context.Background(), suite.Cases()); err != nil {
		t.Fatalf("run: %v\n%s", err, out.String())
	}
}
