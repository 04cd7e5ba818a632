package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

const (
	// DefaultHost is where the emulator is expected to listen.
	DefaultHost = "localhost"
	// DefaultPort is the host port the emulator container is usually mapped to.
	DefaultPort = 9000

	// FunctionName is the fixed function name the emulator serves.
	FunctionName = "function"
	invokePath   = "/2015-03-31/functions/" + FunctionName + "/invocations"
)

// Invoker sends one payload to the emulated function and returns its decoded response.
type Invoker interface {
	Invoke(ctx context.Context, payload any) (any, error)
}

// BaseURL returns the emulator root for host and port.
func BaseURL(host string, port int) string {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// Endpoint returns the invocation URL for host and port.
func Endpoint(host string, port int) string {
	return BaseURL(host, port) + invokePath
}

// Encode serializes payload. A string is sent as {"body": payload}.
func Encode(payload any) ([]byte, error) {
	if s, ok := payload.(string); ok {
		payload = map[string]string{"body": s}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return b, nil
}

// Decode parses a response body, keeping numbers exactly as sent.
func Decode(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("decode response: trailing data after JSON value")
	}
	return out, nil
}

// StatusError is returned when the emulator answers with a non-2xx status.
type StatusError struct {
	URL    string
	Code   int
	Status string
	Body   []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s for url: %s", e.Status, e.URL)
	if len(e.Body) > 0 {
		msg += ": " + string(bytes.TrimSpace(e.Body))
	}
	return msg
}

// Client posts payloads straight to the emulator's invocation endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// New creates a Client for url. A nil httpClient means http.DefaultClient.
func New(url string, httpClient *http.Client, log *zap.SugaredLogger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{url: url, httpClient: httpClient, log: log}
}

// URL reports the endpoint the client posts to.
func (c *Client) URL() string { return c.url }

// Invoke posts payload once and never retries.
func (c *Client) Invoke(ctx context.Context, payload any) (any, error) {
	body, err := Encode(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", c.url, err)
	}
	defer closeBody(resp.Body, c.log)

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: c.url, Code: resp.StatusCode, Status: resp.Status, Body: b}
	}
	c.log.Debugw("invoked", "url", c.url, "status", resp.StatusCode, "bytes", len(b))
	return Decode(b)
}

func closeBody(c io.Closer, log *zap.SugaredLogger) {
	if err := c.Close(); err != nil {
		log.Warnw("close body", "error", err)
	}
}
