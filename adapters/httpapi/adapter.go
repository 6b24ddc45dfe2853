package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/layer-3/authflow/core"
	"github.com/layer-3/authflow/ports"
)

// Adapter implements ports.API on top of an HTTP client
type Adapter struct {
	client ports.HTTPDoer
	logger *slog.Logger
}

// NewAdapter creates a new adapter. A nil client falls back to http.DefaultClient.
func NewAdapter(client ports.HTTPDoer, logger *slog.Logger) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client: client,
		logger: logger.With("component", "httpapi"),
	}
}

// Send issues the request and decodes a successful body as JSON into out
func (a *Adapter) Send(ctx context.Context, req ports.Request, out any) error {
	body, err := a.do(ctx, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(body), out); err != nil {
		a.logger.Debug("response is not valid JSON",
			"url", req.URL,
			"error", err)
		return &core.MalformedResponseError{Body: body, Err: err}
	}

	return nil
}

// SendRaw issues the request and returns a successful body as text
func (a *Adapter) SendRaw(ctx context.Context, req ports.Request) (string, error) {
	return a.do(ctx, req)
}

// do performs the round trip and reads the full body whatever the status
func (a *Adapter) do(ctx context.Context, req ports.Request) (string, error) {
	var reader io.Reader
	if req.Body != nil {
		reader = bytes.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, reader)
	if err != nil {
		return "", &core.NetworkError{Err: fmt.Errorf("create request: %w", err)}
	}
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	a.logger.Debug("sending request", "method", method, "url", req.URL)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		a.logger.Warn("request failed", "method", method, "url", req.URL, "error", err)
		return "", &core.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &core.NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}
	body := string(data)

	a.logger.Debug("received response",
		"method", method,
		"url", req.URL,
		"status", resp.StatusCode,
		"bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &core.HTTPError{Status: resp.StatusCode, Body: body}
	}

	return body, nil
}
