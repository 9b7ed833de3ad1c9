package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/concierge/internal/errors"
	"github.com/diogo/concierge/internal/models"
)

// maxResponseSize caps how much of a reply body is read
const maxResponseSize = 4 << 20

// Send posts message to /chat and returns the server's reply text verbatim.
//
// A reply succeeds only for a 2xx status with a JSON body whose "response"
// field is a string. Everything else is an error: *errors.APIError for a
// non-2xx status, *errors.NetworkError or *errors.TimeoutError for transport
// failures and *errors.ParseError for a malformed body.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	if c.IsClosed() {
		return "", fmt.Errorf("client is closed")
	}

	payload, err := json.Marshal(models.ChatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	url := c.endpoint(models.EndpointChat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}

	start := time.Now()
	body, status, err := c.do(ctx, req, "send chat message")
	if err != nil {
		c.logger.Debug("chat request failed", "url", url, "err", err, "elapsed", time.Since(start))
		return "", err
	}
	c.logger.Debug("chat request completed", "url", url, "status", status, "elapsed", time.Since(start))

	if status < 200 || status >= 300 {
		return "", apierrors.NewAPIErrorWithBody(status, models.EndpointChat, "chat request failed", string(body))
	}

	return parseChatResponse(body)
}

// parseChatResponse extracts the "response" string from a /chat body
func parseChatResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response body is not valid JSON", "")
	}

	result := gjson.GetBytes(body, "response")
	if !result.Exists() {
		return "", apierrors.NewParseError("missing field", "response")
	}
	if result.Type != gjson.String {
		return "", apierrors.NewParseError(fmt.Sprintf("expected string, got %s", result.Type), "response")
	}

	return result.String(), nil
}

// Health checks that the server answers GET /health with status "ok"
func (c *Client) Health(ctx context.Context) error {
	if c.IsClosed() {
		return fmt.Errorf("client is closed")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(models.EndpointHealth), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(ctx, req, "health check")
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return apierrors.NewAPIErrorWithBody(status, models.EndpointHealth, "server is not healthy", string(body))
	}

	if s := gjson.GetBytes(body, "status").String(); s != "ok" {
		return apierrors.NewParseError(fmt.Sprintf("unexpected status %q", s), "status")
	}
	return nil
}

// do executes req and reads the (bounded) body, classifying transport errors
func (c *Client) do(ctx context.Context, req *http.Request, operation string) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || apierrors.IsTimeoutError(err) {
			return nil, 0, apierrors.NewTimeoutError(fmt.Sprintf("%s after %s", operation, c.timeout))
		}
		return nil, 0, apierrors.NewNetworkErrorWithEndpoint(operation, req.URL.String(), err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, apierrors.NewNetworkErrorWithEndpoint(operation, req.URL.String(), err)
	}

	return body, resp.StatusCode, nil
}
