package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// call issues an authenticated POST to the given endpoint and decodes the
// JSON response into out. Token acquisition strictly precedes payload
// construction, which strictly precedes the HTTP call: build runs only after
// the token is in hand, so timestamp-bearing payloads reflect the send time
// even when the exchange was slow. A non-2xx status is surfaced as an
// APIError carrying the raw body. A 401 additionally drops the cached token
// so the next operation performs a fresh exchange. No retries happen here;
// callers compose with the retry package explicitly.
func (c *Client) call(ctx context.Context, operation, endpoint string, build func() any, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(build())
	if err != nil {
		return fmt.Errorf("mpesa: failed to marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mpesa: failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return &TimeoutError{Operation: operation, Err: err}
		}
		return fmt.Errorf("mpesa: %s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("mpesa: failed to read %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate()
		}
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("mpesa: failed to parse %s response: %w", operation, err)
	}

	return nil
}

// isTimeout reports whether err represents a cancelled or timed-out call.
func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
