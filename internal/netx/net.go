// Package netx contains small HTTP client helpers.
package netx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrInvalidBody marks a 200 response whose body could not be decoded.
var ErrInvalidBody = errors.New("invalid response body")

// maxErrorBody caps how much of a non-2xx response is echoed into the error.
const maxErrorBody = 512

// GetJSON issues a GET to url with client and decodes a 200 response body
// into v. Any other status is reported as an error.
func GetJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("get %s failed: %s; body: %s", url, resp.Status, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w: %w", url, ErrInvalidBody, err)
	}
	return nil
}
