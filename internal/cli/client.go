// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soapbox/internal/models"
)

// headerAPIKey matches the server's admin key header.
const headerAPIKey = "x-soapbox-key"

// envelope mirrors models.APIResponse with the payload left undecoded.
type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

// Client calls the Soapbox HTTP API.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

// NewClient creates a client from the root options.
func NewClient(opts *RootOptions) *Client {
	return &Client{
		baseURL: strings.TrimRight(opts.URL, "/"),
		key:     opts.Key,
		http:    &http.Client{Timeout: opts.Timeout},
	}
}

// Do sends a request and returns the envelope payload. A non-2xx answer
// becomes an ExitError with ExitFailure; transport problems use
// ExitCommandError.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "build request", err)
	}
	if c.key != "" {
		req.Header.Set(headerAPIKey, c.key)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s %s", method, path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read response", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return nil, NewExitError(ExitFailure, fmt.Sprintf("%s %s: HTTP %d", method, path, resp.StatusCode))
		}
		return nil, WrapExitError(ExitCommandError, "decode response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("%s %s: HTTP %d", method, path, resp.StatusCode)
		if env.Error != nil {
			msg = fmt.Sprintf("%s %s: %s: %s", method, path, env.Error.Code, env.Error.Message)
		}
		return env.Data, NewExitError(ExitFailure, msg)
	}
	return env.Data, nil
}
