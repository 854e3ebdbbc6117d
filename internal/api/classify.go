package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Verdict is the backend's textual assessment of one decoded payload.
type Verdict struct {
	Message string
}

// classifyResponse mirrors the endpoint's two-field JSON body. Exactly one of
// the fields is set per response.
type classifyResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Classify submits a decoded payload for classification.
// The payload is sent URL-encoded as the `exp` query parameter.
//   - 2xx with a `response` field yields a Verdict.
//   - 2xx with an `error` field yields a ClassificationError.
//   - Any other status yields a RemoteError carrying the status code.
func (c *Client) Classify(ctx context.Context, payload string) (Verdict, error) {
	q := url.Values{}
	q.Set("exp", payload)
	full := c.buildURL(q)

	req, err := c.newRequest(ctx, http.MethodGet, full, nil)
	if err != nil {
		return Verdict{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Verdict{}, RemoteError{StatusCode: resp.StatusCode}
	}

	var body classifyResponse
	if err := decodeJSON(resp.Body, &body); err != nil {
		return Verdict{}, fmt.Errorf("classify response: %w", err)
	}
	if body.Error != "" {
		return Verdict{}, ClassificationError{Message: body.Error}
	}
	return Verdict{Message: body.Response}, nil
}
