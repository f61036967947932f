// Package client talks to a running heartd over its JSON API.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"heart-predictor/internal/storage"
	"heart-predictor/internal/web"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
	Feature    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("heartd: status %d", e.StatusCode)
	}
	return fmt.Sprintf("heartd: status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	base string
	rest *resty.Client
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	r.SetHeader("Accept", "application/json")
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

// Predict classifies one vector remotely.
func (c *Client) Predict(ctx context.Context, req web.PredictRequest) (*web.PredictResponse, error) {
	out := &web.PredictResponse{}
	if err := c.do(ctx, "POST", "/api/v1/predict", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Features returns the model inputs, their ranges and the default vector.
func (c *Client) Features(ctx context.Context) (*web.FeaturesResponse, error) {
	out := &web.FeaturesResponse{}
	if err := c.do(ctx, "GET", "/api/v1/features", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ModelInfo(ctx context.Context) (*web.ModelInfoResponse, error) {
	out := &web.ModelInfoResponse{}
	if err := c.do(ctx, "GET", "/model/info", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Health(ctx context.Context) (*web.HealthResponse, error) {
	out := &web.HealthResponse{}
	if err := c.do(ctx, "GET", "/health", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns stored outcome counts. It fails with a 404 APIError when the
// server runs without storage.
func (c *Client) Stats(ctx context.Context) (*storage.Counts, error) {
	out := &storage.Counts{}
	if err := c.do(ctx, "GET", "/api/v1/stats", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Outcomes lists stored outcomes of one model version. Empty version means the
// loaded model; zero times leave the server's default window in place.
func (c *Client) Outcomes(ctx context.Context, version string, start, end time.Time) (*web.OutcomesResponse, error) {
	q := url.Values{}
	if version != "" {
		q.Set("version", version)
	}
	if !start.IsZero() {
		q.Set("start", start.Format(time.RFC3339Nano))
	}
	if !end.IsZero() {
		q.Set("end", end.Format(time.RFC3339Nano))
	}
	path := "/api/v1/outcomes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	out := &web.OutcomesResponse{}
	if err := c.do(ctx, "GET", path, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &web.ErrorResponse{}
	req := c.rest.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, c.base+path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Kind:       apiErr.Kind,
			Message:    apiErr.Error,
			Feature:    apiErr.Feature,
		}
	}
	if !resp.IsSuccess() {
		return &APIError{StatusCode: resp.StatusCode(), Message: resp.String()}
	}
	return nil
}
