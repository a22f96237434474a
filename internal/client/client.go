// Package client is a Go client for the burnout prediction HTTP API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"burnout-risk/internal/common"

	"github.com/go-resty/resty/v2"
)

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
	r.SetHeader("Content-Type", "application/json")
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

// Point is one dated score. Date is an ISO date or date-time string.
type Point struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
}

type PredictRequest struct {
	UserID string  `json:"user_id"`
	Series []Point `json:"series"`
}

type PredictResponse struct {
	UserID       string             `json:"user_id"`
	Probability  float64            `json:"prob_close_to_burnout"`
	Features     map[string]float64 `json:"features"`
	ModelVersion string             `json:"model_version,omitempty"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	ModelPath    string `json:"model_path"`
	ModelExists  bool   `json:"model_exists"`
	ModelVersion string `json:"model_version,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Predict scores a series. Server-side validation failures come back as
// common.ErrInputValidation or common.ErrEmptySeries and a missing model as
// common.ErrModelUnavailable.
func (c *Client) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	out := &PredictResponse{}
	apiErr := &apiError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(out).
		SetError(apiErr).
		Post(c.base + "/predict")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), apiErr)
	}
	return out, nil
}

// Health fetches the server's health report
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	out := &HealthResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(out).
		Get(c.base + "/health")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return out, nil
}

func statusError(status int, e *apiError) error {
	switch {
	case status == http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", e.Error, common.ErrModelUnavailable)
	case status == http.StatusBadRequest && e.Kind == string(common.KindEmptySeries):
		return fmt.Errorf("%s: %w", e.Error, common.ErrEmptySeries)
	case status == http.StatusBadRequest:
		return fmt.Errorf("%s: %w", e.Error, common.ErrInputValidation)
	default:
		return fmt.Errorf("API error: status %d: %s", status, e.Error)
	}
}
