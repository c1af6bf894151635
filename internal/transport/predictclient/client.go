// Package predictclient is the HTTP client the dashboard uses to reach the prediction API.
package predictclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

// ErrStatus is returned when the API answers with a non-200 status.
var ErrStatus = errors.New("prediction api returned an error status")

// Client calls the prediction API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Text       string          `json:"text"`
	TrueLabels domain.LabelMap `json:"true_labels,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Predict sends text and optional true labels and returns the logged record.
func (c *Client) Predict(ctx context.Context, text string, trueLabels domain.LabelMap) (domain.PredictionRecord, error) {
	body, err := json.Marshal(PredictRequest{Text: text, TrueLabels: trueLabels})
	if err != nil {
		return domain.PredictionRecord{}, fmt.Errorf("marshal request: %w", err)
	}

	var rec domain.PredictionRecord
	if err := c.do(ctx, http.MethodPost, "/predict", body, &rec); err != nil {
		return domain.PredictionRecord{}, err
	}
	return rec, nil
}

// Health fetches the API liveness report.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var h HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return HealthResponse{}, err
	}
	return h, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s %s: %d: %s", ErrStatus, method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
