// Package dispatch submits mapped payloads to a provider's asynchronous job
// queue and normalizes every outcome into one tagged result shape. The client
// holds no state between calls; polling is single-shot and the caller owns
// the re-poll schedule.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/infra"
)

// ErrMissingEndpoint indicates a submit attempt without a target endpoint.
var ErrMissingEndpoint = errors.New("dispatch: endpoint is required")

// Options configures the queue client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against a provider job-queue API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

type submitResponse struct {
	RequestID string `json:"request_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://queue.fal.run"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Submit enqueues the payload at the endpoint and returns the provider's
// prediction id. A non-nil Outcome describes the failure; the two returns are
// mutually exclusive.
func (c *Client) Submit(ctx context.Context, endpoint string, payload map[string]any, customAPIKey string) (string, *Outcome) {
	if strings.TrimSpace(endpoint) == "" {
		fail := failure(http.StatusInternalServerError, ErrMissingEndpoint.Error())
		return "", &fail
	}
	body, err := json.Marshal(payload)
	if err != nil {
		fail := failure(http.StatusInternalServerError, fmt.Sprintf("encode payload: %v", err))
		return "", &fail
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(endpoint), bytes.NewReader(body))
	if err != nil {
		fail := failure(http.StatusInternalServerError, fmt.Sprintf("build request: %v", err))
		return "", &fail
	}
	c.setHeaders(req, customAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fail := networkFailure(err)
		return "", &fail
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		fail := networkFailure(err)
		return "", &fail
	}
	if resp.StatusCode >= 300 {
		fail := failureFromBody(resp.StatusCode, raw)
		return "", &fail
	}

	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.RequestID == "" {
		fail := failure(http.StatusBadGateway, "provider did not return a request id")
		return "", &fail
	}
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("prediction_id", decoded.RequestID).
		Msg("dispatch: job queued")
	return decoded.RequestID, nil
}

// Poll performs one status check for a queued job. While the job runs it
// returns an in_progress outcome with no data; the caller re-polls on its own
// schedule. Repeated polls of a completed job return the same result.
func (c *Client) Poll(ctx context.Context, endpoint, predictionID, customAPIKey string) Outcome {
	statusURL := fmt.Sprintf("%s/requests/%s/status", c.endpointURL(endpoint), url.PathEscape(predictionID))
	raw, code, err := c.get(ctx, statusURL, customAPIKey)
	if err != nil {
		return networkFailure(err)
	}
	if code >= 300 {
		return failureFromBody(code, raw)
	}
	var status statusResponse
	if err := json.Unmarshal(raw, &status); err != nil {
		return failure(http.StatusBadGateway, "provider returned an unreadable status")
	}
	if !strings.EqualFold(status.Status, "completed") {
		return Outcome{Status: StatusInProgress}
	}

	resultURL := fmt.Sprintf("%s/requests/%s", c.endpointURL(endpoint), url.PathEscape(predictionID))
	raw, code, err = c.get(ctx, resultURL, customAPIKey)
	if err != nil {
		return networkFailure(err)
	}
	if code >= 300 {
		return failureFromBody(code, raw)
	}
	return normalizeResult(raw)
}

func (c *Client) get(ctx context.Context, rawURL, customAPIKey string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	c.setHeaders(req, customAPIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) endpointURL(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// setHeaders applies auth. A per-call key overrides the shared credential;
// absence of both is valid and means the provider decides.
func (c *Client) setHeaders(req *http.Request, customAPIKey string) {
	req.Header.Set("Content-Type", "application/json")
	key := strings.TrimSpace(customAPIKey)
	if key == "" {
		key = c.apiKey
	}
	if key != "" {
		req.Header.Set("Authorization", "Key "+key)
	}
}
