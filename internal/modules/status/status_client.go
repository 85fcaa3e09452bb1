package status

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"geo-alert/internal/models"
)

// FetchError describes a transport-level failure of a status fetch. A
// StatusCode of 0 means no HTTP response was received (timeout, connection error).
type FetchError struct {
	WorkerID   int
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("fetch status for worker %d: %s", e.WorkerID, e.Message)
	}
	return fmt.Sprintf("fetch status for worker %d: %d %s", e.WorkerID, e.StatusCode, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClientInterface retrieves the raw status payload of one worker.
type ClientInterface interface {
	FetchStatus(ctx context.Context, workerID int) (*models.FeatureCollection, error)
}

// Client fetches GET <base>/clinicianstatus/{id}.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a status client. Every request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
}

// FetchStatus returns the decoded payload, a *FetchError for non-200
// responses and transport failures, or models.ErrMalformedPayload when a 200
// body is not a feature collection.
func (c *Client) FetchStatus(ctx context.Context, workerID int) (*models.FeatureCollection, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/clinicianstatus/%d", c.baseURL, workerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("status.FetchStatus: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		msg := err.Error()
		if ctx.Err() == context.DeadlineExceeded {
			msg = fmt.Sprintf("request timed out after %s", c.timeout)
		}
		return nil, &FetchError{WorkerID: workerID, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, &FetchError{WorkerID: workerID, StatusCode: resp.StatusCode, Message: reason(resp)}
	}

	var fc models.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		if ctx.Err() != nil {
			return nil, &FetchError{WorkerID: workerID, Message: "reading response body: " + ctx.Err().Error(), Err: err}
		}
		return nil, fmt.Errorf("%w: decode body: %v", models.ErrMalformedPayload, err)
	}
	return &fc, nil
}

// reason returns the reason phrase of the response, e.g. "Service Unavailable".
func reason(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
