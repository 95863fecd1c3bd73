// Package issuance is the client of the downstream credential issuance service
// that hands out per organization service keys.
package issuance

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	serviceKeysPath = "/api/v1/service-keys/"
	headerSecretKey = "X-Secret-Key"

	// DefaultTimeout bounds a single issuance call.
	DefaultTimeout = 10 * time.Second

	maxBodyLength = 64 << 10
)

// ErrURLRequired is returned by New without a service url.
var ErrURLRequired = errors.New("issuance service url is required")

// Request is the body of a service key request.
type Request struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	ExpiresInDays  int     `json:"expires_in_days"`
	CreatedBy      string  `json:"created_by"`
	OrganizationID *uint64 `json:"organization_id,omitempty"`
}

// Response is what the service answered. ServiceKey is empty when the body
// did not carry one.
type Response struct {
	StatusCode int
	ServiceKey string
	Body       string
}

// OK reports a 200 answer with a usable key.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK && r.ServiceKey != ""
}

// Client calls the issuance service.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, ErrURLRequired
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// CreateServiceKey requests a new key. secretKey is sent as X-Secret-Key when set.
// Non 200 answers are returned as Response, errors are transport failures only.
func (c *Client) CreateServiceKey(ctx context.Context, req Request, secretKey string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode service key request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+serviceKeysPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build service key request")
	}

	httpReq.Header.Set("Content-Type", "application/json")

	if secretKey != "" {
		httpReq.Header.Set(headerSecretKey, secretKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "service key request failed")
	}

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyLength))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read service key response")
	}

	out := &Response{StatusCode: resp.StatusCode, Body: string(raw)}

	if resp.StatusCode == http.StatusOK {
		var payload struct {
			ServiceKey string `json:"service_key"`
		}

		if json.Unmarshal(raw, &payload) == nil {
			out.ServiceKey = payload.ServiceKey
		}
	}

	return out, nil
}
