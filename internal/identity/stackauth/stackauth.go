// Package stackauth validates access tokens against the Stack Auth REST API.
package stackauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/identity"
)

const (
	userPath = "/api/v1/users/me"

	headerAccessType   = "x-stack-access-type"
	headerProjectID    = "x-stack-project-id"
	headerClientKey    = "x-stack-publishable-client-key"
	headerServerKey    = "x-stack-secret-server-key"
	headerAccessToken  = "x-stack-access-token"
	accessTypeServer   = "server"
	maxErrorBodyLength = 512
)

// ErrBaseURLRequired is returned by New without a base url.
var ErrBaseURLRequired = errors.New("stack auth base url is required")

// Client implements identity.Provider.
type Client struct {
	cfg        config.StackAuth
	httpClient *http.Client
}

var _ identity.Provider = (*Client)(nil)

// New creates a Stack Auth client.
func New(cfg config.StackAuth) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// GetUser returns the user the access token belongs to. Rejected tokens yield nil.
func (c *Client) GetUser(ctx context.Context, authorization string) (*identity.Identity, error) {
	token := identity.BearerToken(authorization)
	if token == "" {
		return nil, nil //nolint:nilnil // no credential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(c.cfg.BaseURL, "/")+userPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build stack auth request")
	}

	req.Header.Set(headerAccessType, accessTypeServer)
	req.Header.Set(headerProjectID, c.cfg.ProjectID)
	req.Header.Set(headerServerKey, c.cfg.SecretServerKey)
	req.Header.Set(headerAccessToken, token)

	if c.cfg.PublishableClientKey != "" {
		req.Header.Set(headerClientKey, c.cfg.PublishableClientKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "stack auth request failed")
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		log.Debug().Int("status", resp.StatusCode).Str("body", string(body)).Msg("stack auth rejected token")

		return nil, nil //nolint:nilnil // token not accepted
	}

	var user identity.Identity
	if err = json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, "failed to decode stack auth user")
	}

	if user.ID == "" {
		return nil, nil //nolint:nilnil // no usable identity
	}

	return &user, nil
}
