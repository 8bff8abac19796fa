// Package identity talks to the external identity provider that issued the
// bearer tokens clients present.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// TokenInfo is the verified identity the provider returns for a valid token.
type TokenInfo struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Client exposes the identity provider operations used by the application.
type Client interface {
	Introspect(ctx context.Context, token string) (*TokenInfo, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds an identity provider client for the given base URL.
func NewClient(baseURL string) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &APIClient{httpClient: restyClient}
}

// apiError represents the provider's error payload.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Introspect exchanges a bearer token for the verified identity behind it.
func (c *APIClient) Introspect(ctx context.Context, token string) (*TokenInfo, error) {
	result := new(TokenInfo)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(result).
		SetError(apiErr).
		Get("/tokeninfo")
	if err != nil {
		return nil, fmt.Errorf("introspect token: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := ""
		code := resp.StatusCode()
		if apiErr != nil {
			message = apiErr.Error.Message
			if apiErr.Error.Code != 0 {
				code = apiErr.Error.Code
			}
		}
		return nil, fmt.Errorf("identity provider error: code=%d, message=%s", code, message)
	}

	if result.Subject == "" {
		return nil, fmt.Errorf("identity provider returned no subject")
	}

	return result, nil
}
