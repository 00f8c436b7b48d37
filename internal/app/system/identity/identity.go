// internal/app/system/identity/identity.go
//
// Package identity delegates password resets to the external identity
// provider's REST API.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/deruta/internal/app/system/apperr"
)

// DefaultBaseURL is the identity provider's public endpoint.
const DefaultBaseURL = "https://identitytoolkit.googleapis.com"

// Client sends out-of-band account emails.
type Client struct {
	baseURL    string
	apiKey     string
	httpclient *http.Client
}

// New creates a Client. An empty baseURL uses DefaultBaseURL; a nil
// httpclient gets a client with a 10s timeout.
func New(baseURL, apiKey string, httpclient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpclient == nil {
		httpclient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpclient: httpclient,
	}
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

type providerError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendPasswordReset asks the provider to email a reset link.
//
// A rejection by the provider (unknown email, bad key) comes back as a
// Validation error carrying the provider's message. Transport failures
// are Persistence errors.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return apperr.Validation("email is required")
	}

	body, err := json.Marshal(oobRequest{RequestType: "PASSWORD_RESET", Email: email})
	if err != nil {
		return apperr.Persistence("could not encode reset request", err)
	}

	endpoint := c.baseURL + "/v1/accounts:sendOobCode?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return apperr.Persistence("could not build reset request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return apperr.Persistence("could not contact identity provider", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperr.Persistence("could not read identity provider response", err)
	}

	var pe providerError
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &pe); err != nil && resp.StatusCode < 300 {
			return apperr.Persistence("unexpected identity provider response", err)
		}
	}
	if pe.Error != nil && pe.Error.Message != "" {
		return apperr.Validation(pe.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return apperr.Persistence("identity provider error",
			fmt.Errorf("status code = %d", resp.StatusCode))
	}
	return nil
}
