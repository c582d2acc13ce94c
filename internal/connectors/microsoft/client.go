package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// TokenSource supplies a valid bearer token for an account, refreshing
// behind the scenes if needed.
type TokenSource interface {
	GetValidToken(ctx context.Context, account string) (string, error)
}

// Client is an authenticated HTTP client for Microsoft Graph. Every request
// waits on the service's rate limiter, carries a Bearer token from the
// TokenSource and a client-request-id header for Graph-side correlation.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	account    string
	limiter    *RateLimiter
	baseURL    string
}

// NewClient creates a Graph client for one account and service.
func NewClient(tokens TokenSource, account string, service ServiceType) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		account:    account,
		limiter:    NewRateLimiter(service),
		baseURL:    graphBaseURL,
	}
}

// SetBaseURL points the client at a different Graph endpoint. Used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs a POST request with a JSON body. out may be nil for
// endpoints that return no payload (202/204).
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.tokens.GetValidToken(ctx, c.account)
	if err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("client-request-id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.RecordRateLimitError(ParseRetryAfter(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode >= 400 {
		detail := readErrorDetail(resp.Body)
		if wrapped := WrapError(resp.StatusCode); wrapped != nil {
			return fmt.Errorf("graph request %s %s failed with status %d%s: %w",
				method, path, resp.StatusCode, detail, wrapped)
		}
		return fmt.Errorf("graph request %s %s failed with status %d%s",
			method, path, resp.StatusCode, detail)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// graphError is the error envelope Graph returns on failures.
type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func readErrorDetail(body io.Reader) string {
	var ge graphError
	if err := json.NewDecoder(body).Decode(&ge); err != nil || ge.Error.Code == "" {
		return ""
	}
	return fmt.Sprintf(" (%s: %s)", ge.Error.Code, ge.Error.Message)
}
