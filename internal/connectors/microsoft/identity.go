package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gwenonit/outlook-cli/internal/core/domain"
	"github.com/gwenonit/outlook-cli/internal/core/ports/driven"
)

// Identity platform constants.
const (
	defaultLoginBaseURL = "https://login.microsoftonline.com"

	// DefaultTenant serves personal Microsoft accounts. Organisational
	// accounts use their directory tenant or "common".
	DefaultTenant = "consumers"

	deviceCodeGrant = "urn:ietf:params:oauth:grant-type:device_code"

	tokenRequestTimeout = 30 * time.Second
)

// DefaultScopes are the scopes requested when the caller does not supply
// any. They cover everything the CLI can do.
var DefaultScopes = []string{
	"openid",
	"offline_access", // Required for refresh tokens
	"User.Read",      // Profile lookup (account resolution)
	"Mail.Read",
	"Mail.Send",
	"Calendars.ReadWrite",
	"Tasks.ReadWrite",
}

// IdentityClient talks to the Microsoft identity platform's device-code and
// token endpoints, and to Graph for profile lookup.
type IdentityClient struct {
	httpClient *http.Client

	// loginBase and graphBase are overridden in tests.
	loginBase string
	graphBase string
}

// Ensure IdentityClient implements the interface.
var _ driven.IdentityProvider = (*IdentityClient)(nil)

// NewIdentityClient creates a client against the public Microsoft endpoints.
func NewIdentityClient() *IdentityClient {
	return &IdentityClient{
		httpClient: &http.Client{Timeout: tokenRequestTimeout},
		loginBase:  defaultLoginBaseURL,
		graphBase:  graphBaseURL,
	}
}

// deviceCodeResponse is the identity platform's device-code initiation payload.
type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	Message         string `json:"message"`
}

// tokenResponse is the identity platform's token endpoint payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// tokenError is the OAuth2 error payload from the token endpoint.
type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// RequestDeviceCode initiates a device-code authorization.
func (c *IdentityClient) RequestDeviceCode(
	ctx context.Context,
	tenant, clientID string,
	scopes []string,
) (*domain.DeviceAuthorization, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	data := url.Values{}
	data.Set("client_id", clientID)
	data.Set("scope", strings.Join(scopes, " "))

	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/devicecode", c.loginBase, tenant)
	resp, err := c.postForm(ctx, endpoint, data)
	if err != nil {
		return nil, fmt.Errorf("%w: device code request: %v", domain.ErrTransientToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: device code request failed with status %d",
				domain.ErrTransientToken, resp.StatusCode)
		}
		oauthErr := decodeTokenError(resp.Body)
		return nil, fmt.Errorf("device code request rejected: %s", oauthErr)
	}

	var dc deviceCodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&dc); err != nil {
		return nil, fmt.Errorf("decode device code response: %w", err)
	}

	auth := &domain.DeviceAuthorization{
		DeviceCode:      dc.DeviceCode,
		UserCode:        dc.UserCode,
		VerificationURI: dc.VerificationURI,
		Interval:        time.Duration(dc.Interval) * time.Second,
		ExpiresAt:       time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second),
	}
	if auth.VerificationURI == "" {
		auth.VerificationURI = "https://microsoft.com/devicelogin"
	}
	return auth, nil
}

// RedeemDeviceCode polls the token endpoint once for the device code.
func (c *IdentityClient) RedeemDeviceCode(
	ctx context.Context,
	tenant, clientID, deviceCode string,
) (*domain.TokenSet, error) {
	data := url.Values{}
	data.Set("client_id", clientID)
	data.Set("grant_type", deviceCodeGrant)
	data.Set("device_code", deviceCode)

	resp, err := c.postForm(ctx, c.tokenEndpoint(tenant), data)
	if err != nil {
		return nil, fmt.Errorf("%w: token request: %v", domain.ErrTransientToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return decodeTokenSet(resp.Body)
	}

	oauthErr := decodeTokenError(resp.Body)
	switch oauthErr.Error {
	case "authorization_pending":
		return nil, domain.ErrAuthorizationPending
	case "slow_down":
		return nil, domain.ErrSlowDown
	case "authorization_declined":
		return nil, domain.ErrAuthorizationDeclined
	case "expired_token":
		return nil, domain.ErrDeviceCodeExpired
	default:
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, oauthErr)
	}
}

// Refresh exchanges a refresh token for a new token set. Microsoft may
// rotate the refresh token; callers must persist the returned one.
func (c *IdentityClient) Refresh(
	ctx context.Context,
	tenant, clientID, refreshToken string,
) (*domain.TokenSet, error) {
	data := url.Values{}
	data.Set("client_id", clientID)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	resp, err := c.postForm(ctx, c.tokenEndpoint(tenant), data)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh request: %v", domain.ErrTransientToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return decodeTokenSet(resp.Body)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: refresh failed with status %d",
			domain.ErrTransientToken, resp.StatusCode)
	}

	oauthErr := decodeTokenError(resp.Body)
	if oauthErr.Error == "invalid_grant" {
		return nil, fmt.Errorf("%w: %s", domain.ErrRefreshTokenInvalid, oauthErr)
	}
	return nil, fmt.Errorf("refresh failed with status %d: %s", resp.StatusCode, oauthErr)
}

// ResolveAccount fetches the authenticated user's profile and returns the
// email address (or UPN) that keys the credential store.
func (c *IdentityClient) ResolveAccount(ctx context.Context, accessToken string) (string, error) {
	userInfo, err := fetchUserInfo(ctx, c.httpClient, c.graphBase, accessToken)
	if err != nil {
		return "", err
	}
	email := userInfo.Email()
	if email == "" {
		return "", fmt.Errorf("profile has neither mail nor userPrincipalName")
	}
	return email, nil
}

func (c *IdentityClient) tokenEndpoint(tenant string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.loginBase, tenant)
}

func (c *IdentityClient) postForm(ctx context.Context, endpoint string, data url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

func decodeTokenSet(body io.Reader) (*domain.TokenSet, error) {
	var tr tokenResponse
	if err := json.NewDecoder(body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	tokens := &domain.TokenSet{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		tokens.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	if tr.Scope != "" {
		tokens.Scopes = strings.Fields(tr.Scope)
	}
	return tokens, nil
}

func decodeTokenError(body io.Reader) tokenError {
	var te tokenError
	// A body that fails to decode leaves an empty error code, which maps to
	// the generic failure path.
	_ = json.NewDecoder(body).Decode(&te)
	return te
}

// String renders the OAuth error for messages.
func (e tokenError) String() string {
	if e.ErrorDescription != "" {
		return fmt.Sprintf("%s: %s", e.Error, e.ErrorDescription)
	}
	return e.Error
}
