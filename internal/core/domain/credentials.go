package domain

import "time"

// CredentialRecord holds the stored credentials for one authenticated account.
// A record only exists after a device-code login has completed successfully.
type CredentialRecord struct {
	// Account is the user's email address (or UPN), the unique store key.
	Account string `json:"account"`
	// ClientID is the Azure AD application the tokens were issued under.
	ClientID string `json:"client_id"`
	// Tenant is the directory tenant used for issuance; refreshes must go
	// back to the same tenant.
	Tenant string `json:"tenant"`
	// AccessToken is the short-lived bearer token for Graph calls.
	AccessToken string `json:"access_token"`
	// RefreshToken is the long-lived token used for silent renewal. It is
	// retained even after the access token expires.
	RefreshToken string `json:"refresh_token"`
	// Expiry is the absolute access token expiry time in UTC.
	Expiry time.Time `json:"expiry"`
	// Scopes are the granted OAuth scopes.
	Scopes []string `json:"scopes"`
}

// TokenSet is one issuance from the identity provider, either from
// completing a device-code flow or from a refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Scopes       []string
}

// DeviceAuthorization is the identity provider's response to a device-code
// initiation request. UserCode and VerificationURI are shown to the
// operator; DeviceCode is polled until the operator completes sign-in.
type DeviceAuthorization struct {
	DeviceCode      string
	UserCode        string
	VerificationURI string
	// Interval is the minimum polling interval mandated by the provider.
	Interval time.Duration
	// ExpiresAt bounds the whole login attempt; polling past it is futile.
	ExpiresAt time.Time
}
