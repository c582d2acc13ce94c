package driven

import (
	"context"

	"github.com/gwenonit/outlook-cli/internal/core/domain"
)

// IdentityProvider abstracts the remote identity platform's token endpoints.
// The concrete implementation talks to Microsoft's identity platform; tests
// substitute a fake to drive the token lifecycle deterministically.
//
// Tenant is a call parameter rather than constructor state because stored
// records may have been issued under different tenants and a refresh must
// go back to the tenant that issued the tokens.
type IdentityProvider interface {
	// RequestDeviceCode initiates a device-code authorization and returns
	// the codes, verification URI, polling interval and expiry.
	RequestDeviceCode(ctx context.Context, tenant, clientID string, scopes []string) (*domain.DeviceAuthorization, error)

	// RedeemDeviceCode polls the token endpoint once for the given device
	// code. While the operator has not finished signing in it returns
	// domain.ErrAuthorizationPending (or domain.ErrSlowDown when the
	// provider wants a longer interval). Terminal failures are
	// domain.ErrAuthorizationDeclined and domain.ErrDeviceCodeExpired.
	RedeemDeviceCode(ctx context.Context, tenant, clientID, deviceCode string) (*domain.TokenSet, error)

	// Refresh exchanges a refresh token for a new token set. Returns
	// domain.ErrRefreshTokenInvalid when the provider rejects the token
	// and domain.ErrTransientToken for network or server-side failures.
	Refresh(ctx context.Context, tenant, clientID, refreshToken string) (*domain.TokenSet, error)

	// ResolveAccount looks up the authenticated user's unique identifier
	// (email or UPN) using a freshly issued access token.
	ResolveAccount(ctx context.Context, accessToken string) (string, error)
}
