package driving

import (
	"context"

	"github.com/gwenonit/outlook-cli/internal/core/domain"
)

// AuthService manages account credentials for the CLI commands.
type AuthService interface {
	// GetValidToken returns an unexpired access token for the account,
	// silently refreshing first if the stored token is at or near expiry.
	// Returns domain.ErrNotAuthenticated if the account has no stored
	// credentials, domain.ErrReauthenticationRequired if the refresh token
	// was rejected (the record is removed as a side effect), and
	// domain.ErrTransientToken for retryable failures.
	GetValidToken(ctx context.Context, account string) (string, error)

	// Login runs the device-code flow end to end and returns the
	// authenticated account's identifier. An existing record for the same
	// account is replaced.
	Login(ctx context.Context, tenant, clientID string, scopes []string) (string, error)

	// Logout removes the account's stored credentials. Idempotent.
	Logout(ctx context.Context, account string) error

	// ListAccounts returns the stored account identifiers in sorted order.
	// No network access and no validity check.
	ListAccounts(ctx context.Context) ([]string, error)

	// Status reports each stored account's record for display purposes.
	// Like ListAccounts it performs no network access.
	Status(ctx context.Context) ([]domain.CredentialRecord, error)

	// ResolveAccount maps an optional user-supplied account argument to a
	// stored account: an exact match passes through, an empty argument
	// resolves to the sole stored account. Returns
	// domain.ErrNotAuthenticated when nothing is stored.
	ResolveAccount(ctx context.Context, account string) (string, error)
}
