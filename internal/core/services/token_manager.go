package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gwenonit/outlook-cli/internal/core/domain"
	"github.com/gwenonit/outlook-cli/internal/core/ports/driven"
	"github.com/gwenonit/outlook-cli/internal/core/ports/driving"
)

// Token lifecycle tuning.
const (
	// expiryMargin is how close to expiry a stored access token may be
	// before it is refreshed rather than returned as-is.
	expiryMargin = 5 * time.Minute

	// defaultPollInterval is used when the provider does not mandate a
	// device-code polling interval.
	defaultPollInterval = 5 * time.Second

	// slowDownIncrement is added to the polling interval on each slow_down
	// response, per RFC 8628 §3.5.
	slowDownIncrement = 5 * time.Second
)

// flowState tracks one device-code login attempt.
type flowState int

const (
	// flowRequested: a device code has been obtained and is about to be
	// presented to the operator.
	flowRequested flowState = iota
	// flowPolling: waiting for the operator to complete browser sign-in.
	flowPolling
	// flowAuthorized: tokens issued; the record is persisted and the
	// attempt succeeds.
	flowAuthorized
	// flowDenied: the operator declined the request.
	flowDenied
	// flowExpired: the device code's validity window elapsed.
	flowExpired
	// flowFailed: an unrecoverable protocol error occurred.
	flowFailed
)

// TokenManager orchestrates the device-code flow, silent refresh and expiry
// checks. It holds tokens in memory only for the duration of one operation;
// the store owns the durable representation.
type TokenManager struct {
	store driven.CredentialsStore
	idp   driven.IdentityProvider

	// notify presents the device code to the operator during login.
	notify func(domain.DeviceAuthorization)

	// now and sleep are injected so tests can drive the polling loop and
	// expiry decisions deterministically.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Ensure TokenManager implements the interface.
var _ driving.AuthService = (*TokenManager)(nil)

// NewTokenManager creates a TokenManager backed by the given store and
// identity provider.
func NewTokenManager(store driven.CredentialsStore, idp driven.IdentityProvider) *TokenManager {
	return &TokenManager{
		store:  store,
		idp:    idp,
		notify: func(domain.DeviceAuthorization) {},
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// SetNotify registers the callback that presents the verification URI and
// user code to the operator when a login starts.
func (m *TokenManager) SetNotify(fn func(domain.DeviceAuthorization)) {
	if fn != nil {
		m.notify = fn
	}
}

// GetValidToken returns an unexpired access token for the account. If the
// stored token expires within the safety margin a silent refresh is
// attempted and the updated record persisted before the token is returned.
func (m *TokenManager) GetValidToken(ctx context.Context, account string) (string, error) {
	records, err := m.store.Load(ctx)
	if err != nil {
		return "", err
	}

	rec, ok := records[account]
	if !ok {
		return "", fmt.Errorf("%w: no credentials for %s", domain.ErrNotAuthenticated, account)
	}

	// Comfortably inside the validity window: no network call.
	if rec.Expiry.After(m.now().Add(expiryMargin)) {
		return rec.AccessToken, nil
	}

	tokens, err := m.idp.Refresh(ctx, rec.Tenant, rec.ClientID, rec.RefreshToken)
	if errors.Is(err, domain.ErrRefreshTokenInvalid) {
		// The refresh token is gone for good. Remove the stale record so
		// subsequent calls fail fast with a consistent error.
		if derr := m.store.Delete(ctx, account); derr != nil {
			return "", derr
		}
		return "", fmt.Errorf("%w: %s", domain.ErrReauthenticationRequired, account)
	}
	if err != nil {
		return "", fmt.Errorf("refresh token for %s: %w", account, err)
	}

	rec.AccessToken = tokens.AccessToken
	rec.Expiry = tokens.Expiry
	if tokens.RefreshToken != "" {
		// The provider rotated the refresh token.
		rec.RefreshToken = tokens.RefreshToken
	}
	if len(tokens.Scopes) > 0 {
		rec.Scopes = tokens.Scopes
	}

	records[account] = rec
	if err := m.store.Save(ctx, records); err != nil {
		return "", err
	}
	return rec.AccessToken, nil
}

// Login drives the device-code flow end to end: request a code, present it
// to the operator, poll until a terminal state, then resolve the account and
// persist the record. No record is persisted for a failed attempt.
func (m *TokenManager) Login(ctx context.Context, tenant, clientID string, scopes []string) (string, error) {
	auth, err := m.idp.RequestDeviceCode(ctx, tenant, clientID, scopes)
	if err != nil {
		return "", fmt.Errorf("request device code: %w", err)
	}

	interval := auth.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	var tokens *domain.TokenSet
	state := flowRequested
	for {
		switch state {
		case flowRequested:
			m.notify(*auth)
			state = flowPolling

		case flowPolling:
			if !m.now().Before(auth.ExpiresAt) {
				state = flowExpired
				continue
			}
			if err := m.sleep(ctx, interval); err != nil {
				return "", err
			}

			tokens, err = m.idp.RedeemDeviceCode(ctx, tenant, clientID, auth.DeviceCode)
			switch {
			case err == nil:
				state = flowAuthorized
			case errors.Is(err, domain.ErrAuthorizationPending):
				// Operator still signing in; keep polling.
			case errors.Is(err, domain.ErrSlowDown):
				interval += slowDownIncrement
			case errors.Is(err, domain.ErrAuthorizationDeclined):
				state = flowDenied
			case errors.Is(err, domain.ErrDeviceCodeExpired):
				state = flowExpired
			default:
				state = flowFailed
			}

		case flowAuthorized:
			return m.persistLogin(ctx, tenant, clientID, tokens)

		case flowDenied:
			return "", domain.ErrAuthorizationDeclined

		case flowExpired:
			return "", domain.ErrDeviceCodeExpired

		case flowFailed:
			return "", fmt.Errorf("device code login: %w", err)
		}
	}
}

// persistLogin resolves the authenticated account and stores its record,
// replacing any prior record for the same account.
func (m *TokenManager) persistLogin(ctx context.Context, tenant, clientID string, tokens *domain.TokenSet) (string, error) {
	account, err := m.idp.ResolveAccount(ctx, tokens.AccessToken)
	if err != nil {
		return "", fmt.Errorf("resolve account: %w", err)
	}

	records, err := m.store.Load(ctx)
	if err != nil {
		return "", err
	}
	records[account] = domain.CredentialRecord{
		Account:      account,
		ClientID:     clientID,
		Tenant:       tenant,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Expiry:       tokens.Expiry,
		Scopes:       tokens.Scopes,
	}
	if err := m.store.Save(ctx, records); err != nil {
		return "", err
	}
	return account, nil
}

// Logout removes the account's credentials. Idempotent.
func (m *TokenManager) Logout(ctx context.Context, account string) error {
	return m.store.Delete(ctx, account)
}

// ListAccounts returns the stored account identifiers in sorted order.
func (m *TokenManager) ListAccounts(ctx context.Context) ([]string, error) {
	records, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]string, 0, len(records))
	for account := range records {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts, nil
}

// Status returns each stored record sorted by account, for display. No
// validity check is performed; a listed token may still need a refresh on
// next use.
func (m *TokenManager) Status(ctx context.Context) ([]domain.CredentialRecord, error) {
	records, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.CredentialRecord, 0, len(records))
	for _, rec := range records {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Account < result[j].Account })
	return result, nil
}

// ResolveAccount maps an optional account argument to a stored account. An
// empty argument resolves to the first stored account in sorted order.
func (m *TokenManager) ResolveAccount(ctx context.Context, account string) (string, error) {
	accounts, err := m.ListAccounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("%w: no accounts stored", domain.ErrNotAuthenticated)
	}
	if account == "" {
		return accounts[0], nil
	}
	for _, a := range accounts {
		if a == account {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: no credentials for %s", domain.ErrNotAuthenticated, account)
}

// sleepContext sleeps for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
