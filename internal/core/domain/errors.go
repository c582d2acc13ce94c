package domain

import "errors"

// Credential store errors.
var (
	// ErrStoreUnavailable indicates the credential store could not be read
	// or written (permissions, I/O failure). Prior state is left intact.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrCorruptStore indicates the persisted credential data could not be
	// parsed. Recovery is operator-driven: remove the store and log in again.
	ErrCorruptStore = errors.New("credential store corrupt")
)

// Token lifecycle errors.
var (
	// ErrNotAuthenticated indicates no credentials exist for the requested
	// account. The user must log in first.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrReauthenticationRequired indicates the refresh token was rejected
	// as invalid or revoked. The stale record has been removed; the user
	// must log in again.
	ErrReauthenticationRequired = errors.New("reauthentication required")

	// ErrTransientToken indicates a network error, timeout, or server-side
	// failure during a token operation. The caller may retry; the stored
	// credentials are unchanged.
	ErrTransientToken = errors.New("transient token failure")
)

// Identity provider signals surfaced during device-code polling and refresh.
var (
	// ErrAuthorizationPending indicates the operator has not yet completed
	// sign-in; polling should continue.
	ErrAuthorizationPending = errors.New("authorization pending")

	// ErrSlowDown indicates the provider wants a longer polling interval.
	// Polling continues at a reduced rate.
	ErrSlowDown = errors.New("slow down")

	// ErrAuthorizationDeclined indicates the operator denied the request.
	ErrAuthorizationDeclined = errors.New("authorization declined")

	// ErrDeviceCodeExpired indicates the device code's validity window
	// elapsed before the operator completed sign-in.
	ErrDeviceCodeExpired = errors.New("device code expired")

	// ErrRefreshTokenInvalid indicates the provider rejected the refresh
	// token (invalid_grant), typically after revocation or long inactivity.
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
)
