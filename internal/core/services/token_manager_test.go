package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwenonit/outlook-cli/internal/core/domain"
)

// fakeStore is an in-memory CredentialsStore with injectable failures.
type fakeStore struct {
	records   map[string]domain.CredentialRecord
	loadErr   error
	saveErr   error
	saveCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]domain.CredentialRecord{}}
}

func (s *fakeStore) Load(context.Context) (map[string]domain.CredentialRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(map[string]domain.CredentialRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) Save(_ context.Context, records map[string]domain.CredentialRecord) error {
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	out := make(map[string]domain.CredentialRecord, len(records))
	for k, v := range records {
		out[k] = v
	}
	s.records = out
	return nil
}

func (s *fakeStore) Delete(_ context.Context, account string) error {
	delete(s.records, account)
	return nil
}

// fakeIdP is an IdentityProvider whose behaviour is scripted per test.
type fakeIdP struct {
	deviceAuth   *domain.DeviceAuthorization
	deviceErr    error
	redeemQueue  []redeemResult
	redeemCalls  int
	refreshFn    func(tenant, clientID, refreshToken string) (*domain.TokenSet, error)
	refreshCalls int
	account      string
	accountErr   error
}

type redeemResult struct {
	tokens *domain.TokenSet
	err    error
}

func (f *fakeIdP) RequestDeviceCode(_ context.Context, _, _ string, _ []string) (*domain.DeviceAuthorization, error) {
	if f.deviceErr != nil {
		return nil, f.deviceErr
	}
	return f.deviceAuth, nil
}

func (f *fakeIdP) RedeemDeviceCode(_ context.Context, _, _, _ string) (*domain.TokenSet, error) {
	if f.redeemCalls >= len(f.redeemQueue) {
		return nil, domain.ErrAuthorizationPending
	}
	r := f.redeemQueue[f.redeemCalls]
	f.redeemCalls++
	return r.tokens, r.err
}

func (f *fakeIdP) Refresh(_ context.Context, tenant, clientID, refreshToken string) (*domain.TokenSet, error) {
	f.refreshCalls++
	return f.refreshFn(tenant, clientID, refreshToken)
}

func (f *fakeIdP) ResolveAccount(context.Context, string) (string, error) {
	if f.accountErr != nil {
		return "", f.accountErr
	}
	return f.account, nil
}

// testClock provides a deterministic clock whose sleep advances time.
type testClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newTestManager(store *fakeStore, idp *fakeIdP) (*TokenManager, *testClock) {
	clock := &testClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
	m := NewTokenManager(store, idp)
	m.now = func() time.Time { return clock.now }
	m.sleep = func(_ context.Context, d time.Duration) error {
		clock.sleeps = append(clock.sleeps, d)
		clock.now = clock.now.Add(d)
		return nil
	}
	return m, clock
}

func storedRecord(account string, expiry time.Time) domain.CredentialRecord {
	return domain.CredentialRecord{
		Account:      account,
		ClientID:     "client-1",
		Tenant:       "consumers",
		AccessToken:  "at1",
		RefreshToken: "rt1",
		Expiry:       expiry,
		Scopes:       []string{"Mail.Read"},
	}
}

func TestGetValidToken_CachedInsideMargin(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{refreshFn: func(_, _, _ string) (*domain.TokenSet, error) {
		t.Fatal("refresh must not be called for a fresh token")
		return nil, nil
	}}
	m, clock := newTestManager(store, idp)

	// One second beyond the safety margin: cached token, no network.
	store.records["alice@example.com"] = storedRecord(
		"alice@example.com", clock.now.Add(expiryMargin+time.Second))

	token, err := m.GetValidToken(context.Background(), "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "at1", token)
	assert.Zero(t, idp.refreshCalls)
	assert.Zero(t, store.saveCalls)
}

func TestGetValidToken_RefreshesAtMarginBoundary(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{refreshFn: func(tenant, clientID, refreshToken string) (*domain.TokenSet, error) {
		assert.Equal(t, "consumers", tenant)
		assert.Equal(t, "client-1", clientID)
		assert.Equal(t, "rt1", refreshToken)
		return &domain.TokenSet{
			AccessToken: "at2",
			Expiry:      time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC),
		}, nil
	}}
	m, clock := newTestManager(store, idp)

	// One second short of the safety margin: refresh required.
	store.records["alice@example.com"] = storedRecord(
		"alice@example.com", clock.now.Add(expiryMargin-time.Second))

	token, err := m.GetValidToken(context.Background(), "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "at2", token)
	assert.Equal(t, 1, idp.refreshCalls)

	rec := store.records["alice@example.com"]
	assert.Equal(t, "at2", rec.AccessToken)
	// No rotation: the stored refresh token is unchanged.
	assert.Equal(t, "rt1", rec.RefreshToken)
	assert.Equal(t, time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC), rec.Expiry)
}

func TestGetValidToken_PersistsRotatedRefreshToken(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{refreshFn: func(_, _, _ string) (*domain.TokenSet, error) {
		return &domain.TokenSet{
			AccessToken:  "at2",
			RefreshToken: "rt2",
			Expiry:       time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC),
		}, nil
	}}
	m, clock := newTestManager(store, idp)
	store.records["alice@example.com"] = storedRecord(
		"alice@example.com", clock.now.Add(-time.Hour))

	_, err := m.GetValidToken(context.Background(), "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "rt2", store.records["alice@example.com"].RefreshToken)
}

func TestGetValidToken_InvalidGrantDeletesRecord(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{refreshFn: func(_, _, _ string) (*domain.TokenSet, error) {
		return nil, domain.ErrRefreshTokenInvalid
	}}
	m, clock := newTestManager(store, idp)
	store.records["alice@example.com"] = storedRecord(
		"alice@example.com", clock.now.Add(-time.Hour))

	_, err := m.GetValidToken(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrReauthenticationRequired)
	assert.NotContains(t, store.records, "alice@example.com")

	// The stale record is gone, so a second call fails fast.
	_, err = m.GetValidToken(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestGetValidToken_TransientFailureLeavesStoreUnchanged(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{refreshFn: func(_, _, _ string) (*domain.TokenSet, error) {
		return nil, domain.ErrTransientToken
	}}
	m, clock := newTestManager(store, idp)
	before := storedRecord("alice@example.com", clock.now.Add(-time.Hour))
	store.records["alice@example.com"] = before

	_, err := m.GetValidToken(context.Background(), "alice@example.com")

	assert.ErrorIs(t, err, domain.ErrTransientToken)
	assert.Equal(t, before, store.records["alice@example.com"])
}

func TestGetValidToken_SaveFailureLeavesRecordUnchanged(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{refreshFn: func(_, _, _ string) (*domain.TokenSet, error) {
		return &domain.TokenSet{AccessToken: "at2", Expiry: time.Now().Add(time.Hour)}, nil
	}}
	m, clock := newTestManager(store, idp)
	before := storedRecord("alice@example.com", clock.now.Add(-time.Hour))
	store.records["alice@example.com"] = before
	store.saveErr = domain.ErrStoreUnavailable

	_, err := m.GetValidToken(context.Background(), "alice@example.com")

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	// The refresh was accepted remotely but never committed locally; the
	// pre-refresh record must still be observable.
	assert.Equal(t, before, store.records["alice@example.com"])
}

func TestGetValidToken_UnknownAccount(t *testing.T) {
	m, _ := newTestManager(newFakeStore(), &fakeIdP{})

	_, err := m.GetValidToken(context.Background(), "nobody@example.com")

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func deviceAuth(clock *testClock) *domain.DeviceAuthorization {
	return &domain.DeviceAuthorization{
		DeviceCode:      "device-code-1",
		UserCode:        "ABCD-1234",
		VerificationURI: "https://microsoft.com/devicelogin",
		Interval:        5 * time.Second,
		ExpiresAt:       clock.now.Add(15 * time.Minute),
	}
}

func issuedTokens() *domain.TokenSet {
	return &domain.TokenSet{
		AccessToken:  "new-at",
		RefreshToken: "new-rt",
		Expiry:       time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC),
		Scopes:       []string{"Mail.Read", "offline_access"},
	}
}

func TestLogin_AuthorizedAfterPending(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{
		account: "alice@example.com",
		redeemQueue: []redeemResult{
			{err: domain.ErrAuthorizationPending},
			{err: domain.ErrAuthorizationPending},
			{tokens: issuedTokens()},
		},
	}
	m, clock := newTestManager(store, idp)
	idp.deviceAuth = deviceAuth(clock)

	var notified domain.DeviceAuthorization
	m.SetNotify(func(a domain.DeviceAuthorization) { notified = a })

	account, err := m.Login(context.Background(), "consumers", "client-1", []string{"Mail.Read"})

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", account)
	assert.Equal(t, "ABCD-1234", notified.UserCode)

	rec := store.records["alice@example.com"]
	assert.Equal(t, "new-at", rec.AccessToken)
	assert.Equal(t, "new-rt", rec.RefreshToken)
	assert.Equal(t, "client-1", rec.ClientID)
	assert.Equal(t, "consumers", rec.Tenant)

	// Polled at the provider-mandated interval.
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, clock.sleeps)
}

func TestLogin_SlowDownIncreasesInterval(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{
		account: "alice@example.com",
		redeemQueue: []redeemResult{
			{err: domain.ErrSlowDown},
			{err: domain.ErrAuthorizationPending},
			{tokens: issuedTokens()},
		},
	}
	m, clock := newTestManager(store, idp)
	idp.deviceAuth = deviceAuth(clock)

	_, err := m.Login(context.Background(), "consumers", "client-1", nil)

	require.NoError(t, err)
	// slow_down backs off without terminating the attempt.
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 10 * time.Second}, clock.sleeps)
}

func TestLogin_Declined(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{
		redeemQueue: []redeemResult{{err: domain.ErrAuthorizationDeclined}},
	}
	m, clock := newTestManager(store, idp)
	idp.deviceAuth = deviceAuth(clock)

	_, err := m.Login(context.Background(), "consumers", "client-1", nil)

	assert.ErrorIs(t, err, domain.ErrAuthorizationDeclined)
	assert.Empty(t, store.records)
}

func TestLogin_DeviceCodeExpiredSignal(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{
		redeemQueue: []redeemResult{{err: domain.ErrDeviceCodeExpired}},
	}
	m, clock := newTestManager(store, idp)
	idp.deviceAuth = deviceAuth(clock)

	_, err := m.Login(context.Background(), "consumers", "client-1", nil)

	assert.ErrorIs(t, err, domain.ErrDeviceCodeExpired)
	assert.Empty(t, store.records)
}

func TestLogin_DeadlineElapsed(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{} // always pending
	m, clock := newTestManager(store, idp)
	idp.deviceAuth = &domain.DeviceAuthorization{
		DeviceCode:      "device-code-1",
		UserCode:        "ABCD-1234",
		VerificationURI: "https://microsoft.com/devicelogin",
		Interval:        5 * time.Second,
		ExpiresAt:       clock.now.Add(12 * time.Second),
	}

	_, err := m.Login(context.Background(), "consumers", "client-1", nil)

	assert.ErrorIs(t, err, domain.ErrDeviceCodeExpired)
	assert.Empty(t, store.records)
	// Polls at 0s, 5s and 10s fit inside the window; the next check at 15s
	// hits the deadline.
	assert.Len(t, clock.sleeps, 3)
}

func TestLogin_ProtocolErrorFails(t *testing.T) {
	store := newFakeStore()
	protoErr := errors.New("invalid_client")
	idp := &fakeIdP{
		redeemQueue: []redeemResult{{err: protoErr}},
	}
	m, clock := newTestManager(store, idp)
	idp.deviceAuth = deviceAuth(clock)

	_, err := m.Login(context.Background(), "consumers", "client-1", nil)

	assert.ErrorIs(t, err, protoErr)
	assert.Empty(t, store.records)
}

func TestLogin_ProfileLookupFailurePersistsNothing(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{
		accountErr:  errors.New("graph unavailable"),
		redeemQueue: []redeemResult{{tokens: issuedTokens()}},
	}
	m, clock := newTestManager(store, idp)
	idp.deviceAuth = deviceAuth(clock)

	_, err := m.Login(context.Background(), "consumers", "client-1", nil)

	assert.Error(t, err)
	assert.Empty(t, store.records)
	assert.Zero(t, store.saveCalls)
}

func TestLogin_ReplacesExistingRecord(t *testing.T) {
	store := newFakeStore()
	idp := &fakeIdP{
		account:     "alice@example.com",
		redeemQueue: []redeemResult{{tokens: issuedTokens()}},
	}
	m, clock := newTestManager(store, idp)
	idp.deviceAuth = deviceAuth(clock)
	store.records["alice@example.com"] = storedRecord("alice@example.com", clock.now)

	_, err := m.Login(context.Background(), "consumers", "client-1", nil)

	require.NoError(t, err)
	require.Len(t, store.records, 1)
	assert.Equal(t, "new-at", store.records["alice@example.com"].AccessToken)
}

func TestLogin_RequestDeviceCodeFailure(t *testing.T) {
	idp := &fakeIdP{deviceErr: errors.New("unauthorized_client")}
	m, _ := newTestManager(newFakeStore(), idp)

	_, err := m.Login(context.Background(), "consumers", "client-1", nil)

	assert.ErrorContains(t, err, "request device code")
}

func TestLogout_Idempotent(t *testing.T) {
	store := newFakeStore()
	m, clock := newTestManager(store, &fakeIdP{})
	store.records["alice@example.com"] = storedRecord("alice@example.com", clock.now)

	require.NoError(t, m.Logout(context.Background(), "alice@example.com"))
	assert.Empty(t, store.records)

	// Second logout of the same account is not an error.
	assert.NoError(t, m.Logout(context.Background(), "alice@example.com"))
}

func TestListAccounts_EmptyStore(t *testing.T) {
	m, _ := newTestManager(newFakeStore(), &fakeIdP{})

	accounts, err := m.ListAccounts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestListAccounts_Sorted(t *testing.T) {
	store := newFakeStore()
	m, clock := newTestManager(store, &fakeIdP{})
	store.records["carol@example.com"] = storedRecord("carol@example.com", clock.now)
	store.records["alice@example.com"] = storedRecord("alice@example.com", clock.now)
	store.records["bob@example.com"] = storedRecord("bob@example.com", clock.now)

	accounts, err := m.ListAccounts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com", "carol@example.com"}, accounts)
}

func TestStatus_SortedByAccount(t *testing.T) {
	store := newFakeStore()
	m, clock := newTestManager(store, &fakeIdP{})
	store.records["bob@example.com"] = storedRecord("bob@example.com", clock.now)
	store.records["alice@example.com"] = storedRecord("alice@example.com", clock.now)

	records, err := m.Status(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alice@example.com", records[0].Account)
	assert.Equal(t, "bob@example.com", records[1].Account)
}

func TestResolveAccount(t *testing.T) {
	store := newFakeStore()
	m, clock := newTestManager(store, &fakeIdP{})
	store.records["bob@example.com"] = storedRecord("bob@example.com", clock.now)
	store.records["alice@example.com"] = storedRecord("alice@example.com", clock.now)
	ctx := context.Background()

	account, err := m.ResolveAccount(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", account)

	// Empty argument resolves to the first stored account.
	account, err = m.ResolveAccount(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", account)

	_, err = m.ResolveAccount(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestResolveAccount_EmptyStore(t *testing.T) {
	m, _ := newTestManager(newFakeStore(), &fakeIdP{})

	_, err := m.ResolveAccount(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
