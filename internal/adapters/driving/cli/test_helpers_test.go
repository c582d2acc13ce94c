package cli

import (
	"context"

	"github.com/gwenonit/outlook-cli/internal/core/domain"
)

// mockAuthService is a configurable driving.AuthService for command tests.
type mockAuthService struct {
	token       string
	tokenErr    error
	loginAcct   string
	loginErr    error
	loginTenant string
	loginClient string
	logoutCalls []string
	accounts    []string
	records     []domain.CredentialRecord
	listErr     error
}

func (m *mockAuthService) GetValidToken(_ context.Context, _ string) (string, error) {
	return m.token, m.tokenErr
}

func (m *mockAuthService) Login(_ context.Context, tenant, clientID string, _ []string) (string, error) {
	m.loginTenant = tenant
	m.loginClient = clientID
	return m.loginAcct, m.loginErr
}

func (m *mockAuthService) Logout(_ context.Context, account string) error {
	m.logoutCalls = append(m.logoutCalls, account)
	return nil
}

func (m *mockAuthService) ListAccounts(_ context.Context) ([]string, error) {
	return m.accounts, m.listErr
}

func (m *mockAuthService) Status(_ context.Context) ([]domain.CredentialRecord, error) {
	return m.records, m.listErr
}

func (m *mockAuthService) ResolveAccount(_ context.Context, account string) (string, error) {
	if len(m.accounts) == 0 {
		return "", domain.ErrNotAuthenticated
	}
	if account == "" {
		return m.accounts[0], nil
	}
	for _, a := range m.accounts {
		if a == account {
			return a, nil
		}
	}
	return "", domain.ErrNotAuthenticated
}
