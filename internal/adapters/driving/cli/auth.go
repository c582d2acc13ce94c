package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft"
	"github.com/gwenonit/outlook-cli/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage signed-in Microsoft accounts",
	Long:  `Sign in with the device-code flow, inspect stored credentials, or sign out.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to a Microsoft account",
	Long: `Sign in using the OAuth2 device-code flow.

A code and a verification URL are printed; open the URL in any browser,
enter the code and approve the requested permissions. The command waits
until sign-in completes.

The application (client) ID comes from --client-id or from the
client_id key in the config file.

Examples:
  outlook auth login --client-id 00000000-0000-0000-0000-000000000000
  outlook auth login --tenant organizations`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Sign out and discard stored credentials",
	Long:  `Remove an account's stored tokens. With no argument the default (or sole) signed-in account is removed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored accounts and token validity",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List signed-in accounts",
	Args:  cobra.NoArgs,
	RunE:  runAuthList,
}

// Flags for auth login.
var (
	loginClientID string
	loginTenant   string
)

func init() {
	authLoginCmd.Flags().StringVar(&loginClientID, "client-id", "", "Azure AD application (client) ID")
	authLoginCmd.Flags().StringVar(&loginTenant, "tenant", "", "directory tenant (default \"consumers\")")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authListCmd)
	rootCmd.AddCommand(authCmd)
}

// DeviceCodePrompt returns a callback that prints device-code sign-in
// instructions to stderr. Box decoration is skipped when stderr is not a
// terminal so the output stays script-friendly.
func DeviceCodePrompt(out *os.File) func(domain.DeviceAuthorization) {
	return func(auth domain.DeviceAuthorization) {
		if term.IsTerminal(int(out.Fd())) {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  ┌──────────────────────────────────────────────┐")
			fmt.Fprintf(out, "  │  Go to %-38s│\n", auth.VerificationURI)
			fmt.Fprintf(out, "  │  and enter the code %-25s│\n", auth.UserCode)
			fmt.Fprintln(out, "  └──────────────────────────────────────────────┘")
			fmt.Fprintln(out)
			return
		}
		fmt.Fprintf(out, "To sign in, open %s and enter the code %s\n", auth.VerificationURI, auth.UserCode)
	}
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	cfg := loadConfig()

	clientID := loginClientID
	if clientID == "" {
		clientID = cfg.ClientID
	}
	if clientID == "" {
		return errors.New("no client ID: pass --client-id or set client_id in the config file")
	}

	tenant := loginTenant
	if tenant == "" {
		tenant = cfg.Tenant
	}
	if tenant == "" {
		tenant = microsoft.DefaultTenant
	}

	cmd.Println("Waiting for sign-in to complete...")
	account, err := authService.Login(cmd.Context(), tenant, clientID, nil)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cmd.Printf("Signed in as %s\n", account)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	var account string
	var err error
	if len(args) > 0 {
		account, err = authService.ResolveAccount(cmd.Context(), args[0])
		if err != nil {
			return err
		}
	} else {
		account, err = currentAccount(cmd)
		if err != nil {
			if errors.Is(err, domain.ErrNotAuthenticated) {
				cmd.Println("No accounts signed in.")
				return nil
			}
			return err
		}
	}

	if err := authService.Logout(cmd.Context(), account); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	cmd.Printf("Signed out %s\n", account)
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	records, err := authService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	if jsonOutput {
		type accountStatus struct {
			Account string    `json:"account"`
			Tenant  string    `json:"tenant"`
			Expiry  time.Time `json:"expiry"`
			Valid   bool      `json:"valid"`
		}
		statuses := make([]accountStatus, 0, len(records))
		for _, rec := range records {
			statuses = append(statuses, accountStatus{
				Account: rec.Account,
				Tenant:  rec.Tenant,
				Expiry:  rec.Expiry,
				Valid:   rec.Expiry.After(time.Now()),
			})
		}
		return printJSON(cmd, statuses)
	}

	if len(records) == 0 {
		cmd.Println("No accounts signed in. Run 'outlook auth login' first.")
		return nil
	}

	for _, rec := range records {
		cmd.Printf("  %s\n", rec.Account)
		cmd.Printf("    Tenant: %s\n", rec.Tenant)
		cmd.Printf("    Token: %s\n", tokenState(rec.Expiry))
	}
	return nil
}

func runAuthList(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	accounts, err := authService.ListAccounts(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, accounts)
	}

	if len(accounts) == 0 {
		cmd.Println("No accounts signed in.")
		return nil
	}
	for _, account := range accounts {
		cmd.Println(account)
	}
	return nil
}

// tokenState describes an access token's validity for status output. An
// expired access token is refreshed on next use, so it is reported as
// refreshable rather than broken.
func tokenState(expiry time.Time) string {
	if expiry.After(time.Now()) {
		return fmt.Sprintf("valid until %s", expiry.Local().Format("2006-01-02 15:04"))
	}
	return "expired (will refresh on next use)"
}
