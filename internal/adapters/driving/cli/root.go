package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/gwenonit/outlook-cli/internal/adapters/driven/config"
	"github.com/gwenonit/outlook-cli/internal/core/ports/driving"
	"github.com/gwenonit/outlook-cli/internal/logger"
)

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// Global flags shared by account-scoped commands.
	accountFlag string
	jsonOutput  bool

	// Services holds injected service implementations for CLI commands.
	authService driving.AuthService
	configStore *config.FileStore
)

// Services holds configuration for CLI commands.
type Services struct {
	Auth   driving.AuthService
	Config *config.FileStore
}

// SetServices injects service implementations for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	authService = s.Auth
	configStore = s.Config
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook mail, calendar and tasks from the command line",
	Long: `Outlook CLI talks to Microsoft Graph so you can read and send mail,
manage calendar events and keep on top of To Do tasks without leaving
the terminal.

Sign in once with 'outlook auth login'; tokens are refreshed silently
from then on.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVarP(&accountFlag, "account", "a", "", "account to act as (defaults to the sole signed-in account)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "emit raw JSON instead of formatted output")

	// Use PersistentPreRunE to set verbose mode before any command executes
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}

// loadConfig returns the stored configuration, or an empty one when no
// config store is wired or no file exists yet.
func loadConfig() *config.Config {
	if configStore == nil {
		return &config.Config{}
	}
	cfg, err := configStore.Load()
	if err != nil {
		logger.Warnf("ignoring unreadable config: %v", err)
		return &config.Config{}
	}
	return cfg
}

// currentAccount resolves the --account flag (or the configured default)
// to a signed-in account.
func currentAccount(cmd *cobra.Command) (string, error) {
	if authService == nil {
		return "", errors.New("auth service not configured")
	}
	account := accountFlag
	if account == "" {
		account = loadConfig().DefaultAccount
	}
	return authService.ResolveAccount(cmd.Context(), account)
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}
