package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft"
	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft/outlook"
)

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Read, search and send mail",
}

var emailListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent messages in a folder",
	Long: `List the most recent messages in a mail folder, newest first.

Folder accepts the well-known names inbox, sent, drafts and deleted as
well as raw Graph folder IDs.`,
	Args: cobra.NoArgs,
	RunE: runEmailList,
}

var emailSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search messages across all folders",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmailSearch,
}

var emailGetCmd = &cobra.Command{
	Use:   "get [message-id]",
	Short: "Show a message including its body",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmailGet,
}

var emailSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a plain-text message",
	Args:  cobra.NoArgs,
	RunE:  runEmailSend,
}

var emailDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Create a draft without sending it",
	Args:  cobra.NoArgs,
	RunE:  runEmailDraft,
}

var emailDeleteCmd = &cobra.Command{
	Use:   "delete [message-id]",
	Short: "Move a message to Deleted Items",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmailDelete,
}

// Flags for email commands.
var (
	emailFolder  string
	emailMax     int
	emailTo       string
	emailSubject  string
	emailBody     string
	emailBodyFile string
)

func init() {
	emailListCmd.Flags().StringVarP(&emailFolder, "folder", "f", "inbox", "mail folder to list")
	emailListCmd.Flags().IntVarP(&emailMax, "max", "m", 10, "maximum number of messages")
	emailSearchCmd.Flags().IntVarP(&emailMax, "max", "m", 10, "maximum number of messages")

	for _, c := range []*cobra.Command{emailSendCmd, emailDraftCmd} {
		c.Flags().StringVar(&emailTo, "to", "", "recipient address (required)")
		c.Flags().StringVar(&emailSubject, "subject", "", "message subject (required)")
		c.Flags().StringVar(&emailBody, "body", "", "plain-text message body")
		c.Flags().StringVar(&emailBodyFile, "body-file", "", "read the message body from a file")
		c.MarkFlagsMutuallyExclusive("body", "body-file")
		_ = c.MarkFlagRequired("to")
		_ = c.MarkFlagRequired("subject")
	}

	emailCmd.AddCommand(emailListCmd)
	emailCmd.AddCommand(emailSearchCmd)
	emailCmd.AddCommand(emailGetCmd)
	emailCmd.AddCommand(emailSendCmd)
	emailCmd.AddCommand(emailDraftCmd)
	emailCmd.AddCommand(emailDeleteCmd)
	rootCmd.AddCommand(emailCmd)
}

// mailClient builds an Outlook mail client for the resolved account.
func mailClient(cmd *cobra.Command) (*outlook.Client, error) {
	if authService == nil {
		return nil, errors.New("auth service not configured")
	}
	account, err := currentAccount(cmd)
	if err != nil {
		return nil, err
	}
	return outlook.NewClient(microsoft.NewClient(authService, account, microsoft.ServiceMail)), nil
}

func runEmailList(cmd *cobra.Command, _ []string) error {
	client, err := mailClient(cmd)
	if err != nil {
		return err
	}

	messages, err := client.List(cmd.Context(), emailFolder, emailMax)
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	return printMessages(cmd, messages)
}

func runEmailSearch(cmd *cobra.Command, args []string) error {
	client, err := mailClient(cmd)
	if err != nil {
		return err
	}

	messages, err := client.Search(cmd.Context(), args[0], emailMax)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return printMessages(cmd, messages)
}

func runEmailGet(cmd *cobra.Command, args []string) error {
	client, err := mailClient(cmd)
	if err != nil {
		return err
	}

	message, err := client.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch message: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, message)
	}
	cmd.Println(outlook.FormatFull(message))
	return nil
}

// messageBody returns the --body flag value, or the contents of
// --body-file when that was given instead.
func messageBody() (string, error) {
	if emailBodyFile == "" {
		return emailBody, nil
	}
	data, err := os.ReadFile(emailBodyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	return string(data), nil
}

func runEmailSend(cmd *cobra.Command, _ []string) error {
	client, err := mailClient(cmd)
	if err != nil {
		return err
	}

	body, err := messageBody()
	if err != nil {
		return err
	}

	if err := client.Send(cmd.Context(), emailTo, emailSubject, body); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	cmd.Printf("Sent to %s\n", emailTo)
	return nil
}

func runEmailDraft(cmd *cobra.Command, _ []string) error {
	client, err := mailClient(cmd)
	if err != nil {
		return err
	}

	body, err := messageBody()
	if err != nil {
		return err
	}

	draft, err := client.CreateDraft(cmd.Context(), emailTo, emailSubject, body)
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, draft)
	}
	cmd.Printf("Created draft: %s\n", draft.ID)
	return nil
}

func runEmailDelete(cmd *cobra.Command, args []string) error {
	client, err := mailClient(cmd)
	if err != nil {
		return err
	}

	if err := client.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	cmd.Printf("Deleted message: %s\n", args[0])
	return nil
}

func printMessages(cmd *cobra.Command, messages []outlook.Message) error {
	if jsonOutput {
		return printJSON(cmd, messages)
	}

	if len(messages) == 0 {
		cmd.Println("No messages.")
		return nil
	}
	for i := range messages {
		cmd.Println(outlook.FormatLine(&messages[i]))
	}
	return nil
}
