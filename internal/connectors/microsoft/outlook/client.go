// Package outlook provides Outlook mail operations via Microsoft Graph.
package outlook

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft"
)

// listSelect keeps message listings light; bodies are only fetched by Get.
const listSelect = "id,subject,from,receivedDateTime,bodyPreview,isRead,hasAttachments"

// folderAliases maps friendly folder names to Graph well-known folder IDs.
var folderAliases = map[string]string{
	"inbox":   "inbox",
	"sent":    "sentitems",
	"drafts":  "drafts",
	"deleted": "deleteditems",
}

// ResolveFolder maps a friendly folder name to a Graph folder ID. Unknown
// names pass through unchanged so explicit folder IDs keep working.
func ResolveFolder(name string) string {
	if id, ok := folderAliases[strings.ToLower(name)]; ok {
		return id
	}
	return name
}

// Client performs Outlook mail operations for one account.
type Client struct {
	graph *microsoft.Client
}

// NewClient creates an Outlook mail client on top of a Graph client.
func NewClient(graph *microsoft.Client) *Client {
	return &Client{graph: graph}
}

// List returns up to max messages from a folder, newest first.
func (c *Client) List(ctx context.Context, folder string, max int) ([]Message, error) {
	query := url.Values{}
	query.Set("$top", strconv.Itoa(max))
	query.Set("$orderby", "receivedDateTime desc")
	query.Set("$select", listSelect)

	path := fmt.Sprintf("/me/mailFolders/%s/messages", ResolveFolder(folder))
	var resp listResponse
	if err := c.graph.Get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return resp.Value, nil
}

// Search returns up to max messages matching the query across all folders.
func (c *Client) Search(ctx context.Context, search string, max int) ([]Message, error) {
	query := url.Values{}
	query.Set("$top", strconv.Itoa(max))
	query.Set("$select", listSelect)
	query.Set("$search", strconv.Quote(search))

	var resp listResponse
	if err := c.graph.Get(ctx, "/me/messages", query, &resp); err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	return resp.Value, nil
}

// Get returns one message including its full body.
func (c *Client) Get(ctx context.Context, messageID string) (*Message, error) {
	var msg Message
	if err := c.graph.Get(ctx, "/me/messages/"+url.PathEscape(messageID), nil, &msg); err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &msg, nil
}

// Send sends a plain-text email to a single recipient.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	payload := struct {
		Message outgoingMessage `json:"message"`
	}{Message: newOutgoing(to, subject, body, "Text")}

	if err := c.graph.Post(ctx, "/me/sendMail", payload, nil); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// CreateDraft creates a draft message and returns it.
func (c *Client) CreateDraft(ctx context.Context, to, subject, body string) (*Message, error) {
	var msg Message
	payload := newOutgoing(to, subject, body, "Text")
	if err := c.graph.Post(ctx, "/me/messages", payload, &msg); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return &msg, nil
}

// Delete moves a message to deleted items.
func (c *Client) Delete(ctx context.Context, messageID string) error {
	if err := c.graph.Delete(ctx, "/me/messages/"+url.PathEscape(messageID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
