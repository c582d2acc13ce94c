package outlook

import (
	"fmt"
	"strings"
	"time"
)

// Message represents an Outlook message from Microsoft Graph API.
type Message struct {
	ID               string       `json:"id"`
	Subject          string       `json:"subject"`
	BodyPreview      string       `json:"bodyPreview"`
	Body             *MessageBody `json:"body,omitempty"`
	From             *Recipient   `json:"from,omitempty"`
	ToRecipients     []Recipient  `json:"toRecipients,omitempty"`
	CcRecipients     []Recipient  `json:"ccRecipients,omitempty"`
	ReceivedDateTime string       `json:"receivedDateTime"`
	IsRead           bool         `json:"isRead"`
	HasAttachments   bool         `json:"hasAttachments"`
	WebLink          string       `json:"webLink,omitempty"`
}

// MessageBody represents the body of an email.
type MessageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Recipient represents an email sender or recipient.
type Recipient struct {
	EmailAddress struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"emailAddress"`
}

// listResponse is the Graph collection envelope for messages.
type listResponse struct {
	Value    []Message `json:"value"`
	NextLink string    `json:"@odata.nextLink"`
}

// outgoingMessage is the payload shape for sendMail and draft creation.
type outgoingMessage struct {
	Subject      string      `json:"subject"`
	Body         MessageBody `json:"body"`
	ToRecipients []Recipient `json:"toRecipients"`
}

// newOutgoing builds an outgoing message payload.
func newOutgoing(to, subject, body, bodyType string) outgoingMessage {
	var recipient Recipient
	recipient.EmailAddress.Address = to

	return outgoingMessage{
		Subject: subject,
		Body: MessageBody{
			ContentType: bodyType,
			Content:     body,
		},
		ToRecipients: []Recipient{recipient},
	}
}

// FormatLine renders a message as a single list line:
// [timestamp] sender: subject.
func FormatLine(msg *Message) string {
	sender := "unknown"
	if msg.From != nil {
		if msg.From.EmailAddress.Name != "" {
			sender = msg.From.EmailAddress.Name
		} else {
			sender = msg.From.EmailAddress.Address
		}
	}
	return fmt.Sprintf("[%s] %s: %s", msg.ReceivedDateTime, sender, msg.Subject)
}

// FormatFull renders a message with headers and body for display.
func FormatFull(msg *Message) string {
	var sb strings.Builder

	if msg.From != nil {
		sb.WriteString("From: ")
		sb.WriteString(formatAddress(*msg.From))
		sb.WriteString("\n")
	}
	if len(msg.ToRecipients) > 0 {
		sb.WriteString("To: ")
		sb.WriteString(formatRecipients(msg.ToRecipients))
		sb.WriteString("\n")
	}
	if len(msg.CcRecipients) > 0 {
		sb.WriteString("Cc: ")
		sb.WriteString(formatRecipients(msg.CcRecipients))
		sb.WriteString("\n")
	}
	sb.WriteString("Subject: ")
	sb.WriteString(msg.Subject)
	sb.WriteString("\n")
	if msg.ReceivedDateTime != "" {
		if t, err := time.Parse(time.RFC3339, msg.ReceivedDateTime); err == nil {
			sb.WriteString("Date: ")
			sb.WriteString(t.Format(time.RFC1123Z))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	switch {
	case msg.Body != nil && msg.Body.Content != "":
		sb.WriteString(msg.Body.Content)
	case msg.BodyPreview != "":
		sb.WriteString(msg.BodyPreview)
	default:
		sb.WriteString("No content")
	}
	return sb.String()
}

// formatAddress renders "Name <address>" or just the address.
func formatAddress(r Recipient) string {
	if r.EmailAddress.Name != "" {
		return fmt.Sprintf("%s <%s>", r.EmailAddress.Name, r.EmailAddress.Address)
	}
	return r.EmailAddress.Address
}

// formatRecipients renders a comma-separated recipient list.
func formatRecipients(recipients []Recipient) string {
	parts := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r.EmailAddress.Address != "" || r.EmailAddress.Name != "" {
			parts = append(parts, formatAddress(r))
		}
	}
	return strings.Join(parts, ", ")
}
