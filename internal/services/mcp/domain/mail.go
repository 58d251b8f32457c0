package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	garden "github.com/astralgarden/astral.garden/internal/services/garden/domain"
	identity "github.com/astralgarden/astral.garden/internal/services/identity/domain"
	mailbox "github.com/astralgarden/astral.garden/internal/services/mailbox/domain"
)

// MailSendInput represents the MCP tool input for sending a postcard.
type MailSendInput struct {
	To      string `json:"to" jsonschema:"recipient username"`
	Subject string `json:"subject" jsonschema:"subject line, at most 100 characters"`
	Body    string `json:"body" jsonschema:"message body, at most 2000 characters"`
}

// MailSendResult represents the MCP tool output for sending a postcard.
type MailSendResult struct {
	MessageID string `json:"message_id" jsonschema:"identifier of the delivered message"`
	To        string `json:"to" jsonschema:"recipient username"`
	Subject   string `json:"subject" jsonschema:"subject line as stored"`
	SentAt    string `json:"sent_at" jsonschema:"RFC3339 delivery timestamp"`
}

// MailSendTool defines the MCP tool schema for sending a postcard.
func MailSendTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "mail_send",
		Description: "Mails a postcard to another gardener. Sending consumes one postcard from your inventory; buy them with shop_buy.",
	}
}

// MailSendHandler delivers a postcard to another gardener. The postcard
// item is consumed before delivery and returned if delivery fails.
func MailSendHandler(mailboxSvc *mailbox.Service, gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[MailSendInput, MailSendResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MailSendInput) (*mcp.CallToolResult, MailSendResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, MailSendResult{}, err
		}

		recipient, err := identitySvc.FindAccount(runCtx, input.To)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeNotFound) {
				err = apperrors.New(apperrors.CodeRecipientUnknown, "no gardener by that name")
			}
			return nil, MailSendResult{}, userError(mcpCtx.Locale, err)
		}

		if err := gardenSvc.SpendItem(runCtx, session.Account.ID, garden.ItemPostcard, 1); err != nil {
			return nil, MailSendResult{}, userError(mcpCtx.Locale, err)
		}

		message, err := mailboxSvc.Send(runCtx, mailbox.SendInput{
			FromID:   session.Account.ID,
			FromName: session.Account.Username,
			ToID:     recipient.ID,
			Subject:  input.Subject,
			Body:     input.Body,
		})
		if err != nil {
			// The postcard was already consumed; hand it back before failing.
			if refundErr := gardenSvc.GrantItem(runCtx, session.Account.ID, garden.ItemPostcard, 1); refundErr != nil {
				return nil, MailSendResult{}, fmt.Errorf("send mail: %w (postcard refund also failed: %v)", err, refundErr)
			}
			return nil, MailSendResult{}, userError(mcpCtx.Locale, err)
		}

		return nil, MailSendResult{
			MessageID: message.ID,
			To:        recipient.Username,
			Subject:   message.Subject,
			SentAt:    formatTime(message.CreatedAt),
		}, nil
	}
}

// MailSummaryResult represents one inbox entry in MCP tool outputs. The
// body is only returned by mail_read so listing never marks anything seen.
type MailSummaryResult struct {
	MessageID string `json:"message_id" jsonschema:"message identifier"`
	From      string `json:"from" jsonschema:"sender username at the time of sending"`
	Subject   string `json:"subject" jsonschema:"subject line"`
	Seen      bool   `json:"seen" jsonschema:"whether the message has been read"`
	SentAt    string `json:"sent_at" jsonschema:"RFC3339 delivery timestamp"`
}

// MailListInput represents the MCP tool input for listing the inbox.
type MailListInput struct {
	Filter   string `json:"filter,omitempty" jsonschema:"optional AIP-160 filter over seen, from, and created_at, for example seen = false"`
	Page     int    `json:"page,omitempty" jsonschema:"page number starting at 1"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"messages per page, default 20, maximum 100"`
}

// MailListResult represents the MCP tool output for listing the inbox.
type MailListResult struct {
	Messages []MailSummaryResult `json:"messages" jsonschema:"one page of messages, newest first"`
	Unread   int                 `json:"unread" jsonschema:"total unread messages in the inbox"`
}

// MailListTool defines the MCP tool schema for listing the inbox.
func MailListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "mail_list",
		Description: "Lists your inbox newest first. Supports an AIP-160 filter over seen, from, and created_at.",
	}
}

// MailListHandler returns one page of the caller's inbox.
func MailListHandler(mailboxSvc *mailbox.Service, identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[MailListInput, MailListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MailListInput) (*mcp.CallToolResult, MailListResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, MailListResult{}, err
		}

		messages, err := mailboxSvc.List(runCtx, mailbox.ListInput{
			AccountID: session.Account.ID,
			Filter:    input.Filter,
			Page:      input.Page,
			PageSize:  input.PageSize,
		})
		if err != nil {
			return nil, MailListResult{}, userError(mcpCtx.Locale, err)
		}

		unread, err := mailboxSvc.UnreadCount(runCtx, session.Account.ID)
		if err != nil {
			return nil, MailListResult{}, userError(mcpCtx.Locale, err)
		}

		result := MailListResult{
			Messages: make([]MailSummaryResult, 0, len(messages)),
			Unread:   unread,
		}
		for _, message := range messages {
			result.Messages = append(result.Messages, MailSummaryResult{
				MessageID: message.ID,
				From:      message.FromName,
				Subject:   message.Subject,
				Seen:      message.Seen,
				SentAt:    formatTime(message.CreatedAt),
			})
		}
		return nil, result, nil
	}
}

// MailReadInput represents the MCP tool input for reading a message.
type MailReadInput struct {
	MessageID string `json:"message_id" jsonschema:"identifier from mail_list"`
}

// MailReadResult represents the MCP tool output for reading a message.
type MailReadResult struct {
	MessageID string `json:"message_id" jsonschema:"message identifier"`
	From      string `json:"from" jsonschema:"sender username at the time of sending"`
	Subject   string `json:"subject" jsonschema:"subject line"`
	Body      string `json:"body" jsonschema:"message body"`
	SentAt    string `json:"sent_at" jsonschema:"RFC3339 delivery timestamp"`
}

// MailReadTool defines the MCP tool schema for reading a message.
func MailReadTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "mail_read",
		Description: "Reads one message and marks it seen.",
	}
}

// MailReadHandler returns a message body and marks the message seen.
func MailReadHandler(mailboxSvc *mailbox.Service, identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[MailReadInput, MailReadResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MailReadInput) (*mcp.CallToolResult, MailReadResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, MailReadResult{}, err
		}

		message, err := mailboxSvc.MarkSeen(runCtx, mailbox.MarkSeenInput{
			AccountID: session.Account.ID,
			MessageID: input.MessageID,
		})
		if err != nil {
			return nil, MailReadResult{}, userError(mcpCtx.Locale, err)
		}

		return nil, MailReadResult{
			MessageID: message.ID,
			From:      message.FromName,
			Subject:   message.Subject,
			Body:      message.Body,
			SentAt:    formatTime(message.CreatedAt),
		}, nil
	}
}
