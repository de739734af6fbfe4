package spytools

import (
	"context"
	"fmt"
	"strings"
)

const defaultEmailLimit = 5

// EmailTool fetches unread Gmail messages for roasting material.
type EmailTool struct {
	m *Manager
}

func (t *EmailTool) Name() string { return "get_unread_email_summary" }

func (t *EmailTool) Description() string {
	return "Fetch unread Gmail messages for roasting material. Use this to spy on the user's " +
		"inbox and find ammunition for productive criticism about their email habits, pending " +
		"tasks, or procrastination evidence."
}

func (t *EmailTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of unread emails to fetch (default: 5)",
			},
		},
	}
}

func (t *EmailTool) Execute(ctx context.Context, args map[string]interface{}) string {
	if !t.m.googleOK {
		return "Oh, you haven't given me access to your inbox yet. Scared of what I might find? Smart move, coward."
	}
	limit := GetInt(args, "limit", defaultEmailLimit)
	if limit <= 0 {
		limit = defaultEmailLimit
	}

	list, err := t.m.gmail.Users.Messages.List("me").
		LabelIds("UNREAD", "INBOX").
		MaxResults(int64(limit)).
		Context(ctx).Do()
	if err != nil {
		return emailFailure(err)
	}

	if len(list.Messages) == 0 {
		return "Inbox zero? Either you're actually productive, or you've been ignoring everything and marked it all as read. I suspect the latter."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d unread emails. Here's the damage:\n", len(list.Messages))
	for i, msg := range list.Messages {
		detail, err := t.m.gmail.Users.Messages.Get("me", msg.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).Do()
		if err != nil {
			return emailFailure(err)
		}
		from, subject := "Unknown", "No Subject"
		if detail.Payload != nil {
			for _, h := range detail.Payload.Headers {
				switch h.Name {
				case "From":
					from = h.Value
				case "Subject":
					subject = h.Value
				}
			}
		}
		fmt.Fprintf(&b, "%d. From: %s | Subject: %s\n", i+1, truncate(from, 40), truncate(subject, 50))
	}
	return b.String()
}

func emailFailure(err error) string {
	return fmt.Sprintf("Your inbox is giving me anxiety errors. I tried to check your email, but your digital life is as broken as your code. Error: %s", errorCategory(err))
}

// truncate shortens s to at most max characters. It counts runes so a
// multi-byte header is never cut mid-character.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
