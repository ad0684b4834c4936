// Package mailer delivers HTML email.
package mailer

import (
	"context"
	"log"
	"regexp"
)

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// PlainText strips tags from an HTML body.
func PlainText(html string) string {
	return tagPattern.ReplaceAllString(html, "")
}

// LogSender only logs messages. Used when SES is not configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, subject, html string) error {
	log.Printf("Mailer: (log only) to=%s subject=%q bytes=%d", to, subject, len(html))
	return nil
}
