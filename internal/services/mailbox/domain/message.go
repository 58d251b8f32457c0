// Package domain implements the append-only gardener mailbox.
//
// Messages are postcards delivered to an account. Once delivered they are
// never edited or removed, and the seen flag only moves from unread to read.
package domain

import "time"

const (
	// MaxSubjectLength bounds the subject line of a message.
	MaxSubjectLength = 128
	// MaxBodyLength bounds the body of a message.
	MaxBodyLength = 4096
)

// Message is one delivered postcard.
type Message struct {
	ID        string
	FromID    string
	FromName  string
	ToID      string
	Subject   string
	Body      string
	Seen      bool
	CreatedAt time.Time
}
