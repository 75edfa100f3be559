package email

import "context"

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers transactional email. Implementations return the
// provider's message ID on success.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
