package mail

import "context"

// Message is a single outbound email.
type Message struct {
	ToName   string
	ToEmail  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers messages to an external mail provider. Sends are awaited
// by callers; implementations must not retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
