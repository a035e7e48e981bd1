// Package notify delivers transactional notifications to members. The only
// message this core sends is the welcome mail carrying the initial credential
// of a freshly provisioned identity.
//
// Delivery failures must never roll back a completed provisioning action;
// callers log the failure and fall back to handing the credential to the
// operator.
package notify

import (
	"context"
	"sync"
)

// Sender is the consumed notification contract.
type Sender interface {
	// SendWelcome delivers the welcome message with the initial credential.
	SendWelcome(ctx context.Context, email, firstName, plaintextPassword string) error
}

// LogSender is a Sender that only records, for local development and tests.
// Safe for concurrent use.
type LogSender struct {
	// Err, when set, is returned by every send (failure injection).
	Err error

	mu   sync.Mutex
	sent []WelcomeMessage
}

// WelcomeMessage records one delivered welcome notification.
type WelcomeMessage struct {
	Email     string
	FirstName string
	Password  string
}

func (s *LogSender) SendWelcome(ctx context.Context, email, firstName, plaintextPassword string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, WelcomeMessage{Email: email, FirstName: firstName, Password: plaintextPassword})
	return nil
}

// Messages returns a copy of the recorded welcome messages.
func (s *LogSender) Messages() []WelcomeMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WelcomeMessage, len(s.sent))
	copy(out, s.sent)
	return out
}
