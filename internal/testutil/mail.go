package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/lawdir/directory-api/internal/email"
)

// MailRecorder is an email.Sender that keeps every message in memory
type MailRecorder struct {
	mu       sync.Mutex
	messages []email.Message
	// Err is returned from Send when set
	Err error
}

var _ email.Sender = (*MailRecorder)(nil)

func (r *MailRecorder) Send(_ context.Context, msg *email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, *msg)
	return nil
}

// Messages returns a copy of the recorded messages
func (r *MailRecorder) Messages() []email.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]email.Message(nil), r.messages...)
}

// BySubjectPrefix returns recorded messages whose subject starts with prefix
func (r *MailRecorder) BySubjectPrefix(prefix string) []email.Message {
	var out []email.Message
	for _, m := range r.Messages() {
		if strings.HasPrefix(m.Subject, prefix) {
			out = append(out, m)
		}
	}
	return out
}
