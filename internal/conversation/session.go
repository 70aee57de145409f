// Package conversation owns the local message log of a chat and mediates each
// turn against the remote chat session.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"gemini-chat/internal/domain"
)

// ChatSession is the remote collaborator that keeps server-side turn history.
// *gemini.ChatSession satisfies this interface.
type ChatSession interface {
	Send(ctx context.Context, text string) (string, error)
}

// Session is one conversation: an append-only log mirrored by a remote chat
// session. Submissions are serialized; Messages may be read at any time.
type Session struct {
	chat ChatSession

	turnMu sync.Mutex

	mu  sync.RWMutex
	log []domain.Message
}

// NewSession creates a Session with an empty log over chat.
func NewSession(chat ChatSession) (*Session, error) {
	if chat == nil {
		return nil, errors.New("conversation: chat session must not be nil")
	}
	return &Session{chat: chat}, nil
}

// Submit runs one turn. Blank text is ignored: it returns a zero Message and a
// nil error without touching the log. Otherwise the user message is appended
// before the remote call and exactly one assistant message after it. When the
// remote call fails the assistant message holds ErrorPrefix plus the failure,
// and the error is returned as a *SendError alongside it.
func (s *Session) Submit(ctx context.Context, userText string) (domain.Message, error) {
	if strings.TrimSpace(userText) == "" {
		return domain.Message{}, nil
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.append(domain.UserMessage(userText))

	reply, err := s.chat.Send(ctx, userText)
	if err != nil {
		sendErr := newSendError(err)
		msg := domain.AssistantMessage(ErrorPrefix + sendErr.Error())
		s.append(msg)
		return msg, sendErr
	}

	msg := domain.AssistantMessage(reply)
	s.append(msg)
	return msg, nil
}

// Messages returns a copy of the log in insertion order.
func (s *Session) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.log))
	copy(out, s.log)
	return out
}

// Len returns the number of messages in the log.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log)
}

func (s *Session) append(msg domain.Message) {
	s.mu.Lock()
	s.log = append(s.log, msg)
	s.mu.Unlock()
}
