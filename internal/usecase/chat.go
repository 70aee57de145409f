package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"gemini-chat/internal/conversation"
	"gemini-chat/internal/domain"
)

const (
	defaultMaxMessage  = 4000
	defaultMaxSessions = 1000
)

// SessionStarter opens a new remote chat session with empty history.
type SessionStarter func() conversation.ChatSession

// ChatService runs chat turns for sessions held in process memory. Session
// IDs are issued by the service; once maxSessions are held the oldest is
// dropped.
type ChatService struct {
	start         SessionStarter
	maxMessageLen int
	maxSessions   int

	mu       sync.Mutex
	sessions map[string]*conversation.Session
	order    []string
}

type ChatInput struct {
	Message   string
	SessionID string
}

type ChatOutput struct {
	Reply     string
	SessionID string
	Messages  []domain.Message
}

type HistoryOutput struct {
	SessionID string
	Messages  []domain.Message
}

func NewChatService(start SessionStarter, maxMessageLen int) (*ChatService, error) {
	if start == nil {
		return nil, errors.New("usecase: session starter must not be nil")
	}
	if maxMessageLen <= 0 {
		maxMessageLen = defaultMaxMessage
	}
	return &ChatService{
		start:         start,
		maxMessageLen: maxMessageLen,
		maxSessions:   defaultMaxSessions,
		sessions:      make(map[string]*conversation.Session),
	}, nil
}

// Send submits one message. An empty SessionID opens a new session; any other
// ID must be one this service issued. A failed remote call still returns the
// output, whose Reply is the error text recorded in the log.
func (s *ChatService) Send(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if strings.TrimSpace(in.Message) == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if utf8.RuneCountInString(in.Message) > s.maxMessageLen {
		return ChatOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}

	sessionID := strings.TrimSpace(in.SessionID)
	var sess *conversation.Session
	if sessionID == "" {
		var err error
		sessionID, sess, err = s.open()
		if err != nil {
			return ChatOutput{}, newError(ErrorInternal, "session_start_error", err)
		}
	} else {
		var ok bool
		if sess, ok = s.lookup(sessionID); !ok {
			return ChatOutput{}, newError(ErrorSessionNotFound, "unknown_session", nil)
		}
	}

	reply, err := sess.Submit(ctx, in.Message)
	out := ChatOutput{
		Reply:     reply.Content,
		SessionID: sessionID,
		Messages:  sess.Messages(),
	}
	if err != nil {
		var sendErr *conversation.SendError
		if !errors.As(err, &sendErr) {
			return out, newError(ErrorInternal, "send_error", err)
		}
		slog.WarnContext(ctx, "chat turn failed", "session", sessionID, "kind", sendErr.Kind, "err", sendErr.Err)
		return out, sendErrorToUsecase(sendErr)
	}
	return out, nil
}

// History returns the full log of a session for re-rendering.
func (s *ChatService) History(_ context.Context, sessionID string) (HistoryOutput, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return HistoryOutput{}, newError(ErrorInvalidInput, "missing_session_id", nil)
	}
	sess, ok := s.lookup(sessionID)
	if !ok {
		return HistoryOutput{}, newError(ErrorSessionNotFound, "unknown_session", nil)
	}
	return HistoryOutput{SessionID: sessionID, Messages: sess.Messages()}, nil
}

func (s *ChatService) lookup(id string) (*conversation.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// open starts a session under a fresh ID, evicting the oldest when full.
func (s *ChatService) open() (string, *conversation.Session, error) {
	sess, err := conversation.NewSession(s.start())
	if err != nil {
		return "", nil, err
	}
	id := newUUID()

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) > 0 && len(s.sessions) >= s.maxSessions {
		delete(s.sessions, s.order[0])
		s.order = s.order[1:]
	}
	s.sessions[id] = sess
	s.order = append(s.order, id)
	return id, sess, nil
}

func sendErrorToUsecase(err *conversation.SendError) *Error {
	switch err.Kind {
	case conversation.KindRateLimited:
		return newError(ErrorRateLimited, "gemini_rate_limited", err)
	case conversation.KindTransport:
		return newError(ErrorUpstreamUnavailable, "gemini_unavailable", err)
	case conversation.KindAuth:
		return newError(ErrorUpstream, "gemini_auth_error", err)
	default:
		return newError(ErrorUpstream, "gemini_error", err)
	}
}

var newUUID = func() string {
	return uuid.NewString()
}
