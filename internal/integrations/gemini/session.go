package gemini

import (
	"context"
	"errors"
	"sync"
)

// ChatSession keeps the turn history of one conversation and replays it on
// every request. History only grows when a turn succeeds.
type ChatSession struct {
	client *Client

	mu      sync.Mutex
	history []content
}

// Send submits text as the next user turn and returns the model's reply.
func (s *ChatSession) Send(ctx context.Context, text string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("gemini: chat session not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userTurn := content{Role: roleUser, Parts: []part{{Text: text}}}
	contents := make([]content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, userTurn)

	reply, err := s.client.generate(ctx, contents)
	if err != nil {
		return "", err
	}

	s.history = append(s.history, userTurn, content{Role: roleModel, Parts: []part{{Text: reply}}})
	return reply, nil
}

// Turns returns the number of completed user/model exchanges.
func (s *ChatSession) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history) / 2
}
