package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"gemini-chat/internal/domain"
	"gemini-chat/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// UseCase is the chat behaviour the handler exposes over HTTP.
type UseCase interface {
	Send(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	History(ctx context.Context, sessionID string) (usecase.HistoryOutput, error)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type chatResponse struct {
	Reply     string           `json:"reply"`
	SessionID string           `json:"sessionId"`
	Messages  []domain.Message `json:"messages"`
}

type historyResponse struct {
	SessionID string           `json:"sessionId"`
	Messages  []domain.Message `json:"messages"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason,omitempty"`
	Reply     string `json:"reply,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Handler serves the chat API behind API Gateway.
type Handler struct {
	uc UseCase
}

func NewHandler(uc UseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc}, nil
}

// Handle routes POST /chat and GET /messages.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req.Headers)
	path := strings.TrimRight(req.Path, "/")

	switch {
	case strings.HasSuffix(path, "/chat"):
		if req.HTTPMethod != http.MethodPost {
			return respondError(corrID, http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"}), nil
		}
		return h.handleChat(ctx, corrID, req), nil
	case strings.HasSuffix(path, "/messages"):
		if req.HTTPMethod != http.MethodGet {
			return respondError(corrID, http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"}), nil
		}
		return h.handleHistory(ctx, corrID, req), nil
	default:
		return respondError(corrID, http.StatusNotFound, errorResponse{Error: "NOT_FOUND"}), nil
	}
}

func (h *Handler) handleChat(ctx context.Context, corrID string, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	body := req.Body
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return respondError(corrID, http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"})
		}
		body = string(decoded)
	}

	var in chatRequest
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return respondError(corrID, http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"})
	}

	out, err := h.uc.Send(ctx, usecase.ChatInput{Message: in.Message, SessionID: in.SessionID})
	if err != nil {
		return h.fail(ctx, corrID, err, errorResponse{Reply: out.Reply, SessionID: out.SessionID})
	}
	return respond(corrID, http.StatusOK, chatResponse{
		Reply:     out.Reply,
		SessionID: out.SessionID,
		Messages:  nonNil(out.Messages),
	})
}

func (h *Handler) handleHistory(ctx context.Context, corrID string, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	out, err := h.uc.History(ctx, req.QueryStringParameters["sessionId"])
	if err != nil {
		return h.fail(ctx, corrID, err, errorResponse{})
	}
	return respond(corrID, http.StatusOK, historyResponse{
		SessionID: out.SessionID,
		Messages:  nonNil(out.Messages),
	})
}

func (h *Handler) fail(ctx context.Context, corrID string, err error, body errorResponse) events.APIGatewayProxyResponse {
	status := http.StatusInternalServerError
	body.Error = string(usecase.ErrorInternal)

	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		body.Error = string(ucErr.Code)
		body.Reason = ucErr.Reason
		status = statusForCode(ucErr.Code)
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "chat request failed", "correlationId", corrID, "err", err)
	}
	return respondError(corrID, status, body)
}

func statusForCode(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorSessionNotFound:
		return http.StatusNotFound
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	case usecase.ErrorUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}

func respond(corrID string, status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(body),
	}
}

func respondError(corrID string, status int, body errorResponse) events.APIGatewayProxyResponse {
	return respond(corrID, status, body)
}

func nonNil(msgs []domain.Message) []domain.Message {
	if msgs == nil {
		return []domain.Message{}
	}
	return msgs
}
