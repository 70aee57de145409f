package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"gemini-chat/handler"
	"gemini-chat/internal/bootstrap"
	"gemini-chat/internal/config"
	"gemini-chat/internal/conversation"
	"gemini-chat/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg := config.Load()

	// ---- Credential ----
	apiKey, err := bootstrap.ResolveAPIKey(ctx, cfg)
	if err != nil {
		slog.Error("failed to resolve API key", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	geminiClient, err := bootstrap.NewChatClient(cfg, apiKey)
	if err != nil {
		slog.Error("failed to create Gemini client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	chatService, err := usecase.NewChatService(func() conversation.ChatSession {
		return geminiClient.StartChat()
	}, cfg.MaxMessageLen)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chatService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	slog.Info("chat handler ready", "model", geminiClient.Model())
	lambda.Start(h.Handle)
}
