package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"gemini-chat/internal/bootstrap"
	"gemini-chat/internal/config"
	"gemini-chat/internal/conversation"
	"gemini-chat/internal/tui"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	closeLog := setupLogging(cfg.LogFile)
	defer closeLog()

	apiKey, err := bootstrap.ResolveAPIKey(ctx, cfg)
	if err != nil {
		slog.Error("failed to resolve API key", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client, err := bootstrap.NewChatClient(cfg, apiKey)
	if err != nil {
		slog.Error("failed to create Gemini client", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	session, err := conversation.NewSession(client.StartChat())
	if err != nil {
		slog.Error("failed to create session", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	slog.Info("chat started", "model", client.Model())
	if _, err := tea.NewProgram(tui.New(ctx, session), tea.WithAltScreen()).Run(); err != nil {
		slog.Error("chat exited with error", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging sends slog output to path, or discards it, so log lines never
// land on the terminal the UI is drawing.
func setupLogging(path string) func() {
	if path == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file %s: %v\n", path, err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))
	return func() { _ = f.Close() }
}
