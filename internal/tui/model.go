// Package tui is the terminal rendering surface for a conversation. Every
// refresh replays the whole log.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gemini-chat/internal/conversation"
	"gemini-chat/internal/domain"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	footerLines   = 4
)

// Submitter is the conversation the UI drives. *conversation.Session
// satisfies this interface.
type Submitter interface {
	Submit(ctx context.Context, userText string) (domain.Message, error)
	Messages() []domain.Message
}

// submittedMsg reports a finished turn.
type submittedMsg struct {
	reply domain.Message
	err   error
}

type Model struct {
	ctx     context.Context
	session Submitter

	input      textinput.Model
	spinner    spinner.Model
	viewport   viewport.Model
	transcript *transcript

	sending bool
	lastErr error
	width   int
}

func New(ctx context.Context, session Submitter) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "› "
	ti.Focus()
	ti.Width = defaultWidth - 4

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:        ctx,
		session:    session,
		input:      ti,
		spinner:    sp,
		viewport:   viewport.New(defaultWidth, defaultHeight-lipgloss.Height(headerView())-footerLines),
		transcript: newTranscript(defaultWidth, detectStyle()),
		width:      defaultWidth,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case submittedMsg:
		m.sending = false
		m.lastErr = msg.err
		if msg.err != nil {
			var sendErr *conversation.SendError
			if errors.As(msg.err, &sendErr) {
				slog.Warn("chat turn failed", "kind", sendErr.Kind, "err", sendErr.Err)
			}
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.viewport.Width = msg.Width
	h := msg.Height - lipgloss.Height(headerView()) - footerLines
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
	m.input.Width = max(msg.Width-4, 10)
	m.transcript.setWidth(msg.Width)
	m.refresh()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	if m.sending {
		return m, nil
	}
	if msg.Type == tea.KeyEnter {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.input.Reset()
	m.sending = true
	m.lastErr = nil
	return m, tea.Batch(m.spinner.Tick, submitCmd(m.ctx, m.session, text))
}

func submitCmd(ctx context.Context, s Submitter, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := s.Submit(ctx, text)
		return submittedMsg{reply: reply, err: err}
	}
}

// refresh re-renders the full log into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript.Render(m.session.Messages()))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerView())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.sending:
		b.WriteString(m.spinner.View() + " Thinking...")
	case m.lastErr != nil:
		b.WriteString(errorStyle.Render(conversation.ErrorPrefix + m.lastErr.Error()))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send • ↑/↓ scroll • esc quit"))
	return b.String()
}
