package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"gemini-chat/internal/domain"
)

const (
	title = "🤖 Gemini AI Chat"
	intro = "Welcome to Gemini AI Chat! This is a simple chatbot interface powered by Google's Gemini AI.\n" +
		"Feel free to start a conversation below."
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8AB4F8"))
	introStyle     = lipgloss.NewStyle().Faint(true)
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#81C995")).Render("You")
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8AB4F8")).Render("Gemini")
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F28B82"))
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

// detectStyle picks the markdown style for the current terminal. It queries
// the terminal background, so it must run before the program owns stdin.
var detectStyle = func() string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return styles.NoTTYStyle
	}
	if termenv.HasDarkBackground() {
		return styles.DarkStyle
	}
	return styles.LightStyle
}

// transcript renders the full log. Messages never change once appended, so
// rendered output is cached by position until the width changes.
type transcript struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	rendered []string
}

func newTranscript(width int, style string) *transcript {
	t := &transcript{style: style}
	t.setWidth(width)
	return t
}

func (t *transcript) setWidth(width int) {
	if width == t.width && t.renderer != nil {
		return
	}
	t.width = width
	t.rendered = nil
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(t.style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		// Plain text when the renderer cannot be built.
		r = nil
	}
	t.renderer = r
}

// Render replays every message in insertion order.
func (t *transcript) Render(msgs []domain.Message) string {
	if len(t.rendered) > len(msgs) {
		t.rendered = nil
	}
	for i := len(t.rendered); i < len(msgs); i++ {
		t.rendered = append(t.rendered, t.renderMessage(msgs[i]))
	}
	return strings.Join(t.rendered, "\n\n")
}

func (t *transcript) renderMessage(m domain.Message) string {
	label := userLabel
	if m.Role == domain.RoleAssistant {
		label = assistantLabel
	}
	return label + "\n" + t.markdown(m.Content)
}

func (t *transcript) markdown(content string) string {
	if t.renderer == nil {
		return content
	}
	out, err := t.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func headerView() string {
	return titleStyle.Render(title) + "\n" + introStyle.Render(intro)
}
