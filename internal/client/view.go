package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tyrowin/livechat/internal/chat"
)

const usersPanelWidth = 24

// Styles for the UI
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	onlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	offlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	selfStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	noticeStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#5F87FF"))
	dateStyle     = lipgloss.NewStyle().Faint(true).Align(lipgloss.Center)
	typingStyle   = lipgloss.NewStyle().Italic(true).Faint(true)
	dividerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#505050"))
	usersBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#505050")).
			PaddingLeft(1)
)

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	body := m.viewport.View()
	if m.showUsers {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.usersPanel())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		body,
		typingStyle.Render(typingLine(m.typingUsers)),
		dividerStyle.Render(strings.Repeat("─", max(m.width, 1))),
		m.input.View(),
	)
}

func (m Model) header() string {
	status := onlineStyle.Render("● connected")
	if !m.connected {
		status = offlineStyle.Render("○ disconnected")
		if m.lastErr != nil {
			status += faintStyle.Render(" (" + m.lastErr.Error() + ")")
		}
	}

	return strings.Join([]string{
		titleStyle.Render("livechat"),
		userStyle.Render(m.username),
		status,
		faintStyle.Render(fmt.Sprintf("%d online", len(m.users))),
		faintStyle.Render(usersCommand + " toggles users • Ctrl+C quits"),
	}, "  ")
}

func (m Model) usersPanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Online (%d)", len(m.users))))
	for _, u := range m.users {
		b.WriteString("\n")
		name := u.Username
		if name == m.username {
			name = selfStyle.Render(name + " (you)")
		}
		b.WriteString(onlineStyle.Render("● ") + name)
	}
	return usersBoxStyle.
		Width(usersPanelWidth - 2).
		Height(m.viewport.Height).
		Render(b.String())
}

// layout sizes the viewport for the window: one header line, then the
// transcript, then the typing line, divider and input.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	const chrome = 4
	width := m.width
	if m.showUsers && width > usersPanelWidth*2 {
		width -= usersPanelWidth
	}
	height := max(m.height-chrome, 1)

	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height
	}
	m.input.Width = max(m.width-len(m.input.Prompt)-1, 1)
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderMessages(m.messages, m.username, m.viewport.Width, m.now()))
	m.viewport.GotoBottom()
}

func renderMessages(messages []chat.Message, self string, width int, now time.Time) string {
	if width < 20 {
		width = 80
	}

	var b strings.Builder
	var lastDay string
	for _, msg := range messages {
		local := msg.Timestamp.Local()
		if day := local.Format(time.DateOnly); day != lastDay {
			lastDay = day
			b.WriteString(dateStyle.Width(width).Render(dayLabel(local, now)))
			b.WriteString("\n")
		}

		if msg.IsNotice() {
			b.WriteString(noticeStyle.Width(width).Align(lipgloss.Center).Render(msg.Text))
			b.WriteString("\n")
			continue
		}

		name := userStyle.Render(msg.Username)
		if msg.Username == self {
			name = selfStyle.Render(msg.Username)
		}
		prefix := faintStyle.Render(local.Format("15:04")) + " " + name + ": "
		textWidth := max(width-lipgloss.Width(prefix), 10)
		text := lipgloss.NewStyle().Width(textWidth).Render(msg.Text)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, prefix, text))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// dayLabel names the day of t relative to now.
func dayLabel(t, now time.Time) string {
	now = now.In(t.Location())
	y, m, d := t.Date()
	ny, nm, nd := now.Date()
	switch {
	case y == ny && m == nm && d == nd:
		return "Today"
	case now.AddDate(0, 0, -1).Format(time.DateOnly) == t.Format(time.DateOnly):
		return "Yesterday"
	default:
		return t.Format("Jan 2, 2006")
	}
}

func typingLine(usernames []string) string {
	switch len(usernames) {
	case 0:
		return ""
	case 1:
		return usernames[0] + " is typing..."
	default:
		return fmt.Sprintf("%d people are typing...", len(usernames))
	}
}
