package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"gds-cli/internal/app"
)

type chatState struct {
	vp      viewport.Model
	input   textarea.Model
	vpReady bool
}

func newChatState() chatState {
	input := textarea.New()
	input.Placeholder = "Ask your strategist…"
	input.CharLimit = 4000
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()
	return chatState{input: input}
}

func (m *Model) resizeChat() {
	w := m.contentWidth()
	h := m.contentHeight()
	inputH := 5
	vpH := max(3, h-inputH-2)
	if !m.chat.vpReady {
		m.chat.vp = viewport.New(max(10, w-4), vpH)
		m.chat.vpReady = true
	} else {
		m.chat.vp.Width = max(10, w-4)
		m.chat.vp.Height = vpH
	}
	m.chat.input.SetWidth(max(10, w-6))
	m.refreshChatViewport()
}

// refreshChatViewport re-renders the transcript into the viewport and pins it
// to the bottom so new turns are always visible.
func (m *Model) refreshChatViewport() {
	if !m.chat.vpReady {
		return
	}
	m.chat.vp.SetContent(m.renderTranscript())
	m.chat.vp.GotoBottom()
}

func (m *Model) renderTranscript() string {
	msgs := m.app.Conversation.Messages()
	if len(msgs) == 0 && !m.app.Conversation.Sending() {
		return m.theme.Faint.Render("No messages yet. Tell the strategist what you're working on.")
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.Role == "assistant" {
			b.WriteString(m.theme.RoleAI.Render("Strategist"))
		} else {
			b.WriteString(m.theme.RoleYou.Render("You"))
		}
		b.WriteString("\n")
		b.WriteString(wrapText(msg.Content, m.chat.vp.Width))
	}
	if m.app.Conversation.Sending() {
		b.WriteString("\n\n")
		b.WriteString(m.theme.RoleAI.Render("Strategist"))
		b.WriteString("\n")
		b.WriteString(m.spinnerLine("thinking…"))
	}
	return b.String()
}

func (m *Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		content := m.chat.input.Value()
		switch m.app.Conversation.BeginSend(content, m.app.Entitlement) {
		case app.SendStarted:
			m.chat.input.SetValue("")
			m.refreshChatViewport()
			return m, tea.Batch(m.sendChat(m.app.Gate.Epoch(), strings.TrimSpace(content)), m.spinTick())
		case app.SendPaywalled:
			m.refreshChatViewport()
			return m, nil
		default:
			return m, nil
		}
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.chat.vp, cmd = m.chat.vp.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	return m, cmd
}

func (m *Model) viewChat() string {
	var b strings.Builder

	if pw := m.app.Conversation.Paywall(); pw.Active {
		banner := m.theme.Warn.Render(pw.Message) + "\n" +
			m.theme.Faint.Render("ctrl+o open upgrade options")
		b.WriteString(m.theme.PaneFocused.Width(m.chat.vp.Width).Render(banner))
		b.WriteString("\n")
	}
	if errText := m.app.Conversation.ErrText(); errText != "" {
		b.WriteString(m.theme.Error.Render("Something went wrong: " + errText))
		b.WriteString("\n")
	}

	b.WriteString(m.chat.vp.View())
	b.WriteString("\n")
	if m.app.Conversation.Sending() {
		b.WriteString(m.theme.InputBox.Render(m.chat.input.View()))
	} else {
		b.WriteString(m.theme.InputBoxF.Render(m.chat.input.View()))
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Footer.Render(m.chatFooter()))
	return b.String()
}

func (m *Model) chatFooter() string {
	parts := []string{"enter send", "pgup/pgdown scroll"}
	if remaining, known := m.app.Entitlement.Remaining(); known {
		parts = append(parts, strconv.Itoa(remaining)+" free messages left")
	} else if m.app.Entitlement.Paid() {
		parts = append(parts, "unlimited plan")
	}
	return strings.Join(parts, "  ")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		for len(line) > width {
			cut := strings.LastIndex(line[:width], " ")
			if cut <= 0 {
				cut = width
			}
			out = append(out, line[:cut])
			line = strings.TrimLeft(line[cut:], " ")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
