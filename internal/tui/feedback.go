package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"gds-cli/internal/app"
)

type feedbackState struct {
	rows    []app.FeedbackRow
	loading bool
	errText string
	filter  string // all|up|down

	vp      viewport.Model
	vpReady bool
}

func newFeedbackState() feedbackState {
	return feedbackState{filter: "all"}
}

func (f *feedbackState) filtered() []app.FeedbackRow {
	if f.filter == "all" {
		return f.rows
	}
	var out []app.FeedbackRow
	for _, r := range f.rows {
		if r.Rating == f.filter {
			out = append(out, r)
		}
	}
	return out
}

func (m *Model) resizeFeedback() {
	w := max(10, m.contentWidth()-4)
	h := max(4, m.contentHeight()-4)
	if !m.feedback.vpReady {
		m.feedback.vp = viewport.New(w, h)
		m.feedback.vpReady = true
	} else {
		m.feedback.vp.Width = w
		m.feedback.vp.Height = h
	}
	m.refreshFeedbackViewport()
}

func (m *Model) refreshFeedbackViewport() {
	if !m.feedback.vpReady {
		return
	}
	m.feedback.vp.SetContent(m.renderFeedbackRows())
	m.feedback.vp.GotoTop()
}

func (m *Model) renderFeedbackRows() string {
	rows := m.feedback.filtered()
	if len(rows) == 0 {
		return m.theme.Faint.Render("No feedback for this filter.")
	}

	w := m.feedback.vp.Width
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n\n")
		}
		mark := m.theme.Success.Render("▲ up")
		if r.Rating == "down" {
			mark = m.theme.Error.Render("▼ down")
		}
		b.WriteString(mark)
		b.WriteString("  " + m.theme.Muted.Render(r.UserEmail))
		b.WriteString("  " + m.theme.Faint.Render(r.CreatedAt.Format("2 Jan 15:04")))
		if r.Comment != "" {
			b.WriteString("\n" + wrapText(r.Comment, w))
		}
		if r.UserPrompt != "" {
			b.WriteString("\n" + m.theme.Faint.Render(wrapText("Q: "+r.UserPrompt, w)))
		}
		if r.AssistantReply != "" {
			b.WriteString("\n" + m.theme.Faint.Render(wrapText("A: "+r.AssistantReply, w)))
		}
	}
	return b.String()
}

func (m *Model) updateFeedback(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		m.feedback.filter = "all"
		m.refreshFeedbackViewport()
	case "u":
		m.feedback.filter = "up"
		m.refreshFeedbackViewport()
	case "d":
		m.feedback.filter = "down"
		m.refreshFeedbackViewport()
	case "r":
		if !m.feedback.loading {
			return m, m.loadFeedback()
		}
	case "esc":
		m.navigate(pageDashboard)
	case "up", "down", "pgup", "pgdown", "j", "k":
		var cmd tea.Cmd
		m.feedback.vp, cmd = m.feedback.vp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) viewFeedback() string {
	f := &m.feedback
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("Feedback"))
	b.WriteString("  ")
	for i, opt := range []string{"all", "up", "down"} {
		if i > 0 {
			b.WriteString(" ")
		}
		if f.filter == opt {
			b.WriteString(m.theme.NavSel.Render("[" + opt + "]"))
		} else {
			b.WriteString(m.theme.NavItem.Render(" " + opt + " "))
		}
	}
	b.WriteString("\n\n")

	switch {
	case f.loading:
		b.WriteString(m.spinnerLine("Loading feedback…"))
	case f.errText != "":
		b.WriteString(m.theme.Error.Render(f.errText))
		b.WriteString("\n" + m.theme.Faint.Render("r retry"))
	default:
		b.WriteString(f.vp.View())
	}

	b.WriteString("\n\n")
	b.WriteString(m.theme.Footer.Render("a/u/d filter  r reload  esc back"))
	return b.String()
}
