package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	loginStepEmail = iota
	loginStepCode
)

type loginState struct {
	step    int
	email   textinput.Model
	code    textinput.Model
	busy    bool
	errText string
}

func newLoginState() loginState {
	email := textinput.New()
	email.Placeholder = "you@studio.com"
	email.CharLimit = 254
	email.Width = 40
	email.Focus()

	code := textinput.New()
	code.Placeholder = "000000"
	code.CharLimit = 6
	code.Width = 12

	return loginState{email: email, code: code}
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 {
		return false
	}
	return strings.Contains(s[at+1:], ".")
}

func validCode(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (m *Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		if m.login.step == loginStepEmail {
			email := strings.TrimSpace(m.login.email.Value())
			if !validEmail(email) {
				m.login.errText = "Enter a valid email address."
				return m, nil
			}
			m.login.busy = true
			m.login.errText = ""
			return m, m.requestCode(email)
		}
		code := strings.TrimSpace(m.login.code.Value())
		if !validCode(code) {
			m.login.errText = "The code is six digits."
			return m, nil
		}
		m.login.busy = true
		m.login.errText = ""
		return m, m.verifyCode(strings.TrimSpace(m.login.email.Value()), code)

	case "esc":
		if m.login.step == loginStepCode {
			m.login.step = loginStepEmail
			m.login.code.SetValue("")
			m.login.errText = ""
			m.login.email.Focus()
			m.login.code.Blur()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.login.step == loginStepEmail {
		m.login.email, cmd = m.login.email.Update(msg)
	} else {
		m.login.code, cmd = m.login.code.Update(msg)
	}
	return m, cmd
}

func (m *Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(m.theme.TopBarTitle.Render("Get Design Strategy"))
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("Sign in to talk to your strategist."))
	b.WriteString("\n\n")

	if m.login.step == loginStepEmail {
		b.WriteString(m.theme.PaneTitle.Render("Email"))
		b.WriteString("\n")
		b.WriteString(m.theme.InputBoxF.Render(m.login.email.View()))
		b.WriteString("\n\n")
		if m.login.busy {
			b.WriteString(m.spinnerLine("Sending your code…"))
		} else {
			b.WriteString(m.theme.Faint.Render("enter send code  ctrl+c quit"))
		}
	} else {
		b.WriteString(m.theme.Muted.Render("We emailed a six-digit code to " + strings.TrimSpace(m.login.email.Value()) + "."))
		b.WriteString("\n\n")
		b.WriteString(m.theme.PaneTitle.Render("Code"))
		b.WriteString("\n")
		b.WriteString(m.theme.InputBoxF.Render(m.login.code.View()))
		b.WriteString("\n\n")
		if m.login.busy {
			b.WriteString(m.spinnerLine("Checking the code…"))
		} else {
			b.WriteString(m.theme.Faint.Render("enter verify  esc back  ctrl+c quit"))
		}
	}

	if m.login.errText != "" {
		b.WriteString("\n\n")
		b.WriteString(m.theme.Error.Render(m.login.errText))
	}

	card := m.theme.Pane.Width(min(60, max(36, m.width-8))).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}
