package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gds-cli/internal/app"
)

const detailsMinLen = 40

type onboardingQuestion struct {
	prompt  string
	options []string
}

// The baseline questionnaire. Answers are immutable after submission, so the
// wizard ends with an explicit confirm step. An array, not a slice, so the
// step constants below stay constant expressions.
var onboardingQuestions = [...]onboardingQuestion{
	{
		prompt:  "What best describes your business?",
		options: []string{"Freelancer", "Studio (2–4)", "Agency (5+)"},
	},
	{
		prompt:  "How do you currently price projects?",
		options: []string{"Hourly", "Fixed project", "Productized packages", "Mixed", "Unclear"},
	},
	{
		prompt:  "Monthly revenue range (average)",
		options: []string{"<£2k", "£2k–£5k", "£5k–£10k", "£10k+"},
	},
	{
		prompt: "What is your main growth bottleneck right now?",
		options: []string{
			"Low pricing / constant negotiation",
			"Weak leads",
			"Lack of processes",
			"No time",
			"Low confidence selling",
		},
	},
	{
		prompt: "Where do you want to be in 12 months?",
		options: []string{
			"Earn more without more hours",
			"Fewer, better clients",
			"Build scalable services",
			"Build a small team",
			"Clear, predictable systems",
		},
	},
}

const (
	onbStepDetails = len(onboardingQuestions)
	onbStepConfirm = onbStepDetails + 1
)

type onboardingState struct {
	step     int
	selected [5]int
	details  textarea.Model

	busy      bool
	submitted bool
	errText   string
}

func newOnboardingState() onboardingState {
	details := textarea.New()
	details.Placeholder = "Example: I'm stuck on hourly pricing. I tried fixed packages but clients compared me to cheap competitors..."
	details.CharLimit = 2000
	details.SetWidth(64)
	details.SetHeight(6)
	details.ShowLineNumbers = false
	return onboardingState{details: details, selected: [5]int{0, 0, 0, 0, 1}}
}

func (o *onboardingState) input() app.ProfileInput {
	return app.ProfileInput{
		BusinessType:   onboardingQuestions[0].options[o.selected[0]],
		PricingModel:   onboardingQuestions[1].options[o.selected[1]],
		MonthlyRevenue: onboardingQuestions[2].options[o.selected[2]],
		MainBottleneck: onboardingQuestions[3].options[o.selected[3]],
		Goal12Months:   onboardingQuestions[4].options[o.selected[4]],
		Details:        strings.TrimSpace(o.details.Value()),
	}
}

func (m *Model) updateOnboarding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.onb.busy {
		return m, nil
	}
	o := &m.onb

	switch {
	case o.step < onbStepDetails:
		q := onboardingQuestions[o.step]
		switch msg.String() {
		case "up", "k":
			if o.selected[o.step] > 0 {
				o.selected[o.step]--
			}
		case "down", "j":
			if o.selected[o.step] < len(q.options)-1 {
				o.selected[o.step]++
			}
		case "enter":
			o.step++
			if o.step == onbStepDetails {
				o.details.Focus()
			}
		case "esc":
			if o.step > 0 {
				o.step--
			}
		}
		return m, nil

	case o.step == onbStepDetails:
		switch msg.String() {
		case "enter":
			if len(strings.TrimSpace(o.details.Value())) < detailsMinLen {
				o.errText = "A bit more detail, please. Minimum 40 characters."
				return m, nil
			}
			o.errText = ""
			o.step = onbStepConfirm
			o.details.Blur()
			return m, nil
		case "esc":
			o.step--
			o.details.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		o.details, cmd = o.details.Update(msg)
		return m, cmd

	default: // confirm
		switch msg.String() {
		case "enter":
			o.busy = true
			o.errText = ""
			epoch := m.app.Gate.Epoch()
			return m, tea.Batch(m.createProfile(epoch, o.input()), m.spinTick())
		case "esc":
			o.step = onbStepDetails
			o.details.Focus()
		}
		return m, nil
	}
}

func (m *Model) viewOnboarding() string {
	o := &m.onb
	var b strings.Builder

	b.WriteString(m.theme.TopBarTitle.Render("Welcome. Let's set your baseline."))
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("This takes ~2 minutes and keeps the strategist tailored to your business."))
	b.WriteString("\n")
	b.WriteString(m.theme.Faint.Render(onbProgress(o.step)))
	b.WriteString("\n\n")

	switch {
	case o.step < onbStepDetails:
		q := onboardingQuestions[o.step]
		b.WriteString(m.theme.Title.Render(q.prompt))
		b.WriteString("\n\n")
		for i, opt := range q.options {
			if i == o.selected[o.step] {
				b.WriteString(m.theme.NavSel.Render("› " + opt))
			} else {
				b.WriteString(m.theme.NavItem.Render("  " + opt))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.theme.Faint.Render("↑/↓ choose  enter next  esc back"))

	case o.step == onbStepDetails:
		b.WriteString(m.theme.Title.Render("Describe your main problems and what you've tried so far"))
		b.WriteString("\n\n")
		b.WriteString(m.theme.InputBoxF.Render(o.details.View()))
		b.WriteString("\n")
		got := len(strings.TrimSpace(o.details.Value()))
		counter := strconv.Itoa(got) + "/" + strconv.Itoa(detailsMinLen) + " characters minimum"
		if got >= detailsMinLen {
			b.WriteString(m.theme.Success.Render(counter))
		} else {
			b.WriteString(m.theme.Faint.Render(counter))
		}
		b.WriteString("\n\n")
		b.WriteString(m.theme.Faint.Render("enter continue  esc back"))

	default:
		in := o.input()
		b.WriteString(m.theme.Title.Render("Confirm your answers"))
		b.WriteString("\n")
		b.WriteString(m.theme.Warn.Render("These answers steer every recommendation and cannot be edited later."))
		b.WriteString("\n\n")
		b.WriteString(m.theme.Muted.Render("Business      ") + in.BusinessType + "\n")
		b.WriteString(m.theme.Muted.Render("Pricing       ") + in.PricingModel + "\n")
		b.WriteString(m.theme.Muted.Render("Revenue       ") + in.MonthlyRevenue + "\n")
		b.WriteString(m.theme.Muted.Render("Bottleneck    ") + in.MainBottleneck + "\n")
		b.WriteString(m.theme.Muted.Render("12-month goal ") + in.Goal12Months + "\n\n")
		if o.busy {
			b.WriteString(m.spinnerLine("Saving…"))
		} else {
			b.WriteString(m.theme.Faint.Render("enter confirm and finish  esc back"))
		}
	}

	if o.errText != "" {
		b.WriteString("\n\n")
		b.WriteString(m.theme.Error.Render(o.errText))
	}

	card := m.theme.Pane.Width(min(76, max(44, m.width-6))).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}

func onbProgress(step int) string {
	total := onbStepConfirm + 1
	return "Step " + strconv.Itoa(min(step, onbStepConfirm)+1) + " of " + strconv.Itoa(total)
}
