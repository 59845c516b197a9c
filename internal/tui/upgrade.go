package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"gds-cli/internal/app"
)

type upgradeState struct {
	offers       app.Offers
	offersLoaded bool
	selected     int // 0 monthly, 1 lifetime

	checkingOut bool
	checkoutURL string
	errText     string
	statusErr   string
}

func newUpgradeState() upgradeState {
	return upgradeState{selected: 1}
}

func (u *upgradeState) plans() []app.Plan {
	var out []app.Plan
	if u.offers.Monthly.Enabled {
		out = append(out, app.PlanMonthly)
	}
	if u.offers.Lifetime.Enabled {
		out = append(out, app.PlanLifetime)
	}
	return out
}

func (u *upgradeState) selectedPlan() (app.Plan, bool) {
	plans := u.plans()
	if len(plans) == 0 {
		return "", false
	}
	if u.selected >= len(plans) {
		u.selected = len(plans) - 1
	}
	return plans[u.selected], true
}

func (m *Model) updateUpgrade(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	u := &m.upgrade
	switch msg.String() {
	case "up", "k":
		if u.selected > 0 {
			u.selected--
		}
	case "down", "j":
		if u.selected < len(u.plans())-1 {
			u.selected++
		}
	case "enter":
		// Single-flight: a second enter while a checkout request is pending
		// is dropped rather than queued.
		if u.checkingOut {
			return m, nil
		}
		plan, ok := u.selectedPlan()
		if !ok {
			return m, nil
		}
		u.checkingOut = true
		u.errText = ""
		u.checkoutURL = ""
		return m, tea.Batch(m.startCheckout(plan), m.spinTick())
	case "esc":
		m.navigate(pageDashboard)
	}
	return m, nil
}

func (m *Model) viewUpgrade() string {
	u := &m.upgrade
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("Upgrade"))
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("Unlimited strategist access. Pick a plan to get a checkout link."))
	b.WriteString("\n\n")

	if !u.offersLoaded {
		b.WriteString(m.spinnerLine("Loading offers…"))
		return b.String()
	}

	plans := u.plans()
	if len(plans) == 0 {
		b.WriteString(m.theme.Faint.Render("No plans are available right now. Please try again later."))
		return b.String()
	}

	for i, plan := range plans {
		label, price := m.offerLine(plan)
		line := label
		if price != "" {
			line += "  " + price
		}
		if i == u.selected {
			b.WriteString(m.theme.NavSel.Render("› " + line))
		} else {
			b.WriteString(m.theme.NavItem.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case u.checkingOut:
		b.WriteString(m.spinnerLine("Preparing checkout…"))
	case u.checkoutURL != "":
		b.WriteString(m.theme.Success.Render("Open this link in your browser to finish:"))
		b.WriteString("\n")
		b.WriteString(m.theme.Accent.Render(u.checkoutURL))
		b.WriteString("\n")
		b.WriteString(m.theme.Faint.Render("Your plan updates after payment. Reopen the app or log in again to refresh."))
	default:
		b.WriteString(m.theme.Faint.Render("↑/↓ choose  enter checkout  esc back"))
	}

	if u.errText != "" {
		b.WriteString("\n\n")
		b.WriteString(m.theme.Error.Render(u.errText))
	}
	return b.String()
}

func (m *Model) offerLine(plan app.Plan) (string, string) {
	switch plan {
	case app.PlanMonthly:
		return "Monthly", m.upgrade.offers.Monthly.Price
	case app.PlanLifetime:
		return "Lifetime", m.upgrade.offers.Lifetime.Price
	}
	return string(plan), ""
}
