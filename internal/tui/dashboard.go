package tui

import (
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gds-cli/internal/app"
)

const sidebarWidth = 22

func (m *Model) contentWidth() int {
	return max(20, m.width-sidebarWidth-6)
}

func (m *Model) contentHeight() int {
	return max(8, m.height-6)
}

func (m *Model) viewShell() string {
	top := m.viewTopBar()
	sidebar := m.viewSidebar()

	var content string
	switch m.page {
	case pageChat:
		content = m.viewChat()
	case pageUpgrade:
		content = m.viewUpgrade()
	case pageFeedback:
		content = m.viewFeedback()
	default:
		content = m.viewDashboard()
	}
	contentPane := m.theme.Pane.Width(m.contentWidth()).Height(m.contentHeight()).Render(content)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, contentPane)
	footer := m.theme.Footer.Render("ctrl+p dashboard  ctrl+s strategist  ctrl+o upgrade  ctrl+l log out  ctrl+c quit")
	return lipgloss.JoinVertical(lipgloss.Left, top, body, footer)
}

func (m *Model) viewTopBar() string {
	title := m.theme.TopBarTitle.Render("Get Design Strategy")
	badge := m.theme.TopBarBadge.Render(m.planBadge())
	line := title + "  " + badge
	if m.app.Gate.Session().IsAdmin {
		line += "  " + m.theme.Faint.Render("admin")
	}
	return m.theme.TopBar.Width(m.width).Render(line)
}

func (m *Model) planBadge() string {
	ent := m.app.Entitlement
	if ent.Paid() {
		return strings.ToUpper(string(ent.Plan))
	}
	if remaining, known := ent.Remaining(); known {
		return "FREE · " + strconv.Itoa(remaining) + " left"
	}
	return "FREE"
}

func (m *Model) viewSidebar() string {
	type navEntry struct {
		label string
		page  page
	}
	entries := []navEntry{
		{"Dashboard", pageDashboard},
		{"Strategist", pageChat},
		{"Upgrade", pageUpgrade},
	}
	if m.app.Gate.Session().IsAdmin {
		entries = append(entries, navEntry{"Feedback", pageFeedback})
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		if e.page == m.page {
			b.WriteString(m.theme.NavSel.Render("› " + e.label))
		} else {
			b.WriteString(m.theme.NavItem.Render("  " + e.label))
		}
	}
	return m.theme.Pane.Width(sidebarWidth).Height(m.contentHeight()).Render(b.String())
}

func (m *Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "c":
		m.navigate(pageChat)
	case "u":
		m.navigate(pageUpgrade)
	case "f":
		if m.navigate(pageFeedback) {
			return m, m.loadFeedback()
		}
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) viewDashboard() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Your baseline"))
	b.WriteString("\n\n")

	if p := m.app.Gate.Profile(); p != nil {
		b.WriteString(m.theme.Muted.Render("Business      ") + p.BusinessType + "\n")
		b.WriteString(m.theme.Muted.Render("Pricing       ") + p.PricingModel + "\n")
		b.WriteString(m.theme.Muted.Render("Revenue       ") + p.MonthlyRevenue + "\n")
		b.WriteString(m.theme.Muted.Render("Bottleneck    ") + p.MainBottleneck + "\n")
		b.WriteString(m.theme.Muted.Render("12-month goal ") + p.Goal12Months + "\n")
	} else {
		b.WriteString(m.theme.Faint.Render("Profile saved. Details are not available right now."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Title.Render("Plan"))
	b.WriteString("\n\n")
	ent := m.app.Entitlement
	if ent.Paid() {
		b.WriteString(m.theme.Success.Render("Active " + string(ent.Plan) + " plan."))
		if ent.Plan == app.PlanMonthly && ent.CurrentPeriodEnd > 0 {
			renews := time.Unix(ent.CurrentPeriodEnd, 0).Format("2 Jan 2006")
			b.WriteString("\n" + m.theme.Muted.Render("Renews "+renews+"."))
		}
	} else {
		if remaining, known := ent.Remaining(); known {
			b.WriteString(m.theme.Muted.Render("Free plan, " + strconv.Itoa(remaining) + " messages remaining."))
		} else {
			b.WriteString(m.theme.Muted.Render("Free plan."))
		}
		b.WriteString("\n" + m.theme.Faint.Render("Press u to see upgrade options."))
	}
	if m.upgrade.statusErr != "" {
		b.WriteString("\n" + m.theme.Warn.Render("Billing status unavailable: "+m.upgrade.statusErr))
	}

	b.WriteString("\n\n")
	b.WriteString(m.theme.Faint.Render("enter open strategist"))
	return b.String()
}
