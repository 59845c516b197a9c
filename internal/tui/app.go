package tui

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gds-cli/internal/app"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type page int

const (
	pageDashboard page = iota
	pageChat
	pageUpgrade
	pageFeedback
)

// Async results. Gate-scoped messages carry the epoch they were issued at;
// the gate drops anything from a superseded epoch so a late response can
// never overwrite newer state.
type sessionCheckedMsg struct {
	epoch int
	res   app.MeResponse
	err   error
}

type profileFetchedMsg struct {
	epoch int
	res   app.ProfileResult
	err   error
}

type profileCreatedMsg struct {
	epoch int
	err   error
}

type subscriptionMsg struct {
	epoch int
	sub   app.Subscription
	err   error
}

type quotaMsg struct {
	epoch     int
	remaining int
	ok        bool
}

type offersMsg struct {
	epoch  int
	offers app.Offers
	err    error
}

type historyMsg struct {
	epoch   int
	entries []app.HistoryEntry
}

type chatReplyMsg struct {
	epoch int
	reply string
	err   error
}

type checkoutMsg struct {
	url string
	err error
}

type feedbackMsg struct {
	rows []app.FeedbackRow
	err  error
}

type codeRequestedMsg struct{ err error }
type codeVerifiedMsg struct{ err error }
type loggedOutMsg struct{}
type spinMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Model is the root bubbletea model. It renders exactly one gate state at a
// time; the shell (sidebar, dashboard, chat, upgrade, feedback) only exists
// once the gate reaches profile-ready.
type Model struct {
	app   *app.Application
	theme Theme

	width  int
	height int
	ready  bool

	page       page
	spinnerPos int

	login    loginState
	onb      onboardingState
	chat     chatState
	upgrade  upgradeState
	feedback feedbackState
}

func New(application *app.Application) *Model {
	m := &Model{
		app:      application,
		theme:    NewTheme(themeName(application)),
		width:    100,
		height:   30,
		page:     pageDashboard,
		login:    newLoginState(),
		onb:      newOnboardingState(),
		chat:     newChatState(),
		upgrade:  newUpgradeState(),
		feedback: newFeedbackState(),
	}
	return m
}

func themeName(application *app.Application) string {
	if application == nil {
		return ""
	}
	return application.Config.Theme
}

func (m *Model) Init() tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return tea.Batch(m.checkSession(m.app.Gate.Epoch()), m.spinTick())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		return m, nil

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.busy() {
			return m, m.spinTick()
		}
		return m, nil

	case sessionCheckedMsg:
		if !m.app.Gate.ApplySession(msg.epoch, msg.res, msg.err) {
			return m, nil
		}
		if m.app.Gate.State() == app.GateProfileLoading {
			if msg.res.RemainingFreeMessages != nil {
				m.app.Entitlement.ReconcileQuota(*msg.res.RemainingFreeMessages)
			}
			return m, tea.Batch(m.fetchProfile(msg.epoch), m.spinTick())
		}
		m.login = newLoginState()
		return m, nil

	case profileFetchedMsg:
		if !m.app.Gate.ApplyProfile(msg.epoch, msg.res, msg.err) {
			return m, nil
		}
		m.onb.busy = false
		switch m.app.Gate.State() {
		case app.GateReady:
			return m, m.onReady()
		case app.GateProfileMissing:
			if m.onb.submitted {
				m.onb.errText = "Your answers were not saved yet. Please review and submit again."
			}
		}
		return m, nil

	case profileCreatedMsg:
		if msg.epoch != m.app.Gate.Epoch() {
			return m, nil
		}
		if msg.err != nil {
			m.onb.busy = false
			if errors.Is(msg.err, app.ErrUnauthenticated) {
				return m, m.recheckSession()
			}
			m.onb.errText = msg.err.Error()
			return m, nil
		}
		// Success and 409 land here alike; confirm with a re-fetch instead of
		// trusting the submission.
		m.onb.submitted = true
		return m, tea.Batch(m.fetchProfile(msg.epoch), m.spinTick())

	case subscriptionMsg:
		if msg.epoch != m.app.Gate.Epoch() {
			return m, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, app.ErrUnauthenticated) {
				return m, m.recheckSession()
			}
			m.upgrade.statusErr = msg.err.Error()
			return m, nil
		}
		m.upgrade.statusErr = ""
		m.app.Entitlement.ReconcileSubscription(msg.sub)
		return m, nil

	case quotaMsg:
		if msg.epoch != m.app.Gate.Epoch() {
			return m, nil
		}
		if msg.ok {
			m.app.Entitlement.ReconcileQuota(msg.remaining)
		}
		return m, nil

	case offersMsg:
		if msg.epoch != m.app.Gate.Epoch() {
			return m, nil
		}
		m.upgrade.offersLoaded = true
		if msg.err != nil {
			m.upgrade.offers = app.DefaultOffers()
		} else {
			m.upgrade.offers = msg.offers
		}
		return m, nil

	case historyMsg:
		if msg.epoch != m.app.Gate.Epoch() {
			return m, nil
		}
		if m.app.Conversation.Hydrate(msg.entries) {
			m.refreshChatViewport()
		}
		return m, nil

	case chatReplyMsg:
		if msg.epoch != m.app.Gate.Epoch() {
			return m, nil
		}
		if msg.err != nil && errors.Is(msg.err, app.ErrUnauthenticated) {
			m.app.Conversation.FailSend(msg.err, nil)
			return m, m.recheckSession()
		}
		if msg.err != nil {
			m.app.Conversation.FailSend(msg.err, m.app.Entitlement)
		} else {
			m.app.Conversation.CompleteSend(msg.reply, m.app.Entitlement)
		}
		m.refreshChatViewport()
		return m, nil

	case checkoutMsg:
		m.upgrade.checkingOut = false
		if msg.err != nil {
			m.upgrade.errText = msg.err.Error()
			return m, nil
		}
		m.upgrade.errText = ""
		m.upgrade.checkoutURL = msg.url
		return m, nil

	case feedbackMsg:
		m.feedback.loading = false
		if msg.err != nil {
			m.feedback.errText = msg.err.Error()
			m.feedback.rows = nil
		} else {
			m.feedback.errText = ""
			m.feedback.rows = msg.rows
		}
		m.refreshFeedbackViewport()
		return m, nil

	case codeRequestedMsg:
		m.login.busy = false
		if msg.err != nil {
			m.login.errText = msg.err.Error()
			return m, nil
		}
		m.login.errText = ""
		m.login.step = loginStepCode
		m.login.code.Focus()
		m.login.email.Blur()
		return m, nil

	case codeVerifiedMsg:
		m.login.busy = false
		if msg.err != nil {
			m.login.errText = msg.err.Error()
			return m, nil
		}
		// A login callback firing does not guarantee the session cookie is
		// visible to the next request yet; re-run the check.
		return m, m.recheckSession()

	case loggedOutMsg:
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	return m.updateWidgets(msg)
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.app.Gate.State() {
	case app.GateUnauthenticated:
		return m.updateLogin(msg)
	case app.GateProfileMissing:
		return m.updateOnboarding(msg)
	case app.GateProfileError:
		switch msg.String() {
		case "r":
			if m.app.Gate.RetryProfile() {
				return m, tea.Batch(m.fetchProfile(m.app.Gate.Epoch()), m.spinTick())
			}
		case "q":
			return m, tea.Quit
		}
		return m, nil
	case app.GateReady:
		return m.updateShell(msg)
	default:
		// loading states: nothing to interact with yet
		return m, nil
	}
}

func (m *Model) updateShell(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+p":
		m.navigate(pageDashboard)
		return m, nil
	case "ctrl+s":
		m.navigate(pageChat)
		return m, nil
	case "ctrl+o":
		m.navigate(pageUpgrade)
		return m, nil
	case "ctrl+f":
		if m.navigate(pageFeedback) {
			return m, m.loadFeedback()
		}
		return m, nil
	case "ctrl+l":
		return m, m.doLogout()
	}

	switch m.page {
	case pageChat:
		return m.updateChat(msg)
	case pageUpgrade:
		return m.updateUpgrade(msg)
	case pageFeedback:
		return m.updateFeedback(msg)
	default:
		return m.updateDashboard(msg)
	}
}

// navigate is the single entry point for page changes. The admin feedback
// view is gated here as well as in the sidebar, so a forged navigation call
// leaves the current page untouched.
func (m *Model) navigate(p page) bool {
	if p == pageFeedback && !m.app.Gate.Session().IsAdmin {
		return false
	}
	m.page = p
	return true
}

func (m *Model) busy() bool {
	switch m.app.Gate.State() {
	case app.GateLoading, app.GateProfileLoading:
		return true
	}
	return m.app.Conversation.Sending() || m.login.busy || m.onb.busy ||
		m.upgrade.checkingOut || m.feedback.loading
}

// onReady fires the independent post-gate fetches. Billing, quota, offers
// and history have no ordering dependency between them.
func (m *Model) onReady() tea.Cmd {
	m.page = pageDashboard
	epoch := m.app.Gate.Epoch()
	cmds := []tea.Cmd{
		m.fetchSubscription(epoch),
		m.fetchQuota(epoch),
		m.fetchOffers(epoch),
	}
	if !m.app.Conversation.Hydrated() {
		cmds = append(cmds, m.fetchHistory(epoch))
	}
	return tea.Batch(cmds...)
}

func (m *Model) recheckSession() tea.Cmd {
	epoch := m.app.Gate.BeginSessionCheck()
	return tea.Batch(m.checkSession(epoch), m.spinTick())
}

// Commands. Every remote call runs off the UI goroutine and reports back as
// a message; all failures are converted to state, never left to propagate.

func (m *Model) callCtx() (context.Context, context.CancelFunc) {
	timeout := 30 * time.Second
	if m.app != nil && m.app.Config.TimeoutSeconds > 0 {
		timeout = time.Duration(m.app.Config.TimeoutSeconds) * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (m *Model) checkSession(epoch int) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		res, err := m.app.Client.Me(ctx)
		return sessionCheckedMsg{epoch: epoch, res: res, err: err}
	}
}

func (m *Model) fetchProfile(epoch int) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		res, err := m.app.Client.FetchProfile(ctx)
		return profileFetchedMsg{epoch: epoch, res: res, err: err}
	}
}

func (m *Model) createProfile(epoch int, in app.ProfileInput) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		err := m.app.Client.CreateProfile(ctx, in)
		return profileCreatedMsg{epoch: epoch, err: err}
	}
}

func (m *Model) fetchSubscription(epoch int) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		sub, err := m.app.Client.BillingStatus(ctx)
		return subscriptionMsg{epoch: epoch, sub: sub, err: err}
	}
}

func (m *Model) fetchQuota(epoch int) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		res, err := m.app.Client.Me(ctx)
		if err != nil || res.RemainingFreeMessages == nil {
			return quotaMsg{epoch: epoch}
		}
		return quotaMsg{epoch: epoch, remaining: *res.RemainingFreeMessages, ok: true}
	}
}

func (m *Model) fetchOffers(epoch int) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		offers, err := m.app.Client.BillingOffers(ctx)
		return offersMsg{epoch: epoch, offers: offers, err: err}
	}
}

func (m *Model) fetchHistory(epoch int) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		entries, _ := m.app.Client.ChatHistory(ctx)
		return historyMsg{epoch: epoch, entries: entries}
	}
}

func (m *Model) sendChat(epoch int, content string) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		reply, err := m.app.Client.SendChat(ctx, content)
		return chatReplyMsg{epoch: epoch, reply: reply, err: err}
	}
}

func (m *Model) startCheckout(plan app.Plan) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		url, err := m.app.Client.Checkout(ctx, string(plan))
		return checkoutMsg{url: url, err: err}
	}
}

func (m *Model) loadFeedback() tea.Cmd {
	m.feedback.loading = true
	m.feedback.errText = ""
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return tea.Batch(func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		rows, err := m.app.Client.AdminFeedback(ctx)
		return feedbackMsg{rows: rows, err: err}
	}, m.spinTick())
}

func (m *Model) requestCode(email string) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return tea.Batch(func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		return codeRequestedMsg{err: m.app.Client.RequestLoginCode(ctx, email)}
	}, m.spinTick())
}

func (m *Model) verifyCode(email, code string) tea.Cmd {
	if m.app == nil || m.app.Client == nil {
		return nil
	}
	return tea.Batch(func() tea.Msg {
		ctx, cancel := m.callCtx()
		defer cancel()
		return codeVerifiedMsg{err: m.app.Client.VerifyLoginCode(ctx, email, code)}
	}, m.spinTick())
}

func (m *Model) doLogout() tea.Cmd {
	m.app.Gate.Logout()
	m.app.Conversation.Reset()
	*m.app.Entitlement = *app.NewEntitlement()
	m.login = newLoginState()
	m.upgrade = newUpgradeState()
	m.feedback = newFeedbackState()
	m.page = pageDashboard
	m.resize()
	client := clientOf(m.app)
	return func() tea.Msg {
		if client != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = client.Logout(ctx)
		}
		return loggedOutMsg{}
	}
}

func clientOf(application *app.Application) *app.Client {
	if application == nil {
		return nil
	}
	return application.Client
}

func (m *Model) spinTick() tea.Cmd {
	d := 90 * time.Millisecond
	if m.app != nil && m.app.Config.ReduceMotion {
		d = 250 * time.Millisecond
	}
	return tea.Tick(d, func(_ time.Time) tea.Msg { return spinMsg{} })
}

// updateWidgets routes non-key messages into the focused text widgets so
// cursor blink and paste keep working.
func (m *Model) updateWidgets(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch m.app.Gate.State() {
	case app.GateUnauthenticated:
		m.login.email, cmd = m.login.email.Update(msg)
		cmds = append(cmds, cmd)
		m.login.code, cmd = m.login.code.Update(msg)
		cmds = append(cmds, cmd)
	case app.GateProfileMissing:
		m.onb.details, cmd = m.onb.details.Update(msg)
		cmds = append(cmds, cmd)
	case app.GateReady:
		if m.page == pageChat {
			m.chat.input, cmd = m.chat.input.Update(msg)
			cmds = append(cmds, cmd)
			m.chat.vp, cmd = m.chat.vp.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if !m.ready {
		return "…"
	}

	switch m.app.Gate.State() {
	case app.GateLoading:
		return m.renderCentered(m.spinnerLine("Checking your session…"))
	case app.GateUnauthenticated:
		return m.viewLogin()
	case app.GateProfileLoading:
		return m.renderCentered(m.spinnerLine("Loading your profile…"))
	case app.GateProfileMissing:
		return m.viewOnboarding()
	case app.GateProfileError:
		return m.viewProfileError()
	case app.GateReady:
		return m.viewShell()
	}
	return ""
}

func (m *Model) viewProfileError() string {
	status, message := m.app.Gate.ProfileError()
	if message == "" {
		message = "profile fetch failed"
	}
	body := m.theme.Error.Render("Could not load your profile.") + "\n\n" +
		m.theme.Muted.Render(message)
	if status != 0 {
		body += "\n" + m.theme.Faint.Render(statusLine(status))
	}
	body += "\n\n" + m.theme.Muted.Render("r retry  q quit")
	return m.renderCentered(body)
}

func statusLine(status int) string {
	return "status " + strconv.Itoa(status)
}

func (m *Model) spinnerLine(text string) string {
	return m.theme.Spinner.Render(spinnerFrames[m.spinnerPos]) + " " + m.theme.Muted.Render(text)
}

func (m *Model) renderCentered(content string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) resize() {
	m.resizeChat()
	m.resizeFeedback()
	m.login.email.Width = min(48, max(20, m.width-20))
	m.login.code.Width = 12
	m.onb.details.SetWidth(min(72, max(30, m.width-12)))
}
