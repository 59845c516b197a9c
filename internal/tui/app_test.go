package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"gds-cli/internal/app"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	application := &app.Application{
		Config:       app.DefaultConfig(),
		Logger:       app.NewLogger(nil),
		Gate:         app.NewGate(),
		Entitlement:  app.NewEntitlement(),
		Conversation: app.NewConversation(),
	}
	m := New(application)
	applyWindowSize(t, m, 100, 32)
	return m
}

func applyWindowSize(t *testing.T, m *Model, w, h int) {
	t.Helper()
	m.Update(tea.WindowSizeMsg{Width: w, Height: h})
}

func pressKey(m *Model, key string) {
	if len(key) == 1 {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		return
	}
	switch key {
	case "enter":
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	case "up":
		m.Update(tea.KeyMsg{Type: tea.KeyUp})
	case "down":
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	case "ctrl+f":
		m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	case "ctrl+s":
		m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	}
}

// driveToReady walks the gate to profile-ready with a stock profile.
func driveToReady(t *testing.T, m *Model, isAdmin bool) {
	t.Helper()
	epoch := m.app.Gate.Epoch()
	m.Update(sessionCheckedMsg{epoch: epoch, res: app.MeResponse{Authenticated: true, UserID: "u1", IsAdmin: isAdmin}})
	if m.app.Gate.State() != app.GateProfileLoading {
		t.Fatalf("state = %v, want profile-loading", m.app.Gate.State())
	}
	m.Update(profileFetchedMsg{epoch: epoch, res: app.ProfileResult{
		Exists:  true,
		Profile: &app.Profile{BusinessType: "Freelancer", PricingModel: "Hourly"},
	}})
	if m.app.Gate.State() != app.GateReady {
		t.Fatalf("state = %v, want ready", m.app.Gate.State())
	}
}

func TestGateFlowToReady(t *testing.T) {
	m := newTestModel(t)
	driveToReady(t, m, false)

	if m.page != pageDashboard {
		t.Fatalf("page = %v, want dashboard after gate opens", m.page)
	}
	view := m.View()
	if !strings.Contains(view, "Your baseline") {
		t.Fatalf("dashboard view missing baseline section:\n%s", view)
	}
	if !strings.Contains(view, "Freelancer") {
		t.Fatal("dashboard view missing profile data")
	}
}

func TestGateFlowToLogin(t *testing.T) {
	m := newTestModel(t)
	m.Update(sessionCheckedMsg{epoch: m.app.Gate.Epoch(), res: app.MeResponse{Authenticated: false}})
	if m.app.Gate.State() != app.GateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated", m.app.Gate.State())
	}
	if !strings.Contains(m.View(), "Sign in") {
		t.Fatal("login view not rendered")
	}
}

func TestStaleSessionResultIgnored(t *testing.T) {
	m := newTestModel(t)
	stale := m.app.Gate.Epoch()
	m.app.Gate.BeginSessionCheck()

	m.Update(sessionCheckedMsg{epoch: stale, res: app.MeResponse{Authenticated: true, UserID: "stale"}})
	if m.app.Gate.State() != app.GateLoading {
		t.Fatalf("state = %v, stale result must be dropped", m.app.Gate.State())
	}
}

func TestQuotaSnapshotFromSessionCheck(t *testing.T) {
	m := newTestModel(t)
	two := 2
	m.Update(sessionCheckedMsg{epoch: m.app.Gate.Epoch(), res: app.MeResponse{
		Authenticated: true, UserID: "u1", RemainingFreeMessages: &two,
	}})
	remaining, known := m.app.Entitlement.Remaining()
	if !known || remaining != 2 {
		t.Fatalf("remaining = %d known=%v, want 2 true", remaining, known)
	}
}

func TestProfileErrorViewAndRetry(t *testing.T) {
	m := newTestModel(t)
	epoch := m.app.Gate.Epoch()
	m.Update(sessionCheckedMsg{epoch: epoch, res: app.MeResponse{Authenticated: true, UserID: "u1"}})
	m.Update(profileFetchedMsg{epoch: epoch, err: &app.StatusError{Op: "profile fetch", Status: 503, Message: "down"}})

	if m.app.Gate.State() != app.GateProfileError {
		t.Fatalf("state = %v, want profile-error", m.app.Gate.State())
	}
	if !strings.Contains(m.View(), "down") {
		t.Fatal("error view missing server message")
	}

	pressKey(m, "r")
	if m.app.Gate.State() != app.GateProfileLoading {
		t.Fatalf("state = %v, want profile-loading after retry", m.app.Gate.State())
	}
}

func TestNavigateFeedbackRequiresAdmin(t *testing.T) {
	m := newTestModel(t)
	driveToReady(t, m, false)

	if m.navigate(pageFeedback) {
		t.Fatal("non-admin navigation to feedback must be rejected")
	}
	if m.page != pageDashboard {
		t.Fatalf("page = %v, must stay on dashboard", m.page)
	}
	if strings.Contains(m.View(), "Feedback") {
		t.Fatal("sidebar must hide the feedback entry for non-admins")
	}
}

func TestNavigateFeedbackAsAdmin(t *testing.T) {
	m := newTestModel(t)
	driveToReady(t, m, true)

	if !m.navigate(pageFeedback) {
		t.Fatal("admin navigation to feedback rejected")
	}
	m.Update(feedbackMsg{rows: []app.FeedbackRow{
		{ID: "f1", Rating: "up", Comment: "useful", UserEmail: "a@b.com"},
		{ID: "f2", Rating: "down", Comment: "too generic", UserEmail: "c@d.com"},
	}})

	view := m.View()
	if !strings.Contains(view, "useful") || !strings.Contains(view, "too generic") {
		t.Fatalf("feedback rows missing:\n%s", view)
	}

	pressKey(m, "d")
	view = m.View()
	if strings.Contains(view, "useful") || !strings.Contains(view, "too generic") {
		t.Fatal("down filter not applied")
	}
}

func TestHistoryHydrationEpochGuard(t *testing.T) {
	m := newTestModel(t)
	driveToReady(t, m, false)
	stale := m.app.Gate.Epoch()

	m.app.Gate.Logout()
	m.Update(historyMsg{epoch: stale, entries: []app.HistoryEntry{{Role: "user", Content: "old"}}})
	if m.app.Conversation.Hydrated() {
		t.Fatal("stale history result was applied after logout")
	}
}

func TestLoginEmailThenCode(t *testing.T) {
	m := newTestModel(t)
	m.Update(sessionCheckedMsg{epoch: m.app.Gate.Epoch(), res: app.MeResponse{}})

	// Invalid email is rejected locally.
	m.login.email.SetValue("not-an-email")
	pressKey(m, "enter")
	if m.login.errText == "" || m.login.busy {
		t.Fatal("invalid email must fail validation without a request")
	}

	m.login.email.SetValue("designer@studio.com")
	pressKey(m, "enter")
	if !m.login.busy {
		t.Fatal("valid email should start the code request")
	}

	m.Update(codeRequestedMsg{})
	if m.login.step != loginStepCode || m.login.busy {
		t.Fatalf("step = %d busy=%v, want code step idle", m.login.step, m.login.busy)
	}

	m.login.code.SetValue("12345")
	pressKey(m, "enter")
	if m.login.errText == "" {
		t.Fatal("five digits must fail validation")
	}

	m.login.code.SetValue("123456")
	pressKey(m, "enter")
	if !m.login.busy {
		t.Fatal("six digits should start verification")
	}

	// A verified code re-runs the session check instead of trusting the
	// callback.
	m.Update(codeVerifiedMsg{})
	if m.app.Gate.State() != app.GateLoading {
		t.Fatalf("state = %v, want loading for the fresh session check", m.app.Gate.State())
	}
}

func TestLogoutClearsLocalState(t *testing.T) {
	m := newTestModel(t)
	driveToReady(t, m, false)
	m.app.Entitlement.ReconcileQuota(1)
	m.app.Conversation.Hydrate([]app.HistoryEntry{{Role: "user", Content: "hi"}})

	m.doLogout()

	if m.app.Gate.State() != app.GateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated", m.app.Gate.State())
	}
	if len(m.app.Conversation.Messages()) != 0 {
		t.Fatal("conversation survived logout")
	}
	if _, known := m.app.Entitlement.Remaining(); known {
		t.Fatal("entitlement survived logout")
	}
}

// relogin walks a logged-out model through a fresh session check back to
// ready, the way a verified login code does.
func relogin(t *testing.T, m *Model) {
	t.Helper()
	m.Update(codeVerifiedMsg{})
	if m.app.Gate.State() != app.GateLoading {
		t.Fatalf("state = %v, want loading after verification", m.app.Gate.State())
	}
	driveToReady(t, m, false)
}

func TestStaleEntitlementResultsDroppedAfterRelogin(t *testing.T) {
	m := newTestModel(t)
	driveToReady(t, m, false)
	stale := m.app.Gate.Epoch()

	m.doLogout()
	relogin(t, m)
	m.app.Entitlement.ReconcileQuota(5)

	// Results issued for the previous session resolve late.
	m.Update(quotaMsg{epoch: stale, remaining: 0, ok: true})
	if remaining, _ := m.app.Entitlement.Remaining(); remaining != 5 {
		t.Fatalf("remaining = %d, stale quota result must not overwrite the new session", remaining)
	}

	m.Update(subscriptionMsg{epoch: stale, sub: app.Subscription{Plan: "lifetime", Active: true}})
	if m.app.Entitlement.Paid() {
		t.Fatal("stale subscription result was applied to the new session")
	}

	m.Update(offersMsg{epoch: stale, offers: app.Offers{Monthly: app.Offer{Enabled: true}}})
	if m.upgrade.offersLoaded {
		t.Fatal("stale offers result was applied to the new session")
	}

	// Current-epoch results still land.
	m.Update(quotaMsg{epoch: m.app.Gate.Epoch(), remaining: 1, ok: true})
	if remaining, _ := m.app.Entitlement.Remaining(); remaining != 1 {
		t.Fatalf("remaining = %d, current quota result must apply", remaining)
	}
}

func TestOffersFallbackOnError(t *testing.T) {
	m := newTestModel(t)
	driveToReady(t, m, false)
	m.Update(offersMsg{epoch: m.app.Gate.Epoch(), err: &app.StatusError{Op: "billing offers", Status: 500}})

	if !m.upgrade.offersLoaded {
		t.Fatal("offers not marked loaded")
	}
	if !m.upgrade.offers.Lifetime.Enabled {
		t.Fatal("fallback offers must keep lifetime visible")
	}
	if m.upgrade.offers.Monthly.Enabled {
		t.Fatal("fallback offers must not invent a monthly plan")
	}
}
