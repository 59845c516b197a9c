package tui

import (
	"strings"
	"testing"

	"gds-cli/internal/app"
)

func driveToOnboarding(t *testing.T, m *Model) {
	t.Helper()
	epoch := m.app.Gate.Epoch()
	m.Update(sessionCheckedMsg{epoch: epoch, res: app.MeResponse{Authenticated: true, UserID: "u1"}})
	m.Update(profileFetchedMsg{epoch: epoch, res: app.ProfileResult{Exists: false}})
	if m.app.Gate.State() != app.GateProfileMissing {
		t.Fatalf("state = %v, want profile-missing", m.app.Gate.State())
	}
}

func TestOnboardingStepLayout(t *testing.T) {
	if onbStepDetails != len(onboardingQuestions) {
		t.Fatalf("details step = %d, want %d (after the last question)", onbStepDetails, len(onboardingQuestions))
	}
	if onbStepConfirm != onbStepDetails+1 {
		t.Fatalf("confirm step = %d, want %d", onbStepConfirm, onbStepDetails+1)
	}
	for i, q := range onboardingQuestions {
		if len(q.options) == 0 {
			t.Fatalf("question %d has no options", i)
		}
	}
}

func TestOnboardingWizardWalkthrough(t *testing.T) {
	m := newTestModel(t)
	driveToOnboarding(t, m)

	// Question 1: pick the second option.
	pressKey(m, "down")
	pressKey(m, "enter")
	for i := 1; i < len(onboardingQuestions); i++ {
		pressKey(m, "enter")
	}
	if m.onb.step != onbStepDetails {
		t.Fatalf("step = %d, want details", m.onb.step)
	}

	// Too short.
	m.onb.details.SetValue("not enough")
	pressKey(m, "enter")
	if m.onb.step != onbStepDetails || m.onb.errText == "" {
		t.Fatal("short details must be rejected with a message")
	}

	m.onb.details.SetValue("I am stuck on hourly pricing and my clients keep negotiating me down.")
	pressKey(m, "enter")
	if m.onb.step != onbStepConfirm {
		t.Fatalf("step = %d, want confirm", m.onb.step)
	}

	view := m.View()
	if !strings.Contains(view, "Studio (2–4)") {
		t.Fatalf("confirm view missing the chosen answer:\n%s", view)
	}
	if !strings.Contains(view, "cannot be edited later") {
		t.Fatal("confirm view missing the immutability warning")
	}

	pressKey(m, "enter")
	if !m.onb.busy {
		t.Fatal("confirm should start the submission")
	}

	in := m.onb.input()
	if in.BusinessType != "Studio (2–4)" {
		t.Fatalf("business type = %q", in.BusinessType)
	}
	if in.Details == "" {
		t.Fatal("details lost")
	}
}

func TestOnboardingSuccessConfirmsWithRefetch(t *testing.T) {
	m := newTestModel(t)
	driveToOnboarding(t, m)
	epoch := m.app.Gate.Epoch()

	m.onb.busy = true
	m.Update(profileCreatedMsg{epoch: epoch})
	if !m.onb.submitted {
		t.Fatal("successful create must be confirmed via a profile re-fetch")
	}

	// The confirming re-fetch resolves the gate, not the create call.
	m.Update(profileFetchedMsg{epoch: epoch, res: app.ProfileResult{Exists: true}})
	if m.app.Gate.State() != app.GateReady {
		t.Fatalf("state = %v, want ready", m.app.Gate.State())
	}
}

func TestOnboardingRefetchStillMissing(t *testing.T) {
	m := newTestModel(t)
	driveToOnboarding(t, m)
	epoch := m.app.Gate.Epoch()

	m.onb.busy = true
	m.Update(profileCreatedMsg{epoch: epoch})
	m.Update(profileFetchedMsg{epoch: epoch, res: app.ProfileResult{Exists: false}})

	if m.app.Gate.State() != app.GateProfileMissing {
		t.Fatalf("state = %v, want profile-missing for manual resubmit", m.app.Gate.State())
	}
	if m.onb.busy {
		t.Fatal("wizard stuck busy")
	}
	if m.onb.errText == "" {
		t.Fatal("user should be told the answers were not saved")
	}
}

func TestOnboardingCreateFailureSurfacesError(t *testing.T) {
	m := newTestModel(t)
	driveToOnboarding(t, m)

	m.onb.busy = true
	m.Update(profileCreatedMsg{epoch: m.app.Gate.Epoch(), err: &app.StatusError{Op: "profile create", Status: 500, Message: "boom"}})

	if m.onb.busy {
		t.Fatal("wizard stuck busy after failure")
	}
	if m.onb.errText != "boom" {
		t.Fatalf("errText = %q, want server message", m.onb.errText)
	}
	if m.app.Gate.State() != app.GateProfileMissing {
		t.Fatalf("state = %v, wizard must stay for a retry", m.app.Gate.State())
	}
}
