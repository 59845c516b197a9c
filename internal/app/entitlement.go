package app

import "strings"

type Plan string

const (
	PlanFree     Plan = "free"
	PlanMonthly  Plan = "monthly"
	PlanLifetime Plan = "lifetime"
)

func ParsePlan(s string) Plan {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly":
		return PlanMonthly
	case "lifetime":
		return PlanLifetime
	default:
		return PlanFree
	}
}

// Entitlement tracks plan, billing status and the remaining free-message
// allowance. The server count is kept separately from the optimistic local
// view so reconciliation is always last-write-wins by authority: a server
// refresh overwrites the optimistic counter, never the other way around.
type Entitlement struct {
	Plan             Plan
	Active           bool
	CurrentPeriodEnd int64

	confirmed  int
	optimistic int
	known      bool
}

func NewEntitlement() *Entitlement {
	return &Entitlement{Plan: PlanFree}
}

// ReconcileSubscription applies an authoritative billing-status refresh.
func (e *Entitlement) ReconcileSubscription(sub Subscription) {
	e.Plan = ParsePlan(sub.Plan)
	e.Active = sub.Active
	e.CurrentPeriodEnd = sub.CurrentPeriodEnd
}

// ReconcileQuota applies an authoritative remaining-free-messages snapshot.
// The optimistic view is discarded: the server is the sole source of truth.
func (e *Entitlement) ReconcileQuota(remaining int) {
	if remaining < 0 {
		remaining = 0
	}
	e.confirmed = remaining
	e.optimistic = remaining
	e.known = true
}

// Remaining reports the optimistic local count and whether the allowance is
// bounded at all. Paid plans are unbounded and never counted down.
func (e *Entitlement) Remaining() (int, bool) {
	if e.Paid() {
		return 0, false
	}
	return e.optimistic, e.known
}

func (e *Entitlement) Paid() bool {
	return e.Plan != PlanFree && e.Active
}

// FreeBlocked is the client-side paywall predicate. It is a UX shortcut
// only; the server independently rejects over-quota sends with a 402.
func (e *Entitlement) FreeBlocked() bool {
	return e.Plan == PlanFree && e.known && e.optimistic == 0
}

// NoteSent decrements the optimistic counter by exactly one after a
// successful free-tier send. Never goes below zero. Only the free plan
// counts down: FreeBlocked never engages off the free plan, so draining the
// counter on a lapsed paid account would be state no predicate reads.
func (e *Entitlement) NoteSent() {
	if e.Plan != PlanFree || !e.known {
		return
	}
	if e.optimistic > 0 {
		e.optimistic--
	}
}

// NoteQuotaExceeded resynchronizes to the server's verdict after a 402,
// regardless of what the local counter claimed.
func (e *Entitlement) NoteQuotaExceeded() {
	e.confirmed = 0
	e.optimistic = 0
	e.known = true
}
