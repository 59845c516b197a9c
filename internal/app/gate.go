package app

// The gate resolves, in strict order, whether the user may see the product,
// must log in, must onboard, or hit a profile error. It exposes exactly one
// renderable state at a time and is only ever mutated on the UI goroutine.

type GateState int

const (
	GateLoading GateState = iota
	GateUnauthenticated
	GateProfileLoading
	GateProfileMissing
	GateProfileError
	GateReady
)

func (s GateState) String() string {
	switch s {
	case GateLoading:
		return "loading"
	case GateUnauthenticated:
		return "unauthenticated"
	case GateProfileLoading:
		return "profile-loading"
	case GateProfileMissing:
		return "profile-missing"
	case GateProfileError:
		return "profile-error"
	case GateReady:
		return "profile-ready"
	default:
		return "unknown"
	}
}

// SessionInfo is the identity captured from a successful session check.
// UserID and IsAdmin always come from the same /me response.
type SessionInfo struct {
	UserID  string
	IsAdmin bool
}

type Gate struct {
	state   GateState
	epoch   int
	session SessionInfo
	profile *Profile

	profileErrStatus  int
	profileErrMessage string
}

func NewGate() *Gate {
	return &Gate{state: GateLoading, epoch: 1}
}

func (g *Gate) State() GateState      { return g.state }
func (g *Gate) Epoch() int            { return g.epoch }
func (g *Gate) Session() SessionInfo  { return g.session }

// Profile returns the cached read-only profile. It may be nil even in
// GateReady: existence, not payload completeness, is authoritative.
func (g *Gate) Profile() *Profile { return g.profile }

func (g *Gate) ProfileError() (int, string) {
	return g.profileErrStatus, g.profileErrMessage
}

// BeginSessionCheck restarts the gate at loading and invalidates every
// in-flight async result by bumping the epoch. Used at app start and after a
// login callback, which re-runs the check rather than assuming success.
func (g *Gate) BeginSessionCheck() int {
	g.epoch++
	g.state = GateLoading
	g.session = SessionInfo{}
	g.profile = nil
	g.profileErrStatus = 0
	g.profileErrMessage = ""
	return g.epoch
}

// ApplySession resolves the session check. Results from a superseded epoch
// are dropped so a stale response can never overwrite newer state. Any error,
// transport included, degrades to unauthenticated; the gate is never left in
// loading.
func (g *Gate) ApplySession(epoch int, res MeResponse, err error) bool {
	if epoch != g.epoch || g.state != GateLoading {
		return false
	}
	if err != nil || !res.Authenticated {
		g.state = GateUnauthenticated
		g.session = SessionInfo{}
		return true
	}
	g.session = SessionInfo{UserID: res.UserID, IsAdmin: res.IsAdmin}
	g.state = GateProfileLoading
	return true
}

// ApplyProfile resolves a profile fetch, both the initial one after
// authentication and the confirming re-fetch after onboarding. exists:true
// wins even when the payload is nil, so a user who already onboarded can
// never be stranded in an onboarding loop. A re-fetch that still reports
// not-existing leaves the gate in profile-missing for a manual resubmit.
func (g *Gate) ApplyProfile(epoch int, res ProfileResult, err error) bool {
	if epoch != g.epoch {
		return false
	}
	switch g.state {
	case GateProfileLoading, GateProfileMissing, GateProfileError:
	default:
		return false
	}
	if err != nil {
		if err == ErrUnauthenticated {
			g.state = GateUnauthenticated
			g.session = SessionInfo{}
			return true
		}
		g.state = GateProfileError
		if se, ok := err.(*StatusError); ok {
			g.profileErrStatus = se.Status
			g.profileErrMessage = se.Error()
		} else {
			g.profileErrStatus = 0
			g.profileErrMessage = err.Error()
		}
		return true
	}
	g.profileErrStatus = 0
	g.profileErrMessage = ""
	if res.Exists {
		g.profile = res.Profile
		g.state = GateReady
	} else {
		g.profile = nil
		g.state = GateProfileMissing
	}
	return true
}

// RetryProfile moves an errored gate back to profile-loading for a fresh
// fetch. No-op in any other state.
func (g *Gate) RetryProfile() bool {
	if g.state != GateProfileError {
		return false
	}
	g.state = GateProfileLoading
	return true
}

// Logout resets the gate to the login state and invalidates in-flight work.
func (g *Gate) Logout() {
	g.epoch++
	g.state = GateUnauthenticated
	g.session = SessionInfo{}
	g.profile = nil
	g.profileErrStatus = 0
	g.profileErrMessage = ""
}
