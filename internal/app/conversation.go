package app

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID        string
	Role      string // user|assistant
	Content   string
	Timestamp time.Time
}

// Paywall is the transient quota-exceeded signal. It is never persisted:
// cleared at the start of every send attempt and re-raised only by an
// explicit quota-exceeded condition.
type Paywall struct {
	Active  bool
	Message string
}

type SendDecision int

const (
	// SendRejected: empty input or a send already in flight; nothing changed.
	SendRejected SendDecision = iota
	// SendPaywalled: short-circuited client-side, no network call was made.
	SendPaywalled
	// SendStarted: the user turn was appended optimistically and the caller
	// must now perform the network call.
	SendStarted
)

// Conversation owns the append-only chat history and the send protocol.
// Mutations happen only on the UI goroutine; remote work runs in commands
// that report back through CompleteSend/FailSend.
type Conversation struct {
	messages []ChatMessage
	hydrated bool
	sending  bool
	paywall  Paywall
	errText  string
}

func NewConversation() *Conversation {
	return &Conversation{}
}

func (c *Conversation) Messages() []ChatMessage { return c.messages }
func (c *Conversation) Hydrated() bool          { return c.hydrated }
func (c *Conversation) Sending() bool           { return c.sending }
func (c *Conversation) Paywall() Paywall        { return c.paywall }
func (c *Conversation) ErrText() string         { return c.errText }

// Hydrate replaces the empty local history with the server's copy, oldest
// first, roles preserved verbatim. Unrecognized roles default to user.
// Exactly once per conversation; later calls are no-ops so a late-resolving
// fetch cannot clobber messages sent in the meantime.
func (c *Conversation) Hydrate(entries []HistoryEntry) bool {
	if c.hydrated {
		return false
	}
	c.hydrated = true
	for _, e := range entries {
		role := strings.ToLower(strings.TrimSpace(e.Role))
		if role != "user" && role != "assistant" {
			role = "user"
		}
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		c.messages = append(c.messages, ChatMessage{
			ID:        id,
			Role:      role,
			Content:   e.Content,
			Timestamp: e.CreatedAt,
		})
	}
	return true
}

// BeginSend starts one send attempt. Stale paywall/error state is cleared
// first. When the local counter already shows no headroom the attempt
// short-circuits to the paywall without a network call; otherwise the user
// turn is appended optimistically and the input is the caller's to clear.
func (c *Conversation) BeginSend(content string, ent *Entitlement) SendDecision {
	content = strings.TrimSpace(content)
	if content == "" || c.sending {
		return SendRejected
	}
	c.paywall = Paywall{}
	c.errText = ""

	if ent != nil && ent.FreeBlocked() {
		c.paywall = Paywall{Active: true, Message: "You have used all your free messages. Upgrade to keep talking to the strategist."}
		return SendPaywalled
	}

	c.messages = append(c.messages, ChatMessage{
		ID:        uuid.NewString(),
		Role:      "user",
		Content:   content,
		Timestamp: time.Now(),
	})
	c.sending = true
	return SendStarted
}

// CompleteSend confirms the round-trip: the assistant turn is appended and
// the free counter is decremented by exactly one.
func (c *Conversation) CompleteSend(reply string, ent *Entitlement) {
	if !c.sending {
		return
	}
	c.sending = false
	c.messages = append(c.messages, ChatMessage{
		ID:        uuid.NewString(),
		Role:      "assistant",
		Content:   reply,
		Timestamp: time.Now(),
	})
	if ent != nil {
		ent.NoteSent()
	}
}

// FailSend ends the attempt without a reply. The optimistic user message
// stays in history either way: a 402 means it was spent even though no
// reply arrived, and retrying after an upgrade is a new send, never an
// automatic retry. A quota rejection raises the paywall and resyncs the
// counter to zero; anything else becomes a terminal generic error.
func (c *Conversation) FailSend(err error, ent *Entitlement) {
	if !c.sending {
		return
	}
	c.sending = false
	var quota *QuotaExceededError
	if errors.As(err, &quota) {
		c.paywall = Paywall{Active: true, Message: quota.Error()}
		if ent != nil {
			ent.NoteQuotaExceeded()
		}
		return
	}
	if err != nil {
		c.errText = err.Error()
	} else {
		c.errText = "chat send failed"
	}
}

// Reset drops all local conversation state, for logout.
func (c *Conversation) Reset() {
	*c = Conversation{}
}
