package app

import "time"

// Application bundles everything the TUI needs: the remote client plus the
// three stateful cores. The gate, entitlement and conversation are each
// owned exclusively by their slice of the UI for write purposes; the remote
// server stays the sole source of truth and local state is a best-effort
// cache reconciled at every gate transition and send outcome.
type Application struct {
	Config       Config
	Logger       *Logger
	Client       *Client
	Gate         *Gate
	Entitlement  *Entitlement
	Conversation *Conversation
}

func NewApplication(cfg Config) (*Application, error) {
	logger := NewLogger(DefaultLogWriter())

	client, err := NewClient(cfg.APIBase, time.Duration(cfg.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	if cfg.CookieFile != "" {
		client.SetCookieFile(cfg.CookieFile)
	}

	return &Application{
		Config:       cfg,
		Logger:       logger,
		Client:       client,
		Gate:         NewGate(),
		Entitlement:  NewEntitlement(),
		Conversation: NewConversation(),
	}, nil
}
