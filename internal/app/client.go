package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// ErrUnauthenticated is returned when the server rejects a call with 401.
// Callers route this back to the login state instead of the generic error path.
var ErrUnauthenticated = errors.New("not authenticated")

// StatusError is the generic remote-failure taxonomy: it carries the HTTP
// status for diagnosis and the literal server message when one was provided.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed (%d)", e.Op, e.Status)
}

// QuotaExceededError signals the 402 paywall condition on chat send. It is a
// distinct, recoverable state and must never be conflated with StatusError.
type QuotaExceededError struct {
	Message string
}

func (e *QuotaExceededError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return "free message quota exceeded"
}

// Client wraps credentialed HTTP calls to the strategist backend. The session
// cookie lives in the jar; every call takes a context and none of them retry.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	cookieFile string
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

type MeResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId"`
	IsAdmin       bool   `json:"isAdmin"`
	// RemainingFreeMessages is the live quota snapshot for free-plan users.
	// Nil means the server did not report one.
	RemainingFreeMessages *int `json:"remaining_free_messages"`
}

// Profile is the single normalized schema for onboarding answers. The wire
// shape is snake_case; nothing outside this file sees any other shape.
type Profile struct {
	BusinessType   string    `json:"business_type"`
	PricingModel   string    `json:"pricing_model"`
	MonthlyRevenue string    `json:"monthly_revenue"`
	MainBottleneck string    `json:"main_bottleneck"`
	Goal12Months   string    `json:"goal_12_months"`
	Details        string    `json:"details"`
	CreatedAt      time.Time `json:"created_at"`
}

type ProfileResult struct {
	Exists  bool     `json:"exists"`
	Profile *Profile `json:"profile"`
}

type ProfileInput struct {
	BusinessType   string `json:"business_type"`
	PricingModel   string `json:"pricing_model"`
	MonthlyRevenue string `json:"monthly_revenue"`
	MainBottleneck string `json:"main_bottleneck"`
	Goal12Months   string `json:"goal_12_months"`
	Details        string `json:"details"`
}

type Subscription struct {
	Plan             string `json:"plan"`
	Status           string `json:"status"`
	Active           bool   `json:"active"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

type Offer struct {
	Enabled bool   `json:"enabled"`
	Price   string `json:"price"`
}

type Offers struct {
	Monthly  Offer `json:"monthly"`
	Lifetime Offer `json:"lifetime"`
}

// DefaultOffers is the fallback when the offers fetch fails: the lifetime
// plan stays visible so the paywall never becomes a dead end.
func DefaultOffers() Offers {
	return Offers{Lifetime: Offer{Enabled: true}}
}

type HistoryEntry struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type FeedbackRow struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	Rating             string    `json:"rating"` // up|down
	Comment            string    `json:"comment"`
	UserEmail          string    `json:"user_email"`
	AssistantMessageID string    `json:"assistant_message_id"`
	AssistantReply     string    `json:"assistant_reply"`
	UserPrompt         string    `json:"user_prompt"`
}

// Me checks the server-side session. A transport failure or non-OK status is
// returned as an error; the gate maps every error here to unauthenticated.
func (c *Client) Me(ctx context.Context) (MeResponse, error) {
	var out MeResponse
	resp, body, err := c.do(ctx, http.MethodGet, "/me", nil)
	if err != nil {
		return out, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return out, ErrUnauthenticated
	}
	if resp.StatusCode >= 300 {
		return out, &StatusError{Op: "session check", Status: resp.StatusCode, Message: serverMessage(body)}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return MeResponse{}, &StatusError{Op: "session check", Status: resp.StatusCode, Message: "unexpected response format"}
	}
	return out, nil
}

func (c *Client) FetchProfile(ctx context.Context) (ProfileResult, error) {
	var out ProfileResult
	resp, body, err := c.do(ctx, http.MethodGet, "/profile", nil)
	if err != nil {
		return out, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return out, ErrUnauthenticated
	}
	if resp.StatusCode >= 300 {
		return out, &StatusError{Op: "profile fetch", Status: resp.StatusCode, Message: serverMessage(body)}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return ProfileResult{}, &StatusError{Op: "profile fetch", Status: resp.StatusCode, Message: "unexpected response format"}
	}
	return out, nil
}

// CreateProfile submits the write-once onboarding answers. A 409 means a
// profile already exists server-side and is treated as success.
func (c *Client) CreateProfile(ctx context.Context, in ProfileInput) error {
	resp, body, err := c.do(ctx, http.MethodPost, "/profile", in)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	if resp.StatusCode >= 300 {
		return &StatusError{Op: "profile create", Status: resp.StatusCode, Message: serverMessage(body)}
	}
	return nil
}

func (c *Client) BillingStatus(ctx context.Context) (Subscription, error) {
	var out struct {
		Subscription Subscription `json:"subscription"`
		Error        string       `json:"error"`
	}
	resp, body, err := c.do(ctx, http.MethodGet, "/billing/status", nil)
	if err != nil {
		return Subscription{}, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return Subscription{}, ErrUnauthenticated
	}
	if resp.StatusCode >= 300 {
		return Subscription{}, &StatusError{Op: "billing status", Status: resp.StatusCode, Message: serverMessage(body)}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return Subscription{}, &StatusError{Op: "billing status", Status: resp.StatusCode, Message: "unexpected response format"}
	}
	if out.Error != "" {
		return Subscription{}, &StatusError{Op: "billing status", Status: resp.StatusCode, Message: out.Error}
	}
	return out.Subscription, nil
}

func (c *Client) BillingOffers(ctx context.Context) (Offers, error) {
	var out struct {
		Offers Offers `json:"offers"`
	}
	resp, body, err := c.do(ctx, http.MethodGet, "/billing/offers", nil)
	if err != nil {
		return Offers{}, err
	}
	if resp.StatusCode >= 300 {
		return Offers{}, &StatusError{Op: "billing offers", Status: resp.StatusCode, Message: serverMessage(body)}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return Offers{}, &StatusError{Op: "billing offers", Status: resp.StatusCode, Message: "unexpected response format"}
	}
	return out.Offers, nil
}

// Checkout starts a checkout session and returns the redirect URL. Callers
// hold a single-flight guard; this method itself never queues requests.
func (c *Client) Checkout(ctx context.Context, plan string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	resp, body, err := c.do(ctx, http.MethodPost, "/billing/checkout", map[string]string{"plan": plan})
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthenticated
	}
	if resp.StatusCode >= 300 {
		return "", &StatusError{Op: "checkout", Status: resp.StatusCode, Message: serverMessage(body)}
	}
	if err := json.Unmarshal(body, &out); err != nil || strings.TrimSpace(out.URL) == "" {
		return "", &StatusError{Op: "checkout", Status: resp.StatusCode, Message: "checkout did not return a redirect url"}
	}
	return out.URL, nil
}

// SendChat posts one user turn and returns the assistant reply. A 402 comes
// back as *QuotaExceededError carrying the server's human-readable message;
// the server's verdict always wins over any local counter.
func (c *Client) SendChat(ctx context.Context, message string) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	resp, body, err := c.do(ctx, http.MethodPost, "/chat", map[string]string{"message": message})
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusPaymentRequired {
		return "", &QuotaExceededError{Message: serverMessage(body)}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthenticated
	}
	if resp.StatusCode >= 300 {
		return "", &StatusError{Op: "chat send", Status: resp.StatusCode, Message: serverMessage(body)}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &StatusError{Op: "chat send", Status: resp.StatusCode, Message: "unexpected response format"}
	}
	return out.Reply, nil
}

// ChatHistory returns the stored conversation, oldest first. Any failure
// degrades to an empty history rather than an error.
func (c *Client) ChatHistory(ctx context.Context) ([]HistoryEntry, error) {
	var out struct {
		History []HistoryEntry `json:"history"`
	}
	resp, body, err := c.do(ctx, http.MethodGet, "/chat/history", nil)
	if err != nil {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, nil
	}
	return out.History, nil
}

func (c *Client) AdminFeedback(ctx context.Context) ([]FeedbackRow, error) {
	var out struct {
		OK   bool          `json:"ok"`
		Rows []FeedbackRow `json:"rows"`
	}
	resp, body, err := c.do(ctx, http.MethodGet, "/admin/feedback", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthenticated
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{Op: "feedback fetch", Status: resp.StatusCode, Message: serverMessage(body)}
	}
	if err := json.Unmarshal(body, &out); err != nil || !out.OK {
		return nil, &StatusError{Op: "feedback fetch", Status: resp.StatusCode, Message: "unexpected response format"}
	}
	return out.Rows, nil
}

func (c *Client) RequestLoginCode(ctx context.Context, email string) error {
	resp, body, err := c.do(ctx, http.MethodPost, "/auth/request-code", map[string]string{"email": email})
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		msg := serverMessage(body)
		if msg == "" {
			msg = "failed to send login code"
		}
		return &StatusError{Op: "request code", Status: resp.StatusCode, Message: msg}
	}
	return nil
}

// VerifyLoginCode exchanges the emailed code for a session cookie. Success
// here does not guarantee the cookie is visible to the next request yet, so
// the gate re-runs the session check rather than assuming authentication.
func (c *Client) VerifyLoginCode(ctx context.Context, email, code string) error {
	resp, body, err := c.do(ctx, http.MethodPost, "/auth/verify", map[string]string{"email": email, "code": code})
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		msg := serverMessage(body)
		if msg == "" {
			msg = "invalid or expired code"
		}
		return &StatusError{Op: "verify code", Status: resp.StatusCode, Message: msg}
	}
	c.saveCookies()
	return nil
}

// Logout tears the session down server-side; best-effort.
func (c *Client) Logout(ctx context.Context) error {
	resp, body, err := c.do(ctx, http.MethodPost, "/auth/logout", nil)
	c.clearCookies()
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return &StatusError{Op: "logout", Status: resp.StatusCode, Message: serverMessage(body)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, []byte, error) {
	var reqBody *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("api request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %v", err)
	}
	return resp, body, nil
}

// serverMessage pulls the literal error text out of a response body, trying
// the shapes the backend actually emits ({error} and {message}).
func serverMessage(body []byte) string {
	var out struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return ""
	}
	if strings.TrimSpace(out.Message) != "" {
		return out.Message
	}
	return strings.TrimSpace(out.Error)
}
