package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

func TestClientMe(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"authenticated":true,"userId":"u1","isAdmin":true,"remaining_free_messages":7}`))
	}))

	res, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if !res.Authenticated || res.UserID != "u1" || !res.IsAdmin {
		t.Fatalf("res = %+v", res)
	}
	if res.RemainingFreeMessages == nil || *res.RemainingFreeMessages != 7 {
		t.Fatalf("quota = %v, want 7", res.RemainingFreeMessages)
	}
}

func TestClientMeUnauthenticated(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	if _, err := c.Me(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestClientFetchProfile(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"exists":true,"profile":{"business_type":"Freelancer","goal_12_months":"Fewer, better clients"}}`))
	}))
	res, err := c.FetchProfile(context.Background())
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if !res.Exists || res.Profile == nil || res.Profile.Goal12Months != "Fewer, better clients" {
		t.Fatalf("res = %+v", res)
	}
}

func TestClientFetchProfileServerError(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"maintenance"}`))
	}))
	_, err := c.FetchProfile(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Status != 503 || se.Error() != "maintenance" {
		t.Fatalf("status error = %d %q", se.Status, se.Error())
	}
}

func TestClientCreateProfile(t *testing.T) {
	var got ProfileInput
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/profile" {
			t.Fatalf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))

	in := ProfileInput{BusinessType: "Freelancer", Details: "stuck on hourly pricing for way too long now"}
	if err := c.CreateProfile(context.Background(), in); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if got.BusinessType != in.BusinessType || got.Details != in.Details {
		t.Fatalf("payload = %+v", got)
	}
}

func TestClientCreateProfileConflictIsSuccess(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"profile already exists"}`))
	}))
	if err := c.CreateProfile(context.Background(), ProfileInput{}); err != nil {
		t.Fatalf("409 should be success, got %v", err)
	}
}

func TestClientBillingStatus(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"subscription":{"plan":"monthly","status":"active","active":true,"current_period_end":1767225600}}`))
	}))
	sub, err := c.BillingStatus(context.Background())
	if err != nil {
		t.Fatalf("BillingStatus: %v", err)
	}
	if sub.Plan != "monthly" || !sub.Active || sub.CurrentPeriodEnd != 1767225600 {
		t.Fatalf("sub = %+v", sub)
	}
}

func TestClientBillingStatusEmbeddedError(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"billing backend offline"}`))
	}))
	_, err := c.BillingStatus(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Error() != "billing backend offline" {
		t.Fatalf("err = %v, want embedded-error StatusError", err)
	}
}

func TestClientCheckout(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["plan"] != "lifetime" {
			t.Fatalf("plan = %q", in["plan"])
		}
		w.Write([]byte(`{"url":"https://pay.example.com/cs_123"}`))
	}))
	url, err := c.Checkout(context.Background(), "lifetime")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if url != "https://pay.example.com/cs_123" {
		t.Fatalf("url = %q", url)
	}
}

func TestClientCheckoutMissingURL(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	if _, err := c.Checkout(context.Background(), "monthly"); err == nil {
		t.Fatal("a checkout without a redirect url must fail")
	}
}

func TestClientSendChat(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["message"] != "help me price a rebrand" {
			t.Fatalf("message = %q", in["message"])
		}
		w.Write([]byte(`{"reply":"Anchor on value, not hours."}`))
	}))
	reply, err := c.SendChat(context.Background(), "help me price a rebrand")
	if err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if reply != "Anchor on value, not hours." {
		t.Fatalf("reply = %q", reply)
	}
}

func TestClientSendChatQuotaExceeded(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"You used your free messages."}`))
	}))
	_, err := c.SendChat(context.Background(), "hello")
	var quota *QuotaExceededError
	if !errors.As(err, &quota) {
		t.Fatalf("err = %v, want *QuotaExceededError", err)
	}
	if quota.Error() != "You used your free messages." {
		t.Fatalf("message = %q", quota.Error())
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Fatal("402 must not be a StatusError")
	}
}

func TestClientChatHistoryDegradesToEmpty(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	entries, err := c.ChatHistory(context.Background())
	if err != nil || entries != nil {
		t.Fatalf("history = %v, %v; want empty and no error", entries, err)
	}
}

func TestClientChatHistory(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"history":[{"id":"1","role":"user","content":"hi"},{"id":"2","role":"assistant","content":"hello"}]}`))
	}))
	entries, err := c.ChatHistory(context.Background())
	if err != nil {
		t.Fatalf("ChatHistory: %v", err)
	}
	if len(entries) != 2 || entries[1].Role != "assistant" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestClientAdminFeedback(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"rows":[{"id":"f1","rating":"down","comment":"too generic","user_email":"a@b.com"}]}`))
	}))
	rows, err := c.AdminFeedback(context.Background())
	if err != nil {
		t.Fatalf("AdminFeedback: %v", err)
	}
	if len(rows) != 1 || rows[0].Rating != "down" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestClientAdminFeedbackNotOK(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false}`))
	}))
	if _, err := c.AdminFeedback(context.Background()); err == nil {
		t.Fatal("ok:false must be an error")
	}
}

func TestClientLoginFlow(t *testing.T) {
	var sawRequest, sawVerify bool
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/request-code":
			sawRequest = true
			w.Write([]byte(`{"ok":true}`))
		case "/auth/verify":
			sawVerify = true
			var in map[string]string
			json.NewDecoder(r.Body).Decode(&in)
			if in["email"] != "a@b.com" || in["code"] != "123456" {
				t.Fatalf("verify payload = %+v", in)
			}
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1"})
			w.Write([]byte(`{"ok":true}`))
		default:
			t.Fatalf("path = %q", r.URL.Path)
		}
	}))

	if err := c.RequestLoginCode(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("RequestLoginCode: %v", err)
	}
	if err := c.VerifyLoginCode(context.Background(), "a@b.com", "123456"); err != nil {
		t.Fatalf("VerifyLoginCode: %v", err)
	}
	if !sawRequest || !sawVerify {
		t.Fatal("expected both auth endpoints to be hit")
	}
}

func TestClientVerifyBadCode(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid code"}`))
	}))
	err := c.VerifyLoginCode(context.Background(), "a@b.com", "000000")
	if err == nil || err.Error() != "invalid code" {
		t.Fatalf("err = %v, want server message", err)
	}
}

func TestClientCookiePersistence(t *testing.T) {
	cookieFile := t.TempDir() + "/cookies.json"

	c, srv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/verify":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "persisted", Path: "/"})
			w.Write([]byte(`{"ok":true}`))
		case "/me":
			cookie, err := r.Cookie("session")
			if err != nil || cookie.Value != "persisted" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"authenticated":true,"userId":"u1"}`))
		}
	}))
	c.SetCookieFile(cookieFile)

	if err := c.VerifyLoginCode(context.Background(), "a@b.com", "123456"); err != nil {
		t.Fatalf("VerifyLoginCode: %v", err)
	}

	// A fresh client loading the same cookie file stays authenticated.
	c2, err := NewClient(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c2.SetCookieFile(cookieFile)
	res, err := c2.Me(context.Background())
	if err != nil {
		t.Fatalf("Me with restored cookies: %v", err)
	}
	if !res.Authenticated {
		t.Fatal("restored session not authenticated")
	}
}
