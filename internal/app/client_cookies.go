package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Cookie persistence is an optimization only: it saves the user a login code
// round-trip between runs. All entitlement and session decisions are still
// re-derived from the server on every start.

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// SetCookieFile enables cookie persistence at path and loads any cookies a
// previous run left behind.
func (c *Client) SetCookieFile(path string) {
	c.cookieFile = path
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return
	}
	var cookies []*http.Cookie
	for _, sc := range stored {
		if !sc.Expires.IsZero() && sc.Expires.Before(time.Now()) {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Expires: sc.Expires})
	}
	if len(cookies) > 0 && c.HTTP.Jar != nil {
		c.HTTP.Jar.SetCookies(base, cookies)
	}
}

func (c *Client) saveCookies() {
	if c.cookieFile == "" || c.HTTP.Jar == nil {
		return
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return
	}
	var stored []storedCookie
	for _, ck := range c.HTTP.Jar.Cookies(base) {
		stored = append(stored, storedCookie{Name: ck.Name, Value: ck.Value, Expires: ck.Expires})
	}
	if len(stored) == 0 {
		return
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(c.cookieFile), 0o700)
	_ = os.WriteFile(c.cookieFile, data, 0o600)
}

func (c *Client) clearCookies() {
	if jar, err := cookiejar.New(nil); err == nil {
		c.HTTP.Jar = jar
	}
	if c.cookieFile != "" {
		_ = os.Remove(c.cookieFile)
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}
