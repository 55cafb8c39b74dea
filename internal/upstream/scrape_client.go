package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// browserUA is sent on every scrape request; the legacy panel serves a
// different (unscrapable) page to unknown agents.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:112.0) Gecko/20100101 Firefox/112.0"

// SessionClient is a cookie-carrying HTTP client for the legacy panel. The
// panel has no formal session API: session state is whatever cookies it set.
// The jar is exclusively owned by this instance; create one client per
// session. Within a session, requests may run in parallel (the snapshot
// fan-out does), and the panel re-sends its cookie on every response, so the
// jar itself is guarded.
type SessionClient struct {
	baseURL    string
	mu         sync.Mutex
	cookies    map[string]string
	httpClient *http.Client
}

// NewSessionClient creates a session client for the given panel URL.
func NewSessionClient(panelURL string) *SessionClient {
	return &SessionClient{
		baseURL: strings.TrimRight(panelURL, "/"),
		cookies: make(map[string]string),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			// The panel signals through Location headers; redirects are
			// surfaced to the caller, never followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// ScrapeResponse is one raw panel response.
type ScrapeResponse struct {
	StatusCode int
	Body       string
	Location   string
}

// Do performs one request within the session. Any Set-Cookie on the response
// is merged into the jar before returning. A nil form means no body.
func (c *SessionClient) Do(ctx context.Context, method, path string, form url.Values, extraHeaders map[string]string) (*ScrapeResponse, error) {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	encoded := ""
	if form != nil {
		encoded = form.Encode()
		bodyReader = strings.NewReader(encoded)
	}

	replay := &ReplayableRequest{Method: method, URL: fullURL, Body: encoded}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUA)
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}
	if cookie := c.cookieHeader(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err, replay, "panel session")
	}
	defer resp.Body.Close()

	c.mu.Lock()
	for _, ck := range resp.Cookies() {
		c.cookies[ck.Name] = ck.Value
	}
	c.mu.Unlock()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, replay, "panel session")
	}

	return &ScrapeResponse{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Location:   resp.Header.Get("Location"),
	}, nil
}

func (c *SessionClient) cookieHeader() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cookies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.cookies))
	for k, v := range c.cookies {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, "; ")
}

// Cookie reports a cookie currently held in the jar.
func (c *SessionClient) Cookie(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cookies[name]
	return v, ok
}

// ClearCookies destroys all session state held in the jar.
func (c *SessionClient) ClearCookies() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = make(map[string]string)
}

// BaseURL returns the panel root this client is bound to.
func (c *SessionClient) BaseURL() string { return c.baseURL }
