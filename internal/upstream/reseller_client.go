package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nexfinity/hosting-gateway/internal/models"
)

// ResellerClient talks to the free-hosting reseller API. The API is split
// across two hosts with two auth schemes: a JSON base taking the api user
// and key as query parameters, and panel endpoints taking form-encoded
// bodies behind HTTP Basic auth. Several replies are plain delimited text.
type ResellerClient struct {
	apiBaseURL   string
	panelBaseURL string
	apiUser      string
	apiKey       string
	httpClient   *http.Client
	createClient *http.Client
}

// NewResellerClient creates a reseller client.
func NewResellerClient(apiBaseURL, panelBaseURL, apiUser, apiKey string) *ResellerClient {
	return &ResellerClient{
		apiBaseURL:   apiBaseURL,
		panelBaseURL: panelBaseURL,
		apiUser:      apiUser,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		createClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// getText performs a query-key GET against the JSON base and returns the raw
// body; several endpoints answer with plain text rather than JSON.
func (c *ResellerClient) getText(ctx context.Context, client *http.Client, endpoint string, params url.Values) (string, error) {
	params.Set("api_user", c.apiUser)
	params.Set("api_key", c.apiKey)
	fullURL := c.apiBaseURL + "/" + endpoint + "?" + params.Encode()
	replay := &ReplayableRequest{Method: http.MethodGet, URL: fullURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", transportError(err, replay, "reseller")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(err, replay, "reseller")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", rejected(resp.StatusCode, string(body), replay, "reseller %s failed", endpoint)
	}
	return string(body), nil
}

// postForm performs a form-encoded POST against the panel host with HTTP
// Basic auth, returning the raw body.
func (c *ResellerClient) postForm(ctx context.Context, path string, form url.Values) (string, error) {
	fullURL := c.panelBaseURL + path
	encoded := form.Encode()
	replay := &ReplayableRequest{
		Method:  http.MethodPost,
		URL:     fullURL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    encoded,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.apiUser, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(err, replay, "reseller")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(err, replay, "reseller")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", rejected(resp.StatusCode, string(body), replay, "reseller %s failed", path)
	}
	return string(body), nil
}

// CreateAccountParams are the fields the reseller requires for a new
// hosting account.
type CreateAccountParams struct {
	Username string
	Password string
	Email    string
	Domain   string
	Plan     string
}

// CreateAccount provisions a hosting account. The reply body is returned
// verbatim; the reseller's result text is free-form and kept for operators.
func (c *ResellerClient) CreateAccount(ctx context.Context, p CreateAccountParams) (string, error) {
	if p.Username == "" || p.Password == "" || p.Email == "" || p.Domain == "" {
		return "", InvalidRequest("username, password, email and domain are required")
	}
	log.Printf("[ResellerClient] Creating hosting account %s (%s)", p.Username, p.Domain)
	return c.getText(ctx, c.createClient, "createAccount", url.Values{
		"username": {p.Username},
		"password": {p.Password},
		"email":    {p.Email},
		"domain":   {p.Domain},
		"plan":     {p.Plan},
	})
}

// SuspendAccount suspends a hosting account with the given reason.
func (c *ResellerClient) SuspendAccount(ctx context.Context, username, reason string) (string, error) {
	if reason == "" {
		reason = "Suspended via API"
	}
	log.Printf("[ResellerClient] Suspending account %s", username)
	return c.postForm(ctx, "/json-api/suspendacct.php", url.Values{
		"user":   {username},
		"reason": {reason},
	})
}

// UnsuspendAccount reactivates a suspended hosting account.
func (c *ResellerClient) UnsuspendAccount(ctx context.Context, username string) (string, error) {
	log.Printf("[ResellerClient] Unsuspending account %s", username)
	return c.postForm(ctx, "/json-api/unsuspendacct.php", url.Values{
		"user": {username},
	})
}

// CheckAvailable reports whether a domain can be used for a new account.
// The upstream answers with a bare "0" or "1".
func (c *ResellerClient) CheckAvailable(ctx context.Context, domain string) (bool, error) {
	if domain == "" {
		return false, InvalidRequest("domain is required")
	}
	body, err := c.postForm(ctx, "/json-api/checkavailable.php", url.Values{
		"api_user": {c.apiUser},
		"api_key":  {c.apiKey},
		"domain":   {domain},
	})
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(body) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, Malformed("availability check returned %q, want 0 or 1", strings.TrimSpace(body))
	}
}

// UserDomains lists an account's domains from the delimited-text endpoint.
// The reply interleaves (status, domain, status, domain, ...).
func (c *ResellerClient) UserDomains(ctx context.Context, username string) ([]models.DomainStatus, error) {
	if username == "" {
		return nil, InvalidRequest("username is required")
	}
	body, err := c.getText(ctx, c.httpClient, "getUserDomains", url.Values{
		"username": {username},
	})
	if err != nil {
		return nil, err
	}
	return SplitStatusDomainPairs(body)
}

// UserDomainsXML lists an account's domains from the panel's xml-api
// endpoint. The bridge serializes results as JSON: an array of pairs, a
// single bare pair when there is exactly one result, or objects with status
// and domain fields, depending on the panel build.
func (c *ResellerClient) UserDomainsXML(ctx context.Context, username string) ([]models.DomainStatus, error) {
	if username == "" {
		return nil, InvalidRequest("username is required")
	}
	fullURL := c.panelBaseURL + "/xml-api/getuserdomains.php?" + url.Values{
		"api_user": {c.apiUser},
		"api_key":  {c.apiKey},
		"username": {username},
	}.Encode()
	replay := &ReplayableRequest{Method: http.MethodPost, URL: fullURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err, replay, "reseller")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, replay, "reseller")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejected(resp.StatusCode, string(body), replay, "reseller domain listing failed")
	}

	return parseDomainPairList(body)
}

func parseDomainPairList(body []byte) ([]models.DomainStatus, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	entries, err := CoerceList([]byte(trimmed))
	if err != nil {
		return nil, err
	}

	// A single bare pair ["ACTIVE","example.com"] coerces to two scalar
	// entries; detect that and re-wrap it as one pair.
	if len(entries) == 2 {
		var s string
		if json.Unmarshal(entries[0], &s) == nil {
			return []models.DomainStatus{{Status: jsonString(entries[0]), Domain: jsonString(entries[1])}}, nil
		}
	}

	out := make([]models.DomainStatus, 0, len(entries))
	for _, entry := range entries {
		var pair []string
		if err := json.Unmarshal(entry, &pair); err == nil {
			if len(pair) != 2 {
				return nil, Malformed("domain entry has %d fields, want 2", len(pair))
			}
			out = append(out, models.DomainStatus{Status: pair[0], Domain: pair[1]})
			continue
		}
		var obj struct {
			Status string `json:"status"`
			Domain string `json:"domain"`
		}
		if err := json.Unmarshal(entry, &obj); err != nil || obj.Domain == "" {
			return nil, Malformed("unrecognized domain entry shape: %s", string(entry))
		}
		out = append(out, models.DomainStatus{Status: obj.Status, Domain: obj.Domain})
	}
	return out, nil
}

func jsonString(raw json.RawMessage) string {
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}
