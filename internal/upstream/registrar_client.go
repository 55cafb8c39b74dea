package upstream

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexfinity/hosting-gateway/internal/models"
)

// RegistrarClient talks to the domain registrar's XML-over-HTTP API. Auth is
// an API user/key pair passed in the query string on every call.
type RegistrarClient struct {
	baseURL    string
	apiUser    string
	apiKey     string
	clientIP   string
	httpClient *http.Client
}

// NewRegistrarClient creates a registrar client. clientIP is required by the
// registrar on every command.
func NewRegistrarClient(baseURL, apiUser, apiKey, clientIP string) *RegistrarClient {
	return &RegistrarClient{
		baseURL:    baseURL,
		apiUser:    apiUser,
		apiKey:     apiKey,
		clientIP:   clientIP,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// apiResponse is the registrar's envelope. Repeated child elements decode
// into slices, so a one-result reply and a many-result reply normalize the
// same way.
type apiResponse struct {
	XMLName xml.Name `xml:"ApiResponse"`
	Status  string   `xml:"Status,attr"`
	Errors  struct {
		Error []struct {
			Number  string `xml:"Number,attr"`
			Message string `xml:",chardata"`
		} `xml:"Error"`
	} `xml:"Errors"`
	CommandResponse struct {
		DomainCheckResults []domainCheckResult `xml:"DomainCheckResult"`
		TldPrices          []tldPrice          `xml:"TldPrice"`
	} `xml:"CommandResponse"`
}

type domainCheckResult struct {
	Domain                   string `xml:"Domain,attr"`
	Available                string `xml:"Available,attr"`
	IsPremiumName            string `xml:"IsPremiumName,attr"`
	PremiumRegistrationPrice string `xml:"PremiumRegistrationPrice,attr"`
}

type tldPrice struct {
	Tld      string `xml:"Name,attr"`
	Price    string `xml:"Price,attr"`
	Duration string `xml:"Duration,attr"`
}

func (c *RegistrarClient) command(ctx context.Context, name string, params url.Values) (*apiResponse, error) {
	q := url.Values{}
	q.Set("ApiUser", c.apiUser)
	q.Set("ApiKey", c.apiKey)
	q.Set("UserName", c.apiUser)
	q.Set("ClientIp", c.clientIP)
	q.Set("Command", name)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	fullURL := c.baseURL + "?" + q.Encode()
	replay := &ReplayableRequest{Method: http.MethodGet, URL: fullURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err, replay, "registrar")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, replay, "registrar")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejected(resp.StatusCode, string(body), replay, "registrar command %s failed", name)
	}

	var parsed apiResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, Malformed("registrar reply is not valid XML: %v", err)
	}
	if strings.EqualFold(parsed.Status, "ERROR") {
		msg := "registrar reported an error"
		if len(parsed.Errors.Error) > 0 {
			msg = strings.TrimSpace(parsed.Errors.Error[0].Message)
		}
		return nil, rejected(resp.StatusCode, string(body), replay, "registrar command %s: %s", name, msg)
	}
	return &parsed, nil
}

// CheckDomains checks availability for one or more domains in a single call.
func (c *RegistrarClient) CheckDomains(ctx context.Context, domains []string) ([]models.DomainEntry, map[string]bool, error) {
	if len(domains) == 0 {
		return nil, nil, InvalidRequest("at least one domain is required")
	}
	params := url.Values{"DomainList": {strings.Join(domains, ",")}}

	parsed, err := c.command(ctx, "namecheap.domains.check", params)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]models.DomainEntry, 0, len(parsed.CommandResponse.DomainCheckResults))
	available := make(map[string]bool)
	for _, r := range parsed.CommandResponse.DomainCheckResults {
		entry := models.DomainEntry{
			Domain:  r.Domain,
			Premium: strings.EqualFold(r.IsPremiumName, "true"),
		}
		if entry.Premium && r.PremiumRegistrationPrice != "" {
			if price, err := decimal.NewFromString(r.PremiumRegistrationPrice); err == nil {
				entry.Price = &price
			}
		}
		entries = append(entries, entry)
		available[strings.ToLower(r.Domain)] = strings.EqualFold(r.Available, "true")
	}
	if len(entries) == 0 {
		return nil, nil, Malformed("registrar check reply contains no results")
	}
	return entries, available, nil
}

// TLDPricing returns registration pricing per TLD. Duration is kept as the
// upstream's string ("1 YEAR" style) because durations are display-only here.
func (c *RegistrarClient) TLDPricing(ctx context.Context) ([]models.DomainEntry, error) {
	parsed, err := c.command(ctx, "namecheap.users.getPricing", url.Values{
		"ProductType":     {"DOMAIN"},
		"ProductCategory": {"REGISTER"},
	})
	if err != nil {
		return nil, err
	}

	entries := make([]models.DomainEntry, 0, len(parsed.CommandResponse.TldPrices))
	for _, p := range parsed.CommandResponse.TldPrices {
		entry := models.DomainEntry{Domain: p.Tld, Duration: p.Duration}
		if price, err := decimal.NewFromString(p.Price); err == nil {
			entry.Price = &price
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
