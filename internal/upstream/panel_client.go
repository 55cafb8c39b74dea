package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/nexfinity/hosting-gateway/internal/models"
)

// Timeouts per call class: metadata lookups stay short, provisioning calls
// are given longer because the panel creates the server synchronously.
const (
	panelMetaTimeout      = 10 * time.Second
	panelProvisionTimeout = 30 * time.Second
)

// PanelClient talks to the game-panel application API (bearer JSON REST).
type PanelClient struct {
	baseURL         string
	apiKey          string
	metaClient      *http.Client
	provisionClient *http.Client
}

// NewPanelClient creates a panel client. baseURL is the application API
// root, e.g. https://panel.example.com/api/application.
func NewPanelClient(baseURL, apiKey string) *PanelClient {
	return &PanelClient{
		baseURL:         baseURL,
		apiKey:          apiKey,
		metaClient:      &http.Client{Timeout: panelMetaTimeout},
		provisionClient: &http.Client{Timeout: panelProvisionTimeout},
	}
}

func (c *PanelClient) headers(withBody bool) map[string]string {
	h := map[string]string{
		"Accept":        "application/json",
		"Authorization": "Bearer " + c.apiKey,
	}
	if withBody {
		h["Content-Type"] = "application/json"
	}
	return h
}

// PanelUser is one normalized account record from the user listing.
type PanelUser struct {
	ID    int
	Email string
}

// ListUsers fetches one page of the panel's user listing. The listing shape
// varies between panel builds: the page may be {"data":[...]} or a bare
// array, and each record may be attribute-wrapped or flat.
func (c *PanelClient) ListUsers(ctx context.Context, page int) ([]PanelUser, error) {
	url := fmt.Sprintf("%s/users?page=%d", c.baseURL, page)
	replay := &ReplayableRequest{Method: http.MethodGet, URL: url, Headers: c.headers(false)}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range replay.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.metaClient.Do(req)
	if err != nil {
		return nil, transportError(err, replay, "panel")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, replay, "panel")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejected(resp.StatusCode, string(body), replay, "panel user listing failed")
	}

	return parsePanelUserPage(body)
}

func parsePanelUserPage(body []byte) ([]PanelUser, error) {
	// Either {"data": [...]} or a bare list.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	list := json.RawMessage(body)
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		list = envelope.Data
	}

	entries, err := CoerceList(list)
	if err != nil {
		return nil, err
	}

	users := make([]PanelUser, 0, len(entries))
	for _, entry := range entries {
		fields, err := UnwrapAttributes(entry)
		if err != nil {
			return nil, err
		}
		var email string
		if raw, ok := fields["email"]; ok {
			_ = json.Unmarshal(raw, &email)
		}
		if email == "" {
			continue
		}
		id, ok := numericField(fields, "id")
		if !ok {
			continue
		}
		users = append(users, PanelUser{ID: id, Email: email})
	}
	return users, nil
}

// numericField reads an integer field that some panels serialize as a JSON
// number and others as a quoted string.
func numericField(fields map[string]json.RawMessage, key string) (int, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}

// CreatePanelUserRequest is the minimal user-creation payload; panels differ
// in what they accept, so nothing optional is sent.
type CreatePanelUserRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// CreateUser creates a panel account and returns its id.
func (c *PanelClient) CreateUser(ctx context.Context, reqBody *CreatePanelUserRequest) (models.RemoteIdentity, error) {
	url := c.baseURL + "/users"
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return models.RemoteIdentity{}, fmt.Errorf("marshal request: %w", err)
	}
	replay := &ReplayableRequest{Method: http.MethodPost, URL: url, Headers: c.headers(true), Body: string(payload)}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return models.RemoteIdentity{}, fmt.Errorf("create request: %w", err)
	}
	for k, v := range replay.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.metaClient.Do(req)
	if err != nil {
		return models.RemoteIdentity{}, transportError(err, replay, "panel")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.RemoteIdentity{}, transportError(err, replay, "panel")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RemoteIdentity{}, rejected(resp.StatusCode, string(body), replay, "panel user creation failed")
	}

	fields, err := UnwrapAttributes(body)
	if err != nil {
		return models.RemoteIdentity{}, err
	}
	id, ok := numericField(fields, "id")
	if !ok {
		return models.RemoteIdentity{}, Malformed("panel user creation response has no id")
	}

	log.Printf("[PanelClient] Created panel user %d", id)
	return models.RemoteIdentity{ID: id, Email: reqBody.Email}, nil
}

// ServerLimits is the panel's limits block. Threads is nullable on the wire.
type ServerLimits struct {
	Memory  int  `json:"memory"`
	Swap    int  `json:"swap"`
	Disk    int  `json:"disk"`
	IO      int  `json:"io"`
	Threads *int `json:"threads"`
	CPU     int  `json:"cpu"`
}

// ServerFeatureLimits is the panel's feature_limits block.
type ServerFeatureLimits struct {
	Databases   int `json:"databases"`
	Allocations int `json:"allocations"`
	Backups     int `json:"backups"`
}

// ServerAllocation selects the primary allocation for the new server.
type ServerAllocation struct {
	Default    int   `json:"default"`
	Additional []int `json:"additional"`
}

// ServerDeploy is the panel's deploy block; we always pin an explicit node,
// so it stays empty.
type ServerDeploy struct {
	Locations   []int    `json:"locations"`
	Tags        []string `json:"tags"`
	DedicatedIP bool     `json:"dedicated_ip"`
	PortRange   []string `json:"port_range"`
}

// CreateServerPayload is the full server-creation body.
type CreateServerPayload struct {
	ExternalID        *string             `json:"external_id"`
	Name              string              `json:"name"`
	Description       string              `json:"description"`
	User              int                 `json:"user"`
	Egg               int                 `json:"egg"`
	DockerImage       string              `json:"docker_image"`
	Startup           string              `json:"startup"`
	Environment       map[string]string   `json:"environment"`
	SkipScripts       bool                `json:"skip_scripts"`
	OOMKiller         bool                `json:"oom_killer"`
	StartOnCompletion bool                `json:"start_on_completion"`
	Limits            ServerLimits        `json:"limits"`
	FeatureLimits     ServerFeatureLimits `json:"feature_limits"`
	Allocation        ServerAllocation    `json:"allocation"`
	Deploy            ServerDeploy        `json:"deploy"`
}

// CreateServerResult carries the raw success response plus the HTTP status;
// the orchestrator maps 200/201 to "provisioning" and any other 2xx to
// "unknown".
type CreateServerResult struct {
	StatusCode int
	InstanceID string
	Raw        json.RawMessage
}

// CreateServer submits a server-creation request to the panel.
func (c *PanelClient) CreateServer(ctx context.Context, payload *CreateServerPayload) (*CreateServerResult, error) {
	url := c.baseURL + "/servers"
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	replay := &ReplayableRequest{Method: http.MethodPost, URL: url, Headers: c.headers(true), Body: string(body)}

	log.Printf("[PanelClient] Creating server %q on node (egg %d, user %d)", payload.Name, payload.Egg, payload.User)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range replay.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.provisionClient.Do(req)
	if err != nil {
		return nil, transportError(err, replay, "panel")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, replay, "panel")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ue := rejected(resp.StatusCode, string(respBody), replay, "panel server creation failed")
		log.Printf("[PanelClient] Server creation rejected, replay with:\n%s", replay.Curl())
		return nil, ue
	}

	result := &CreateServerResult{StatusCode: resp.StatusCode, Raw: respBody}
	if fields, err := UnwrapAttributes(respBody); err == nil {
		if id, ok := numericField(fields, "id"); ok {
			result.InstanceID = strconv.Itoa(id)
		} else if raw, ok := fields["identifier"]; ok {
			var ident string
			if json.Unmarshal(raw, &ident) == nil {
				result.InstanceID = ident
			}
		}
	}
	if result.InstanceID == "" {
		result.InstanceID = "N/A"
	}

	log.Printf("[PanelClient] Server created: %s (status %d)", result.InstanceID, resp.StatusCode)
	return result, nil
}
