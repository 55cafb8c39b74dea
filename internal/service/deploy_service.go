package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/nexfinity/hosting-gateway/internal/models"
	"github.com/nexfinity/hosting-gateway/internal/upstream"
)

// Panel defaults applied under caller-supplied values. The caller's limits
// win key-by-key, never wholesale.
const (
	defaultMemoryMB    = 512
	defaultSwapMB      = 0
	defaultDiskMB      = 1024
	defaultIOWeight    = 500
	defaultCPUPercent  = 1
	defaultDockerImage = "discord-bot:latest"
	defaultStartup     = "node index.js"
	defaultDescription = "Discord bot automatic deployment"

	// The panel rejects servers whose environment lacks TOKEN; the real
	// value is filled in by the customer after handover.
	tokenPlaceholder = "REPLACE_ME"
)

type serverCreator interface {
	CreateServer(ctx context.Context, payload *upstream.CreateServerPayload) (*upstream.CreateServerResult, error)
}

type identityResolver interface {
	Resolve(ctx context.Context, email string) (models.RemoteIdentity, error)
}

// DeployService composes the full instance deployment: validate, resolve
// the owning panel account, build the provisioning payload, submit it, and
// fan out best-effort notifications.
type DeployService struct {
	resolver          identityResolver
	panel             serverCreator
	notify            *NotificationFanout
	defaultAllocation int
}

// NewDeployService creates the orchestrator. defaultAllocation is used when
// a request does not pin an allocation.
func NewDeployService(resolver identityResolver, panel serverCreator, notify *NotificationFanout, defaultAllocation int) *DeployService {
	return &DeployService{
		resolver:          resolver,
		panel:             panel,
		notify:            notify,
		defaultAllocation: defaultAllocation,
	}
}

// Deploy provisions one instance. Exactly one provisioning call is made per
// invocation and there are no automatic retries: server creation is not
// idempotent upstream, and a blind retry risks duplicate servers. Retry
// policy, if any, belongs to the caller.
func (s *DeployService) Deploy(ctx context.Context, req *models.DeployRequest) (*models.DeployResult, error) {
	// Precondition checks happen before any network call.
	switch {
	case req == nil:
		return nil, upstream.InvalidRequest("deploy request is required")
	case req.OwnerEmail == "":
		return nil, upstream.InvalidRequest("owner_email is required")
	case req.EggID == 0:
		return nil, upstream.InvalidRequest("egg_id is required")
	case req.NodeID == 0:
		return nil, upstream.InvalidRequest("node_id is required")
	}

	// Identity resolution is not best-effort; any failure aborts the deploy.
	identity, err := s.resolver.Resolve(ctx, req.OwnerEmail)
	if err != nil {
		return nil, err
	}

	payload := s.buildPayload(req, identity)

	log.Printf("[Deploy] Submitting server %q for %s (panel user %d)", payload.Name, req.OwnerEmail, identity.ID)

	result, err := s.panel.CreateServer(ctx, payload)
	if err != nil {
		// Provisioning failure is terminal; no notification is attempted.
		return nil, err
	}

	name, id, uuid, createdAt := serverSummary(result.Raw, payload.Name)
	s.notify.DeploySucceeded(ctx, DeployNotification{
		Email:      firstNonEmpty(req.NotifyEmail, req.OwnerEmail),
		WebhookURL: req.DiscordWebhook,
		ServerName: name,
		ServerID:   id,
		ServerUUID: uuid,
		CreatedAt:  createdAt,
	})

	status := models.DeployStatusUnknown
	if result.StatusCode == 200 || result.StatusCode == 201 {
		status = models.DeployStatusProvisioning
	}

	return &models.DeployResult{
		InstanceID: result.InstanceID,
		Status:     status,
		Message:    "instance deployment submitted",
		Response:   result.Raw,
	}, nil
}

// buildPayload assembles the panel payload, merging environment sources and
// layering caller limits over the defaults.
func (s *DeployService) buildPayload(req *models.DeployRequest, identity models.RemoteIdentity) *upstream.CreateServerPayload {
	git := req.GitConfig
	if git == nil {
		git = &models.GitConfig{}
	}

	name := firstNonEmpty(req.Name, git.Name, fmt.Sprintf("Bot-%d", time.Now().UnixMilli()))

	allocation := s.defaultAllocation
	if req.AllocationID != "" {
		if id, err := strconv.Atoi(req.AllocationID); err == nil {
			allocation = id
		}
	}

	return &upstream.CreateServerPayload{
		ExternalID:        nil,
		Name:              name,
		Description:       firstNonEmpty(git.Description, defaultDescription),
		User:              identity.ID,
		Egg:               req.EggID,
		DockerImage:       firstNonEmpty(req.Image, git.DockerImage, defaultDockerImage),
		Startup:           firstNonEmpty(req.Startup, git.Startup, defaultStartup),
		Environment:       MergeEnvironment(req.EnvObject, req.EnvArray, git.EnvArray),
		SkipScripts:       true,
		OOMKiller:         true,
		StartOnCompletion: true,
		Limits:            mergeLimits(req.Limits),
		FeatureLimits:     mergeFeatureLimits(req.FeatureLimits),
		Allocation:        upstream.ServerAllocation{Default: allocation, Additional: []int{}},
		Deploy: upstream.ServerDeploy{
			Locations: []int{},
			Tags:      []string{},
			PortRange: []string{},
		},
	}
}

// MergeEnvironment merges the three environment sources with total
// precedence: a non-empty object wins outright, otherwise the array,
// otherwise the git config array. TOKEN and RCON_PASS are then synthesized
// if absent; the panel rejects servers without them.
func MergeEnvironment(envObject map[string]string, envArray, gitEnvArray []string) map[string]string {
	env := make(map[string]string)
	switch {
	case len(envObject) > 0:
		for k, v := range envObject {
			env[k] = v
		}
	case len(envArray) > 0:
		env = envArrayToMap(envArray)
	case len(gitEnvArray) > 0:
		env = envArrayToMap(gitEnvArray)
	}

	if env["TOKEN"] == "" {
		env["TOKEN"] = tokenPlaceholder
	}
	if env["RCON_PASS"] == "" {
		env["RCON_PASS"] = randomHex(12)
	}
	return env
}

// envArrayToMap parses ["K=V", ...] entries; entries without '=' or with an
// empty key are skipped.
func envArrayToMap(entries []string) map[string]string {
	env := make(map[string]string)
	for _, entry := range entries {
		idx := strings.Index(entry, "=")
		if idx == -1 {
			continue
		}
		key := strings.TrimSpace(entry[:idx])
		if key == "" {
			continue
		}
		env[key] = strings.TrimSpace(entry[idx+1:])
	}
	return env
}

func mergeLimits(in *models.ResourceLimits) upstream.ServerLimits {
	out := upstream.ServerLimits{
		Memory: defaultMemoryMB,
		Swap:   defaultSwapMB,
		Disk:   defaultDiskMB,
		IO:     defaultIOWeight,
		CPU:    defaultCPUPercent,
	}
	if in == nil {
		return out
	}
	if in.Memory != nil {
		out.Memory = *in.Memory
	}
	if in.Swap != nil {
		out.Swap = *in.Swap
	}
	if in.Disk != nil {
		out.Disk = *in.Disk
	}
	if in.IO != nil {
		out.IO = *in.IO
	}
	if in.CPU != nil {
		out.CPU = *in.CPU
	}
	out.Threads = in.Threads
	return out
}

func mergeFeatureLimits(in *models.FeatureLimits) upstream.ServerFeatureLimits {
	var out upstream.ServerFeatureLimits
	if in == nil {
		return out
	}
	if in.Databases != nil {
		out.Databases = *in.Databases
	}
	if in.Allocations != nil {
		out.Allocations = *in.Allocations
	}
	if in.Backups != nil {
		out.Backups = *in.Backups
	}
	return out
}

// serverSummary extracts the fields the notifications mention from the raw
// panel reply, tolerating both wrapped and flat shapes.
func serverSummary(raw json.RawMessage, fallbackName string) (name, id, uuid, createdAt string) {
	name, id, uuid, createdAt = fallbackName, "N/A", "N/A", time.Now().UTC().Format(time.RFC3339)
	fields, err := upstream.UnwrapAttributes(raw)
	if err != nil {
		return
	}
	if v, ok := stringField(fields, "name"); ok {
		name = v
	}
	if v, ok := stringField(fields, "id"); ok {
		id = v
	} else if v, ok := stringField(fields, "identifier"); ok {
		id = v
	}
	if v, ok := stringField(fields, "uuid"); ok {
		uuid = v
	} else if v, ok := stringField(fields, "identifier"); ok {
		uuid = v
	}
	if v, ok := stringField(fields, "created_at"); ok {
		createdAt = v
	}
	return
}

// stringField reads a field that may be a JSON string or number.
func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n.String() != "" {
		return n.String(), true
	}
	return "", false
}
