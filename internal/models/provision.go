package models

import "encoding/json"

// Deployment status values returned by Deploy. An upstream success response
// with an unexpected 2xx code is reported as unknown, not as a failure.
const (
	DeployStatusProvisioning = "provisioning"
	DeployStatusUnknown      = "unknown"
)

// RemoteIdentity is a panel account resolved (or created) for an email.
// It is looked up per request and never cached locally.
type RemoteIdentity struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// ResourceLimits mirrors the panel's per-server limits block. Nil pointer
// fields mean "use the default"; caller values win key-by-key.
type ResourceLimits struct {
	Memory  *int `json:"memory,omitempty"`
	Swap    *int `json:"swap,omitempty"`
	Disk    *int `json:"disk,omitempty"`
	IO      *int `json:"io,omitempty"`
	CPU     *int `json:"cpu,omitempty"`
	Threads *int `json:"threads,omitempty"`
}

// FeatureLimits mirrors the panel's feature_limits block.
type FeatureLimits struct {
	Databases   *int `json:"databases,omitempty"`
	Allocations *int `json:"allocations,omitempty"`
	Backups     *int `json:"backups,omitempty"`
}

// GitConfig is an optional deployment descriptor carried alongside the
// request, used as a fallback source for name, image, startup and env.
type GitConfig struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	DockerImage string   `json:"docker_image,omitempty"`
	Startup     string   `json:"startup,omitempty"`
	EnvArray    []string `json:"env_array,omitempty"`
}

// DeployRequest describes one instance deployment. Environment may arrive as
// an object, a ["K=V"] array, or embedded in GitConfig; precedence is
// object > array > git config array. TOKEN and RCON_PASS are synthesized
// before submission when absent, since the panel rejects servers without them.
type DeployRequest struct {
	OwnerEmail     string            `json:"owner_email" binding:"required"`
	EggID          int               `json:"egg_id"`
	NodeID         int               `json:"node_id"`
	Name           string            `json:"name,omitempty"`
	Startup        string            `json:"startup,omitempty"`
	Image          string            `json:"image,omitempty"`
	EnvObject      map[string]string `json:"env_object,omitempty"`
	EnvArray       []string          `json:"env_array,omitempty"`
	GitConfig      *GitConfig        `json:"git_config,omitempty"`
	Limits         *ResourceLimits   `json:"limits,omitempty"`
	FeatureLimits  *FeatureLimits    `json:"feature_limits,omitempty"`
	AllocationID   string            `json:"allocation_id,omitempty"`
	NotifyEmail    string            `json:"notify_email,omitempty"`
	DiscordWebhook string            `json:"discord_webhook,omitempty"`
}

// DeployResult is the outcome of a successful deployment call.
type DeployResult struct {
	InstanceID string          `json:"instance_id"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Response   json.RawMessage `json:"response,omitempty"`
}
