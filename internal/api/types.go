package api

import (
	"encoding/json"
	"strings"
	"time"
)

// User is the profile returned by the auth service. Read-only to this client;
// registration happens elsewhere.
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
}

type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Flow struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	WorkspaceID     string          `json:"workspace_id"`
	FlowData        json.RawMessage `json:"flow_data,omitempty"`
	LatestVersionID string          `json:"latest_version_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

const (
	FlowStatusDraft = "draft"
	FlowStatusSaved = "saved"
)

// Status derives the display status: a flow that has never had a version
// committed is a draft.
func (f Flow) Status() string {
	if strings.TrimSpace(f.LatestVersionID) == "" {
		return FlowStatusDraft
	}
	return FlowStatusSaved
}

// FlowDefinition is the opaque pipeline payload for one version of a flow.
type FlowDefinition struct {
	FlowID     string          `json:"flow_id"`
	Version    int             `json:"version"`
	Definition json.RawMessage `json:"definition"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateWorkspaceInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CreateFlowInput struct {
	Name        string `json:"name"`
	WorkspaceID string `json:"workspace_id"`
	Description string `json:"description,omitempty"`
}
