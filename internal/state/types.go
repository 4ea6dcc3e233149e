// Package state holds the development-server dataset: the entities a real
// MaxDP deployment would keep in its database, flattened into one JSON file
// so `maxdp dev serve` and the test suite can run without infrastructure.
package state

import (
	"encoding/json"
	"time"
)

type State struct {
	Version       int                        `json:"version"`
	Users         map[string]*User           `json:"users"`
	Workspaces    map[string]*Workspace      `json:"workspaces"`
	Flows         map[string]*Flow           `json:"flows"`
	FlowVersions  map[string][]FlowVersion   `json:"flowVersions"`  // by flow id, ascending version
	Drafts        map[string]json.RawMessage `json:"drafts"`        // uncommitted definition by flow id
	RefreshTokens map[string]string          `json:"refreshTokens"` // refresh token -> user id
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"password"` // dev server only; never a real credential
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}

type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Flow struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	WorkspaceID     string          `json:"workspaceId"`
	FlowData        json.RawMessage `json:"flowData,omitempty"`
	LatestVersionID string          `json:"latestVersionId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type FlowVersion struct {
	ID         string          `json:"id"`
	FlowID     string          `json:"flowId"`
	Version    int             `json:"version"`
	Definition json.RawMessage `json:"definition"`
	CreatedAt  time.Time       `json:"createdAt"`
}
