package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

func DefaultPath() (string, error) {
	// Prefer OS config dir; falls back to HOME.
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		h, herr := os.UserHomeDir()
		if herr != nil {
			return "", errors.New("cannot determine config dir")
		}
		dir = filepath.Join(h, ".config")
	}
	return filepath.Join(dir, "maxdp", "dev", "state.json"), nil
}

func Load(path string) (*State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	s.ensureMaps()
	return &s, nil
}

func SaveAtomic(path string, s *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	s.ensureMaps()

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *State) ensureMaps() {
	if s.Users == nil {
		s.Users = map[string]*User{}
	}
	if s.Workspaces == nil {
		s.Workspaces = map[string]*Workspace{}
	}
	if s.Flows == nil {
		s.Flows = map[string]*Flow{}
	}
	if s.FlowVersions == nil {
		s.FlowVersions = map[string][]FlowVersion{}
	}
	if s.Drafts == nil {
		s.Drafts = map[string]json.RawMessage{}
	}
	if s.RefreshTokens == nil {
		s.RefreshTokens = map[string]string{}
	}
}

// SeedDefault builds a dataset that looks like a small live account: one dev
// user, two workspaces, and flows in both draft and saved states.
func SeedDefault() *State {
	now := time.Now().UTC()
	s := &State{Version: 1}
	s.ensureMaps()

	s.Users["u-dev"] = &User{
		ID:        "u-dev",
		Username:  "dev",
		Password:  "maxdp",
		Email:     "dev@maxdp.test",
		CreatedAt: now.AddDate(0, -2, 0),
		IsActive:  true,
	}

	s.Workspaces["ws-analytics"] = &Workspace{
		ID:          "ws-analytics",
		Name:        "Analytics",
		Description: "Sales and product analytics pipelines.",
		OwnerID:     "u-dev",
		CreatedAt:   now.AddDate(0, -2, 0),
		UpdatedAt:   now.Add(-3 * time.Hour),
	}
	s.Workspaces["ws-etl"] = &Workspace{
		ID:          "ws-etl",
		Name:        "ETL",
		Description: "Ingestion and transformation jobs.",
		OwnerID:     "u-dev",
		CreatedAt:   now.AddDate(0, -1, 0),
		UpdatedAt:   now.Add(-26 * time.Hour),
	}

	salesDef := json.RawMessage(`{"nodes":[{"id":"src","type":"postgres-reader"},{"id":"agg","type":"aggregate"},{"id":"out","type":"chart-writer"}],"edges":[["src","agg"],["agg","out"]]}`)
	s.Flows["fl-daily-sales"] = &Flow{
		ID:              "fl-daily-sales",
		Name:            "Daily Sales Rollup",
		Description:     "Aggregates yesterday's orders into the sales dashboard.",
		WorkspaceID:     "ws-analytics",
		FlowData:        salesDef,
		LatestVersionID: "fv-daily-sales-2",
		CreatedAt:       now.AddDate(0, -2, 3),
		UpdatedAt:       now.Add(-2 * time.Hour),
	}
	s.FlowVersions["fl-daily-sales"] = []FlowVersion{
		{ID: "fv-daily-sales-1", FlowID: "fl-daily-sales", Version: 1,
			Definition: json.RawMessage(`{"nodes":[{"id":"src","type":"postgres-reader"},{"id":"out","type":"chart-writer"}],"edges":[["src","out"]]}`),
			CreatedAt:  now.AddDate(0, -2, 3)},
		{ID: "fv-daily-sales-2", FlowID: "fl-daily-sales", Version: 2,
			Definition: salesDef,
			CreatedAt:  now.Add(-2 * time.Hour)},
	}

	s.Flows["fl-churn-model"] = &Flow{
		ID:          "fl-churn-model",
		Name:        "Churn Feature Prep",
		Description: "Feature extraction for the churn model. Not committed yet.",
		WorkspaceID: "ws-analytics",
		CreatedAt:   now.Add(-30 * time.Hour),
		UpdatedAt:   now.Add(-30 * time.Hour),
	}
	s.Drafts["fl-churn-model"] = json.RawMessage(`{"nodes":[{"id":"src","type":"csv-reader"}],"edges":[]}`)

	s.Flows["fl-crm-sync"] = &Flow{
		ID:              "fl-crm-sync",
		Name:            "CRM Sync",
		Description:     "Hourly CRM to warehouse sync.",
		WorkspaceID:     "ws-etl",
		LatestVersionID: "fv-crm-sync-1",
		CreatedAt:       now.AddDate(0, -1, 2),
		UpdatedAt:       now.Add(-26 * time.Hour),
	}
	s.FlowVersions["fl-crm-sync"] = []FlowVersion{
		{ID: "fv-crm-sync-1", FlowID: "fl-crm-sync", Version: 1,
			Definition: json.RawMessage(`{"nodes":[{"id":"crm","type":"http-reader"},{"id":"wh","type":"warehouse-writer"}],"edges":[["crm","wh"]]}`),
			CreatedAt:  now.AddDate(0, -1, 2)},
	}

	return s
}
