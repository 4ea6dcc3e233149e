// Package mockapi serves the MaxDP wire contract from a state.State dataset.
// It backs `maxdp dev serve` and the httptest-based suites; it is not a
// production server.
package mockapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maxdp/maxdp-cli/internal/state"
)

type Server struct {
	mu sync.Mutex
	st *state.State

	// path, when set, persists state after each mutation.
	path string

	// access tokens are session-scoped and never persisted.
	access map[string]string // access token -> user id
}

func New(st *state.State, path string) *Server {
	if st == nil {
		st = state.SeedDefault()
	}
	return &Server{st: st, path: path, access: map[string]string{}}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/auth/me", s.handleMe)
	mux.HandleFunc("GET /api/workspaces", s.handleListWorkspaces)
	mux.HandleFunc("POST /api/workspaces", s.handleCreateWorkspace)
	mux.HandleFunc("GET /api/workspaces/{id}/flows", s.handleListFlows)
	mux.HandleFunc("POST /api/flows", s.handleCreateFlow)
	mux.HandleFunc("GET /api/flows/{id}", s.handleGetFlow)
	mux.HandleFunc("GET /api/flows/{id}/definition", s.handleGetDefinition)
	mux.HandleFunc("POST /api/flows/{id}/versions", s.handleSaveVersion)
	mux.HandleFunc("PUT /api/flows/{id}/draft", s.handleSaveDraft)
	mux.HandleFunc("GET /api/flows/{id}/draft", s.handleGetDraft)
	return mux
}

func writeEnvelope(w http.ResponseWriter, status int, data any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	out := map[string]any{"success": errMsg == ""}
	if errMsg != "" {
		out["error"] = errMsg
	} else if data != nil {
		out["data"] = data
	}
	_ = json.NewEncoder(w).Encode(out)
}

func ok(w http.ResponseWriter, data any)                 { writeEnvelope(w, http.StatusOK, data, "") }
func fail(w http.ResponseWriter, status int, msg string) { writeEnvelope(w, status, nil, msg) }

func (s *Server) persistLocked() {
	if s.path == "" {
		return
	}
	_ = state.SaveAtomic(s.path, s.st)
}

// userFor resolves the bearer token; s.mu must be held.
func (s *Server) userFor(r *http.Request) *state.User {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	if tok == "" || tok == h {
		return nil
	}
	uid, okTok := s.access[tok]
	if !okTok {
		return nil
	}
	return s.st.Users[uid]
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var user *state.User
	for _, u := range s.st.Users {
		if u.Username == strings.TrimSpace(creds.Username) {
			user = u
			break
		}
	}
	if user == nil || user.Password != creds.Password {
		fail(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if !user.IsActive {
		fail(w, http.StatusForbidden, "account is disabled")
		return
	}

	access := "mxa-" + uuid.NewString()
	refresh := "mxr-" + uuid.NewString()
	s.access[access] = user.ID
	s.st.RefreshTokens[refresh] = user.ID
	s.persistLocked()

	ok(w, map[string]string{"access_token": access, "refresh_token": refresh})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	delete(s.access, tok)
	ok(w, nil)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uid, found := s.st.RefreshTokens[strings.TrimSpace(body.RefreshToken)]
	if !found || s.st.Users[uid] == nil {
		fail(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	// Rotate: the old refresh token is spent.
	delete(s.st.RefreshTokens, strings.TrimSpace(body.RefreshToken))
	access := "mxa-" + uuid.NewString()
	refresh := "mxr-" + uuid.NewString()
	s.access[access] = uid
	s.st.RefreshTokens[refresh] = uid
	s.persistLocked()

	ok(w, map[string]string{"access_token": access, "refresh_token": refresh})
}

func userPayload(u *state.User) map[string]any {
	out := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"created_at": u.CreatedAt.Format(time.RFC3339),
		"is_active":  u.IsActive,
	}
	if u.Email != "" {
		out["email"] = u.Email
	}
	return out
}

func workspacePayload(ws *state.Workspace) map[string]any {
	return map[string]any{
		"id":          ws.ID,
		"name":        ws.Name,
		"description": ws.Description,
		"owner_id":    ws.OwnerID,
		"created_at":  ws.CreatedAt.Format(time.RFC3339),
		"updated_at":  ws.UpdatedAt.Format(time.RFC3339),
	}
}

func flowPayload(f *state.Flow) map[string]any {
	out := map[string]any{
		"id":           f.ID,
		"name":         f.Name,
		"description":  f.Description,
		"workspace_id": f.WorkspaceID,
		"created_at":   f.CreatedAt.Format(time.RFC3339),
		"updated_at":   f.UpdatedAt.Format(time.RFC3339),
	}
	if len(f.FlowData) > 0 {
		out["flow_data"] = f.FlowData
	}
	if f.LatestVersionID != "" {
		out["latest_version_id"] = f.LatestVersionID
	}
	return out
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userFor(r)
	if u == nil {
		fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	ok(w, userPayload(u))
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userFor(r)
	if u == nil {
		fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	items := make([]map[string]any, 0, len(s.st.Workspaces))
	ids := make([]string, 0, len(s.st.Workspaces))
	for id := range s.st.Workspaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		items = append(items, workspacePayload(s.st.Workspaces[id]))
	}
	ok(w, items)
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		fail(w, http.StatusBadRequest, "workspace name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userFor(r)
	if u == nil {
		fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	now := time.Now().UTC()
	ws := &state.Workspace{
		ID:          "ws-" + uuid.NewString(),
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		OwnerID:     u.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.st.Workspaces[ws.ID] = ws
	s.persistLocked()
	ok(w, workspacePayload(ws))
}

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userFor(r) == nil {
		fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	wsID := r.PathValue("id")
	if s.st.Workspaces[wsID] == nil {
		fail(w, http.StatusNotFound, "workspace not found")
		return
	}
	items := make([]map[string]any, 0)
	ids := make([]string, 0)
	for id, f := range s.st.Flows {
		if f.WorkspaceID == wsID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		items = append(items, flowPayload(s.st.Flows[id]))
	}
	ok(w, items)
}

func (s *Server) handleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		WorkspaceID string `json:"workspace_id"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.WorkspaceID = strings.TrimSpace(in.WorkspaceID)
	if in.Name == "" || in.WorkspaceID == "" {
		fail(w, http.StatusBadRequest, "flow name and workspace_id are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userFor(r) == nil {
		fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if s.st.Workspaces[in.WorkspaceID] == nil {
		fail(w, http.StatusNotFound, "workspace not found")
		return
	}
	now := time.Now().UTC()
	f := &state.Flow{
		ID:          "fl-" + uuid.NewString(),
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		WorkspaceID: in.WorkspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.st.Flows[f.ID] = f
	s.persistLocked()
	ok(w, flowPayload(f))
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userFor(r) == nil {
		fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	f := s.st.Flows[r.PathValue("id")]
	if f == nil {
		fail(w, http.StatusNotFound, "flow not found")
		return
	}
	ok(w, flowPayload(f))
}

func (s *Server) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userFor(r) == nil {
		fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	f := s.st.Flows[r.PathValue("id")]
	if f == nil {
		fail(w, http.StatusNotFound, "flow not found")
		return
	}
	versions := s.st.FlowVersions[f.ID]
	if len(versions) == 0 {
		fail(w, http.StatusNotFound, "flow has no committed versions")
		return
	}
	want := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("version")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fail(w, http.StatusBadRequest, "invalid version")
			return
		}
		want = n
	}
	var pick *state.FlowVersion
	if want == 0 {
		pick = &versions[len(versions)-1]
	} else {
		for i := range versions {
			if versions[i].Version == want {
				pick = &versions[i]
				break
			}
		}
	}
	if pick == nil {
		fail(w, http.StatusNotFound, "version not found")
		return
	}
	ok(w, map[string]any{
		"flow_id":    f.ID,
		"version":    pick.Version,
		"definition": pick.Definition,
	})
}

func (s *Server) handleSaveVersion(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Definition json.RawMessage `json:"definition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(in.Definition) == 0 {
		fail(w, http.StatusBadRequest, "definition is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userFor(r) == nil {
		fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	f := s.st.Flows[r.PathValue("id")]
	if f == nil {
		fail(w, http.StatusNotFound, "flow not found")
		return
	}
	now := time.Now().UTC()
	next := len(s.st.FlowVersions[f.ID]) + 1
	v := state.FlowVersion{
		ID:         "fv-" + uuid.NewString(),
		FlowID:     f.ID,
		Version:    next,
		Definition: in.Definition,
		CreatedAt:  now,
	}
	s.st.FlowVersions[f.ID] = append(s.st.FlowVersions[f.ID], v)
	f.LatestVersionID = v.ID
	f.FlowData = in.Definition
	f.UpdatedAt = now
	// Committing a version consumes the draft.
	delete(s.st.Drafts, f.ID)
	s.persistLocked()
	ok(w, nil)
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Definition json.RawMessage `json:"definition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(in.Definition) == 0 {
		fail(w, http.StatusBadRequest, "definition is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userFor(r) == nil {
		fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	f := s.st.Flows[r.PathValue("id")]
	if f == nil {
		fail(w, http.StatusNotFound, "flow not found")
		return
	}
	s.st.Drafts[f.ID] = in.Definition
	f.UpdatedAt = time.Now().UTC()
	s.persistLocked()
	ok(w, nil)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userFor(r) == nil {
		fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	f := s.st.Flows[r.PathValue("id")]
	if f == nil {
		fail(w, http.StatusNotFound, "flow not found")
		return
	}
	draft, found := s.st.Drafts[f.ID]
	if !found {
		fail(w, http.StatusNotFound, "no draft for flow")
		return
	}
	ok(w, map[string]any{
		"flow_id":    f.ID,
		"version":    0,
		"definition": draft,
	})
}
