package store

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/maxdp/maxdp-cli/internal/api"
)

// FlowAPI is the slice of the API client the workspace/flow store drives.
type FlowAPI interface {
	Workspaces(ctx context.Context) ([]api.Workspace, error)
	CreateWorkspace(ctx context.Context, in api.CreateWorkspaceInput) (api.Workspace, error)
	Flows(ctx context.Context, workspaceID string) ([]api.Flow, error)
	CreateFlow(ctx context.Context, in api.CreateFlowInput) (api.Flow, error)
	Flow(ctx context.Context, id string) (api.Flow, error)
	FlowDefinition(ctx context.Context, id string, version int) (api.FlowDefinition, error)
	SaveFlowVersion(ctx context.Context, id string, def json.RawMessage) error
	SaveDraft(ctx context.Context, id string, def json.RawMessage) error
	Draft(ctx context.Context, id string) (api.FlowDefinition, error)
}

// WorkspaceSnapshot is the dashboard state delivered to subscribers. Flows
// always belong to the selected workspace; switching selection empties them
// before any refetch.
type WorkspaceSnapshot struct {
	Workspaces   []api.Workspace
	Flows        []api.Flow
	Selected     *api.Workspace
	SelectedFlow *api.Flow
	Loading      bool
	Err          string
}

type WorkspaceStore struct {
	client FlowAPI
	logger *log.Logger

	mu    sync.Mutex
	state WorkspaceSnapshot
	// flowGen fences flow fetches: a response started under an older
	// generation is stale and dropped, so switching workspaces while a fetch
	// is in flight can never populate the new selection with old flows.
	flowGen uint64
	bus     pubsub[WorkspaceSnapshot]
}

func NewWorkspace(client FlowAPI, logger *log.Logger) *WorkspaceStore {
	return &WorkspaceStore{client: client, logger: ensureLogger(logger)}
}

func (s *WorkspaceStore) Subscribe(fn func(WorkspaceSnapshot)) (cancel func()) {
	return s.bus.subscribe(fn)
}

func (s *WorkspaceStore) Snapshot() WorkspaceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *WorkspaceStore) update(mutate func(*WorkspaceSnapshot)) {
	s.mu.Lock()
	mutate(&s.state)
	snap := s.state
	s.mu.Unlock()
	s.bus.publish(snap)
}

func (s *WorkspaceStore) begin() {
	s.update(func(st *WorkspaceSnapshot) { st.Loading = true; st.Err = "" })
}

func (s *WorkspaceStore) finish(err error) {
	s.update(func(st *WorkspaceSnapshot) {
		st.Loading = false
		if err != nil {
			st.Err = errText(err)
		}
	})
}

// FetchWorkspaces replaces the workspace list with the server's; it never
// appends to what is already there.
func (s *WorkspaceStore) FetchWorkspaces(ctx context.Context) {
	s.begin()
	items, err := s.client.Workspaces(ctx)
	if err != nil {
		s.finish(err)
		return
	}
	s.update(func(st *WorkspaceSnapshot) {
		st.Workspaces = items
		st.Loading = false
	})
}

// CreateWorkspace appends the created entity to a fresh copy of the list on
// success. On failure the list is untouched.
func (s *WorkspaceStore) CreateWorkspace(ctx context.Context, in api.CreateWorkspaceInput) bool {
	s.begin()
	ws, err := s.client.CreateWorkspace(ctx, in)
	if err != nil {
		s.finish(err)
		return false
	}
	s.update(func(st *WorkspaceSnapshot) {
		next := make([]api.Workspace, 0, len(st.Workspaces)+1)
		next = append(next, st.Workspaces...)
		st.Workspaces = append(next, ws)
		st.Loading = false
	})
	return true
}

// SelectWorkspace is a pure transition. The flow list and flow selection are
// always cleared: flows from the previous workspace must never stay visible.
func (s *WorkspaceStore) SelectWorkspace(ws *api.Workspace) {
	s.mu.Lock()
	s.flowGen++
	s.state.Selected = ws
	s.state.Flows = []api.Flow{}
	s.state.SelectedFlow = nil
	snap := s.state
	s.mu.Unlock()
	s.bus.publish(snap)
}

// FetchFlows replaces the flow list with the server's. A response that lands
// after a newer selection or fetch is dropped.
func (s *WorkspaceStore) FetchFlows(ctx context.Context, workspaceID string) {
	s.mu.Lock()
	s.flowGen++
	gen := s.flowGen
	s.state.Loading = true
	s.state.Err = ""
	snap := s.state
	s.mu.Unlock()
	s.bus.publish(snap)

	items, err := s.client.Flows(ctx, workspaceID)

	s.mu.Lock()
	if gen != s.flowGen {
		// Stale: the user moved on while this fetch was in flight.
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.state.Loading = false
		s.state.Err = errText(err)
	} else {
		if items == nil {
			items = []api.Flow{}
		}
		s.state.Flows = items
		s.state.Loading = false
	}
	snap = s.state
	s.mu.Unlock()
	s.bus.publish(snap)
}

// CreateFlow appends to the flow list on success and returns the created
// entity; a nil prior list is treated as empty.
func (s *WorkspaceStore) CreateFlow(ctx context.Context, in api.CreateFlowInput) *api.Flow {
	s.begin()
	flow, err := s.client.CreateFlow(ctx, in)
	if err != nil {
		s.finish(err)
		return nil
	}
	s.update(func(st *WorkspaceSnapshot) {
		next := make([]api.Flow, 0, len(st.Flows)+1)
		next = append(next, st.Flows...)
		st.Flows = append(next, flow)
		st.Loading = false
	})
	return &flow
}

func (s *WorkspaceStore) SelectFlow(flow *api.Flow) {
	s.update(func(st *WorkspaceSnapshot) { st.SelectedFlow = flow })
}

// GetFlow fetches one flow without touching the stored lists.
func (s *WorkspaceStore) GetFlow(ctx context.Context, id string) *api.Flow {
	s.begin()
	flow, err := s.client.Flow(ctx, id)
	if err != nil {
		s.finish(err)
		return nil
	}
	s.finish(nil)
	return &flow
}

// GetFlowDefinition fetches one committed definition (version 0 = latest)
// without touching the stored lists.
func (s *WorkspaceStore) GetFlowDefinition(ctx context.Context, id string, version int) *api.FlowDefinition {
	s.begin()
	def, err := s.client.FlowDefinition(ctx, id, version)
	if err != nil {
		s.finish(err)
		return nil
	}
	s.finish(nil)
	return &def
}

// SaveFlowVersion commits the definition as a new version.
func (s *WorkspaceStore) SaveFlowVersion(ctx context.Context, id string, def json.RawMessage) bool {
	s.begin()
	err := s.client.SaveFlowVersion(ctx, id, def)
	s.finish(err)
	return err == nil
}

// SaveDraft persists an uncommitted draft. Autosave runs behind the user's
// back, so failures are logged and reduced to the return value; the shared
// error field stays clean.
func (s *WorkspaceStore) SaveDraft(ctx context.Context, id string, def json.RawMessage) bool {
	if err := s.client.SaveDraft(ctx, id, def); err != nil {
		s.logger.Printf("flows: draft save failed for %s: %v", id, err)
		return false
	}
	return true
}

// GetDraft retrieves the uncommitted draft, nil when absent or on failure.
// Like SaveDraft it never touches the shared error field.
func (s *WorkspaceStore) GetDraft(ctx context.Context, id string) *api.FlowDefinition {
	def, err := s.client.Draft(ctx, id)
	if err != nil {
		s.logger.Printf("flows: draft load failed for %s: %v", id, err)
		return nil
	}
	return &def
}

func (s *WorkspaceStore) ClearError() {
	s.update(func(st *WorkspaceSnapshot) { st.Err = "" })
}

// Reset returns the store to its initial state.
func (s *WorkspaceStore) Reset() {
	s.mu.Lock()
	s.flowGen++
	s.state = WorkspaceSnapshot{}
	snap := s.state
	s.mu.Unlock()
	s.bus.publish(snap)
}
