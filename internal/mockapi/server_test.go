package mockapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/maxdp/maxdp-cli/internal/api"
	"github.com/maxdp/maxdp-cli/internal/state"
)

func newTestClient(t *testing.T) (*api.Client, func()) {
	t.Helper()
	srv := httptest.NewServer(New(state.SeedDefault(), "").Handler())
	return api.New(srv.URL), srv.Close
}

func login(t *testing.T, c *api.Client) api.TokenPair {
	t.Helper()
	pair, err := c.Login(context.Background(), api.Credentials{Username: "dev", Password: "maxdp"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	c.SetToken(pair.AccessToken)
	return pair
}

func TestLogin_BadPassword(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	_, err := c.Login(context.Background(), api.Credentials{Username: "dev", Password: "wrong"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !api.IsAPIError(err) {
		t.Fatalf("expected api error, got %T", err)
	}
	if err.Error() != "invalid username or password" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWorkspaceAndFlowLifecycle(t *testing.T) {
	c, done := newTestClient(t)
	defer done()
	login(t, c)

	ctx := context.Background()

	user, err := c.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user.Username != "dev" {
		t.Fatalf("unexpected user %+v", user)
	}

	before, err := c.Workspaces(ctx)
	if err != nil {
		t.Fatalf("Workspaces: %v", err)
	}

	ws, err := c.CreateWorkspace(ctx, api.CreateWorkspaceInput{Name: "Research", Description: "scratch"})
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	if ws.ID == "" || ws.OwnerID != user.ID {
		t.Fatalf("unexpected workspace %+v", ws)
	}

	after, err := c.Workspaces(ctx)
	if err != nil {
		t.Fatalf("Workspaces: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d workspaces, got %d", len(before)+1, len(after))
	}

	flow, err := c.CreateFlow(ctx, api.CreateFlowInput{Name: "Scratch Flow", WorkspaceID: ws.ID})
	if err != nil {
		t.Fatalf("CreateFlow: %v", err)
	}
	if flow.Status() != api.FlowStatusDraft {
		t.Fatalf("new flow should be draft, got %q", flow.Status())
	}

	def := json.RawMessage(`{"nodes":[{"id":"a"}],"edges":[]}`)
	if err := c.SaveDraft(ctx, flow.ID, def); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	draft, err := c.Draft(ctx, flow.ID)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if draft.Version != 0 || string(draft.Definition) != string(def) {
		t.Fatalf("unexpected draft %+v", draft)
	}

	if err := c.SaveFlowVersion(ctx, flow.ID, def); err != nil {
		t.Fatalf("SaveFlowVersion: %v", err)
	}
	got, err := c.Flow(ctx, flow.ID)
	if err != nil {
		t.Fatalf("Flow: %v", err)
	}
	if got.Status() != api.FlowStatusSaved {
		t.Fatalf("committed flow should be saved, got %q", got.Status())
	}

	// The draft was consumed by the commit.
	if _, err := c.Draft(ctx, flow.ID); err == nil {
		t.Fatal("expected draft to be gone after commit")
	}

	gotDef, err := c.FlowDefinition(ctx, flow.ID, 0)
	if err != nil {
		t.Fatalf("FlowDefinition: %v", err)
	}
	if gotDef.Version != 1 {
		t.Fatalf("expected version 1, got %d", gotDef.Version)
	}
}

func TestRefresh_RotatesPair(t *testing.T) {
	c, done := newTestClient(t)
	defer done()
	pair := login(t, c)

	next, err := c.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.AccessToken == pair.AccessToken || next.RefreshToken == pair.RefreshToken {
		t.Fatal("expected rotated tokens")
	}

	// Old refresh token is spent.
	if _, err := c.Refresh(context.Background(), pair.RefreshToken); err == nil {
		t.Fatal("expected spent refresh token to fail")
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	if _, err := c.Workspaces(context.Background()); err == nil {
		t.Fatal("expected unauthenticated request to fail")
	}
}

func TestLogout_InvalidatesAccessToken(t *testing.T) {
	c, done := newTestClient(t)
	defer done()
	login(t, c)

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := c.CurrentUser(context.Background()); err == nil {
		t.Fatal("expected token invalidated after logout")
	}
}
