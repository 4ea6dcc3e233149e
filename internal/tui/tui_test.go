package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maxdp/maxdp-cli/internal/api"
	"github.com/maxdp/maxdp-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

func testModel(t *testing.T) Model {
	t.Helper()
	dir := t.TempDir()
	client := api.New("http://127.0.0.1:1")
	auth := store.NewAuth(client, store.AuthConfig{
		BaseURL:     "http://127.0.0.1:1",
		AuthPath:    filepath.Join(dir, "auth.json"),
		SessionPath: filepath.Join(dir, "session.json"),
	})
	flows := store.NewWorkspace(client, nil)
	return NewModel(auth, flows)
}

func TestFlowsColumns_FitWithinWidth(t *testing.T) {
	for _, total := range []int{30, 60, 120} {
		cols := flowsColumns(total)
		sum := 0
		for _, c := range cols {
			sum += c.Width + 2
		}
		if sum > total {
			t.Fatalf("columns overflow width %d: sum=%d", total, sum)
		}
	}
}

func TestFlowsColumns_NarrowDropsUpdated(t *testing.T) {
	cols := flowsColumns(30)
	for _, c := range cols {
		if c.Title == "updated" {
			t.Fatal("narrow layout should drop the updated column")
		}
	}
	cols = flowsColumns(120)
	found := false
	for _, c := range cols {
		if c.Title == "updated" {
			found = true
		}
	}
	if !found {
		t.Fatal("wide layout should include the updated column")
	}
}

func TestFlowRows_StatusDerivedFromLatestVersion(t *testing.T) {
	now := time.Now()
	flows := []api.Flow{
		{ID: "f1", Name: "Draft Flow", UpdatedAt: now},
		{ID: "f2", Name: "Saved Flow", LatestVersionID: "v1", UpdatedAt: now},
	}
	rows := flowRows(flows, flowsColumns(80))
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !strings.Contains(rows[0][1], "draft") {
		t.Fatalf("expected draft tag, got %q", rows[0][1])
	}
	if !strings.Contains(rows[1][1], "saved") {
		t.Fatalf("expected saved tag, got %q", rows[1][1])
	}
}

func TestWorkspaceItem_DescriptionFallsBackToID(t *testing.T) {
	item := wsItem{ws: api.Workspace{ID: "w1", Name: "Analytics"}}
	if item.Title() != "Analytics" || item.Description() != "w1" {
		t.Fatalf("unexpected item rendering: %q / %q", item.Title(), item.Description())
	}
	item = wsItem{ws: api.Workspace{ID: "w1", Name: "Analytics", Description: "Team metrics"}}
	if item.Description() != "Team metrics" {
		t.Fatalf("expected description, got %q", item.Description())
	}
}

func TestModel_UnauthenticatedSnapshotOpensLoginForm(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(authMsg{snap: store.AuthSnapshot{Authenticated: false}})
	got := next.(Model)
	if got.form == nil || got.formKind != formLogin {
		t.Fatal("expected login form to open")
	}

	// Login form cannot be dismissed with esc.
	next, _ = got.Update(tea.KeyMsg{Type: tea.KeyEsc})
	got = next.(Model)
	if got.form == nil {
		t.Fatal("login form should stay open on esc")
	}
}

func TestModel_FlowsSnapshotFillsTable(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)

	ws := api.Workspace{ID: "w1", Name: "Analytics"}
	snap := store.WorkspaceSnapshot{
		Workspaces: []api.Workspace{ws},
		Selected:   &ws,
		Flows: []api.Flow{
			{ID: "f1", Name: "Daily", LatestVersionID: "v1", UpdatedAt: time.Now()},
		},
	}
	next, _ = m.Update(flowsMsg{snap: snap})
	m = next.(Model)

	if len(m.sidebar.Items()) != 1 {
		t.Fatalf("expected 1 sidebar item, got %d", len(m.sidebar.Items()))
	}
	if len(m.flowsTable.Rows()) != 1 {
		t.Fatalf("expected 1 table row, got %d", len(m.flowsTable.Rows()))
	}
	view := m.View()
	if !strings.Contains(view, "Analytics") {
		t.Fatal("view should show the selected workspace name")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "boom", "later"); got != "boom" {
		t.Fatalf("got %q", got)
	}
	if got := firstNonEmpty("", " "); got != "" {
		t.Fatalf("got %q", got)
	}
}
