// Package tui is the interactive dashboard: a workspace sidebar, a flows
// table, and creation forms, driven by the observable stores. The stores own
// all remote state; the model only renders snapshots and dispatches actions.
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/maxdp/maxdp-cli/internal/api"
	"github.com/maxdp/maxdp-cli/internal/buildinfo"
	"github.com/maxdp/maxdp-cli/internal/store"
	"github.com/maxdp/maxdp-cli/internal/updatecheck"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type Config struct {
	Client  *api.Client
	BaseURL string
	Logger  *log.Logger
}

type paneFocus int

const (
	focusSidebar paneFocus = iota
	focusFlows
)

type formKind int

const (
	formNone formKind = iota
	formLogin
	formNewWorkspace
	formNewFlow
)

type authMsg struct{ snap store.AuthSnapshot }

type flowsMsg struct{ snap store.WorkspaceSnapshot }

type updateMsg struct{ notice *updatecheck.Notice }

type definitionMsg struct {
	flowID string
	text   string
}

type Model struct {
	auth  *store.AuthStore
	flows *store.WorkspaceStore

	authSnap store.AuthSnapshot
	wsSnap   store.WorkspaceSnapshot

	// bootstrapped flips once the first authenticated snapshot has triggered
	// the initial workspace fetch.
	bootstrapped bool

	width  int
	height int
	focus  paneFocus

	sidebar    list.Model
	flowsTable table.Model
	detail     viewport.Model
	detailText string

	form     *huh.Form
	formKind formKind
	// Form inputs bind to pointers, and the model is copied on every update,
	// so the bound values live behind a stable pointer.
	formVals *formValues

	notice *updatecheck.Notice

	help help.Model
	keys keyMap
}

func Run(cfg Config) error {
	auth := store.NewAuth(cfg.Client, store.AuthConfig{BaseURL: cfg.BaseURL, Logger: cfg.Logger})
	flows := store.NewWorkspace(cfg.Client, cfg.Logger)

	m := NewModel(auth, flows)
	p := tea.NewProgram(m, tea.WithAltScreen())

	cancelAuth := auth.Subscribe(func(snap store.AuthSnapshot) { p.Send(authMsg{snap}) })
	defer cancelAuth()
	cancelFlows := flows.Subscribe(func(snap store.WorkspaceSnapshot) { p.Send(flowsMsg{snap}) })
	defer cancelFlows()

	_, err := p.Run()
	return err
}

func NewModel(auth *store.AuthStore, flows *store.WorkspaceStore) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles = sidebarItemStyles()
	sidebar := list.New([]list.Item{}, delegate, 0, 0)
	sidebar.Title = "Workspaces"
	sidebar.Styles = sidebarListStyles()
	sidebar.SetShowHelp(false)
	sidebar.SetFilteringEnabled(false)
	sidebar.SetShowStatusBar(false)
	sidebar.DisableQuitKeybindings()

	flowsTable := table.New(
		table.WithColumns(flowsColumns(60)),
		table.WithRows(nil),
	)
	flowsTable.SetStyles(flowsTableStyles())

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().AlignVertical(lipgloss.Top).Align(lipgloss.Left)

	return Model{
		auth:       auth,
		flows:      flows,
		focus:      focusSidebar,
		sidebar:    sidebar,
		flowsTable: flowsTable,
		detail:     vp,
		help:       help.New(),
		keys:       defaultKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	auth := m.auth
	return tea.Batch(
		func() tea.Msg {
			auth.Initialize(context.Background())
			return nil
		},
		checkUpdateCmd(),
	)
}

func checkUpdateCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		notice, err := updatecheck.CheckNow(ctx, buildinfo.DisplayVersion(), 24*time.Hour)
		if err != nil {
			return nil
		}
		return updateMsg{notice: notice}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.syncFlowsTable()
		return m, nil

	case authMsg:
		return m.onAuthSnapshot(msg.snap)

	case flowsMsg:
		m.wsSnap = msg.snap
		m.syncSidebar()
		m.syncFlowsTable()
		return m, nil

	case updateMsg:
		m.notice = msg.notice
		return m, nil

	case definitionMsg:
		if sel := m.wsSnap.SelectedFlow; sel != nil && sel.ID == msg.flowID {
			m.detailText = msg.text
			m.detail.SetContent(msg.text)
			m.detail.GotoTop()
		}
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		return m.onKey(key)
	}
	return m, nil
}

func (m Model) onAuthSnapshot(snap store.AuthSnapshot) (tea.Model, tea.Cmd) {
	wasAuthed := m.authSnap.Authenticated
	m.authSnap = snap

	if !snap.Authenticated {
		m.bootstrapped = false
		if m.form == nil && !snap.Loading {
			return m.openLoginForm()
		}
		return m, nil
	}

	if (!wasAuthed || !m.bootstrapped) && !snap.Loading {
		m.bootstrapped = true
		if m.formKind == formLogin {
			m.closeForm()
		}
		flows := m.flows
		return m, func() tea.Msg {
			flows.FetchWorkspaces(context.Background())
			return nil
		}
	}
	return m, nil
}

func (m Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys
	switch {
	case matches(msg, keys.Quit):
		return m, tea.Quit

	case matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case matches(msg, keys.Dismiss):
		m.auth.ClearError()
		m.flows.ClearError()
		return m, nil

	case matches(msg, keys.Tab):
		if m.focus == focusSidebar {
			m.focus = focusFlows
			m.flowsTable.Focus()
		} else {
			m.focus = focusSidebar
			m.flowsTable.Blur()
		}
		return m, nil

	case matches(msg, keys.Refresh):
		return m, m.refreshCmd()

	case matches(msg, keys.NewWorkspace):
		if m.authSnap.Authenticated {
			return m.openWorkspaceForm()
		}
		return m, nil

	case matches(msg, keys.NewFlow):
		if m.authSnap.Authenticated && m.wsSnap.Selected != nil {
			return m.openFlowForm()
		}
		return m, nil

	case matches(msg, keys.Logout):
		auth, flows := m.auth, m.flows
		return m, func() tea.Msg {
			auth.Logout(context.Background())
			flows.Reset()
			return nil
		}

	case matches(msg, keys.Enter):
		if m.focus == focusSidebar {
			return m.selectHighlightedWorkspace()
		}
		return m.selectHighlightedFlow()
	}

	var cmd tea.Cmd
	if m.focus == focusSidebar {
		m.sidebar, cmd = m.sidebar.Update(msg)
	} else {
		m.flowsTable, cmd = m.flowsTable.Update(msg)
	}
	return m, cmd
}

func (m Model) refreshCmd() tea.Cmd {
	flows := m.flows
	selected := m.wsSnap.Selected
	return func() tea.Msg {
		flows.FetchWorkspaces(context.Background())
		if selected != nil {
			flows.FetchFlows(context.Background(), selected.ID)
		}
		return nil
	}
}

func (m Model) selectHighlightedWorkspace() (tea.Model, tea.Cmd) {
	item, ok := m.sidebar.SelectedItem().(wsItem)
	if !ok {
		return m, nil
	}
	ws := item.ws
	flows := m.flows
	m.detailText = ""
	m.detail.SetContent("")
	m.focus = focusFlows
	m.flowsTable.Focus()
	return m, func() tea.Msg {
		flows.SelectWorkspace(&ws)
		flows.FetchFlows(context.Background(), ws.ID)
		return nil
	}
}

func (m Model) selectHighlightedFlow() (tea.Model, tea.Cmd) {
	idx := m.flowsTable.Cursor()
	if idx < 0 || idx >= len(m.wsSnap.Flows) {
		return m, nil
	}
	flow := m.wsSnap.Flows[idx]
	flows := m.flows
	m.detailText = "Loading " + flow.Name + "…"
	m.detail.SetContent(m.detailText)
	return m, func() tea.Msg {
		flows.SelectFlow(&flow)
		return loadDefinitionMsg(flows, flow)
	}
}

// loadDefinitionMsg renders the detail pane for one flow: the committed
// definition for saved flows, the working draft for draft flows.
func loadDefinitionMsg(flows *store.WorkspaceStore, flow api.Flow) tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s]\n", flow.Name, flow.Status())
	if flow.Description != "" {
		fmt.Fprintf(&b, "%s\n", flow.Description)
	}
	fmt.Fprintf(&b, "id: %s\nupdated: %s\n\n", flow.ID, flow.UpdatedAt.Format(time.RFC3339))

	var payload json.RawMessage
	if flow.Status() == api.FlowStatusSaved {
		if def := flows.GetFlowDefinition(ctx, flow.ID, 0); def != nil {
			fmt.Fprintf(&b, "definition (version %d):\n", def.Version)
			payload = def.Definition
		}
	} else {
		if def := flows.GetDraft(ctx, flow.ID); def != nil {
			b.WriteString("draft definition:\n")
			payload = def.Definition
		} else {
			b.WriteString("no draft saved yet\n")
		}
	}
	if len(payload) > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, payload, "", "  "); err == nil {
			b.WriteString(pretty.String())
		} else {
			b.Write(payload)
		}
	}
	return definitionMsg{flowID: flow.ID, text: b.String()}
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			// Login cannot be dismissed; the dashboard is useless without it.
			if m.formKind != formLogin {
				m.closeForm()
				return m, nil
			}
		}
	}

	next, cmd := m.form.Update(msg)
	if form, ok := next.(*huh.Form); ok {
		m.form = form
	}

	if m.form.State == huh.StateCompleted {
		kind, vals := m.formKind, m.formVals
		m.closeForm()
		return m, m.submitForm(kind, vals)
	}
	if m.form != nil && m.form.State == huh.StateAborted {
		if m.formKind == formLogin {
			return m, tea.Quit
		}
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

type formValues struct {
	username    string
	password    string
	name        string
	description string
}

func (m *Model) submitForm(kind formKind, vals *formValues) tea.Cmd {
	auth, flows := m.auth, m.flows
	if vals == nil {
		return nil
	}
	switch kind {
	case formLogin:
		creds := api.Credentials{
			Username: strings.TrimSpace(vals.username),
			Password: vals.password,
		}
		vals.password = ""
		return func() tea.Msg {
			auth.Login(context.Background(), creds)
			return nil
		}

	case formNewWorkspace:
		in := api.CreateWorkspaceInput{
			Name:        strings.TrimSpace(vals.name),
			Description: strings.TrimSpace(vals.description),
		}
		return func() tea.Msg {
			flows.CreateWorkspace(context.Background(), in)
			return nil
		}

	case formNewFlow:
		selected := m.wsSnap.Selected
		if selected == nil {
			return nil
		}
		in := api.CreateFlowInput{
			Name:        strings.TrimSpace(vals.name),
			WorkspaceID: selected.ID,
			Description: strings.TrimSpace(vals.description),
		}
		return func() tea.Msg {
			flows.CreateFlow(context.Background(), in)
			return nil
		}
	}
	return nil
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func (m Model) openLoginForm() (tea.Model, tea.Cmd) {
	vals := &formValues{}
	m.formVals = vals
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&vals.username).
				Validate(requireValue("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&vals.password).
				Validate(requireValue("password")),
		).Title("Sign in to MaxDP"),
	)
	m.formKind = formLogin
	return m, m.form.Init()
}

func (m Model) openWorkspaceForm() (tea.Model, tea.Cmd) {
	vals := &formValues{}
	m.formVals = vals
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&vals.name).
				Validate(requireValue("name")),
			huh.NewInput().
				Title("Description").
				Value(&vals.description),
		).Title("New workspace"),
	)
	m.formKind = formNewWorkspace
	return m, m.form.Init()
}

func (m Model) openFlowForm() (tea.Model, tea.Cmd) {
	vals := &formValues{}
	m.formVals = vals
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&vals.name).
				Validate(requireValue("name")),
			huh.NewInput().
				Title("Description").
				Value(&vals.description),
		).Title("New flow"),
	)
	m.formKind = formNewFlow
	return m, m.form.Init()
}

func (m *Model) closeForm() {
	m.form = nil
	m.formKind = formNone
	m.formVals = nil
}
