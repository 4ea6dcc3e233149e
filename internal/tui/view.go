package tui

import (
	"fmt"
	"strings"

	"github.com/maxdp/maxdp-cli/internal/api"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func matches(msg tea.KeyMsg, b key.Binding) bool {
	return key.Matches(msg, b)
}

const (
	sidebarMinWidth = 24
	sidebarMaxWidth = 36
)

func (m *Model) layout() {
	if m.width < 40 {
		m.width = 40
	}
	if m.height < 10 {
		m.height = 10
	}

	sidebarW := m.width / 4
	if sidebarW < sidebarMinWidth {
		sidebarW = sidebarMinWidth
	}
	if sidebarW > sidebarMaxWidth {
		sidebarW = sidebarMaxWidth
	}

	// header + status + footer
	bodyH := m.height - 3
	if bodyH < 6 {
		bodyH = 6
	}

	// Panel borders eat 2 columns and 2 rows; padding eats 2 more columns.
	sidebarInnerW := sidebarW - 4
	rightW := m.width - sidebarW
	rightInnerW := rightW - 4
	if rightInnerW < 20 {
		rightInnerW = 20
	}
	innerH := bodyH - 2

	m.sidebar.SetSize(sidebarInnerW, innerH)

	tableH := innerH / 2
	if tableH < 4 {
		tableH = 4
	}
	detailH := innerH - tableH - 2
	if detailH < 3 {
		detailH = 3
	}

	m.flowsTable.SetWidth(rightInnerW)
	m.flowsTable.SetHeight(tableH)
	m.flowsTable.SetColumns(flowsColumns(rightInnerW))
	m.detail.Width = rightInnerW
	m.detail.Height = detailH
}

type wsItem struct {
	ws api.Workspace
}

func (i wsItem) Title() string { return i.ws.Name }

func (i wsItem) Description() string {
	if i.ws.Description != "" {
		return i.ws.Description
	}
	return i.ws.ID
}

func (i wsItem) FilterValue() string { return i.ws.Name }

func (m *Model) syncSidebar() {
	items := make([]list.Item, 0, len(m.wsSnap.Workspaces))
	for _, ws := range m.wsSnap.Workspaces {
		items = append(items, wsItem{ws: ws})
	}
	m.sidebar.SetItems(items)
}

func flowsColumns(total int) []table.Column {
	if total < 30 {
		total = 30
	}
	const padPerCol = 2
	statusW := 7
	updatedW := 16
	cols := 3
	nameW := total - padPerCol*cols - statusW - updatedW
	if nameW < 14 {
		updatedW = 0
		cols = 2
		nameW = total - padPerCol*cols - statusW
	}
	out := []table.Column{
		{Title: "name", Width: nameW},
		{Title: "status", Width: statusW},
	}
	if updatedW > 0 {
		out = append(out, table.Column{Title: "updated", Width: updatedW})
	}
	return out
}

func flowRows(flows []api.Flow, cols []table.Column) []table.Row {
	rows := make([]table.Row, 0, len(flows))
	withUpdated := len(cols) >= 3
	for _, f := range flows {
		row := table.Row{f.Name, statusTag(f.Status())}
		if withUpdated {
			row = append(row, f.UpdatedAt.Format("2006-01-02 15:04"))
		}
		rows = append(rows, row)
	}
	return rows
}

func (m *Model) syncFlowsTable() {
	cols := m.flowsTable.Columns()
	if len(cols) == 0 {
		cols = flowsColumns(60)
	}
	m.flowsTable.SetRows(flowRows(m.wsSnap.Flows, cols))
	if m.flowsTable.Cursor() >= len(m.wsSnap.Flows) {
		m.flowsTable.SetCursor(0)
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading…"
	}

	header := m.renderHeader()
	status := m.renderStatus()
	bodyH := m.height - 3
	if bodyH < 6 {
		bodyH = 6
	}

	var body string
	if m.form != nil {
		body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, m.form.View())
	} else {
		body = m.renderDashboard(bodyH)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

func (m Model) renderHeader() string {
	title := "MaxDP"
	if u := m.authSnap.User; u != nil {
		title += "  ·  " + u.Username
	}
	if m.notice != nil && m.notice.Available {
		title += noticeStyle().Render(fmt.Sprintf("  update available: %s", m.notice.LatestVersion))
	}
	return headerStyle().Width(m.width).Render(title)
}

func (m Model) renderStatus() string {
	if msg := firstNonEmpty(m.authSnap.Err, m.wsSnap.Err); msg != "" {
		return errorStyle().Width(m.width).Render("✗ " + msg + "  (esc to dismiss)")
	}
	if m.authSnap.Loading || m.wsSnap.Loading {
		return noticeStyle().Width(m.width).Render("… loading")
	}
	return footerStyle().Width(m.width).Render(m.help.View(m.keys))
}

func (m Model) renderDashboard(bodyH int) string {
	sidebarW := m.width / 4
	if sidebarW < sidebarMinWidth {
		sidebarW = sidebarMinWidth
	}
	if sidebarW > sidebarMaxWidth {
		sidebarW = sidebarMaxWidth
	}
	rightW := m.width - sidebarW

	sidebar := panelStyle(m.focus == focusSidebar).
		Width(sidebarW - 2).
		Height(bodyH - 2).
		Render(m.sidebar.View())

	tableView := panelStyle(m.focus == focusFlows).
		Width(rightW - 2).
		Render(m.renderFlowsPane())
	detailView := panelStyle(false).
		Width(rightW - 2).
		Render(m.detail.View())
	right := lipgloss.JoinVertical(lipgloss.Left, tableView, detailView)

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, right)
}

func (m Model) renderFlowsPane() string {
	if m.wsSnap.Selected == nil {
		return footerStyle().Render("Select a workspace to see its flows.")
	}
	var b strings.Builder
	b.WriteString(headerStyle().Render(m.wsSnap.Selected.Name))
	b.WriteString("\n")
	if len(m.wsSnap.Flows) == 0 && !m.wsSnap.Loading {
		b.WriteString(footerStyle().Render("No flows yet. Press n to create one."))
		return b.String()
	}
	b.WriteString(m.flowsTable.View())
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
