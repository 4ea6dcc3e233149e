package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Colors follow the MaxDP web dashboard palette, adapted to stay readable on
// both light and dark terminal backgrounds.
var (
	textColor   = lipgloss.AdaptiveColor{Light: "#1f2933", Dark: "#f5f7fa"}
	mutedColor  = lipgloss.AdaptiveColor{Light: "#7b8794", Dark: "#cbd2d9"}
	borderColor = lipgloss.AdaptiveColor{Light: "#7b8794", Dark: "#cbd2d9"}
	accentColor = lipgloss.AdaptiveColor{Light: "#2f54c4", Dark: "#7497f7"}
	dangerColor = lipgloss.AdaptiveColor{Light: "#a32138", Dark: "#e66a6a"}
	draftColor  = lipgloss.AdaptiveColor{Light: "#8a6d1a", Dark: "#e3c35d"}
	savedColor  = lipgloss.AdaptiveColor{Light: "#1e7b4d", Dark: "#63c995"}
)

func headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(textColor).Padding(0, 1)
}

func footerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1)
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(dangerColor).Padding(0, 1)
}

func noticeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(accentColor).Padding(0, 1)
}

func panelStyle(focused bool) lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1)
	if focused {
		s = s.BorderForeground(accentColor)
	}
	return s
}

func statusTag(status string) string {
	switch status {
	case "draft":
		return lipgloss.NewStyle().Foreground(draftColor).Render("draft")
	case "saved":
		return lipgloss.NewStyle().Foreground(savedColor).Render("saved")
	default:
		return status
	}
}

func sidebarListStyles() list.Styles {
	s := list.DefaultStyles()
	s.TitleBar = lipgloss.NewStyle().Padding(0, 0, 1, 0)
	s.Title = lipgloss.NewStyle().Bold(true).Foreground(textColor).UnsetBackground()
	s.StatusBar = lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 0, 1, 0)
	s.StatusEmpty = lipgloss.NewStyle().Foreground(mutedColor)
	s.NoItems = lipgloss.NewStyle().Foreground(mutedColor)
	s.PaginationStyle = lipgloss.NewStyle().PaddingLeft(0)
	s.HelpStyle = lipgloss.NewStyle().Padding(1, 0, 0, 0).Foreground(mutedColor)
	s.ActivePaginationDot = lipgloss.NewStyle().Foreground(accentColor).SetString("•")
	s.InactivePaginationDot = lipgloss.NewStyle().Foreground(mutedColor).SetString("•")
	s.DividerDot = lipgloss.NewStyle().Foreground(mutedColor).SetString(" • ")
	return s
}

func sidebarItemStyles() list.DefaultItemStyles {
	s := list.NewDefaultItemStyles()

	s.NormalTitle = lipgloss.NewStyle().
		Foreground(textColor).
		Padding(0, 0, 0, 2)
	s.NormalDesc = lipgloss.NewStyle().
		Foreground(mutedColor).
		Padding(0, 0, 0, 2)

	s.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(accentColor).
		Foreground(textColor).
		Bold(true).
		Padding(0, 0, 0, 1)
	s.SelectedDesc = s.SelectedTitle.Copy().
		Bold(false).
		Foreground(mutedColor)

	s.DimmedTitle = lipgloss.NewStyle().
		Foreground(mutedColor).
		Padding(0, 0, 0, 2)
	s.DimmedDesc = lipgloss.NewStyle().
		Foreground(borderColor).
		Padding(0, 0, 0, 2)

	return s
}

func flowsTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		BorderBottom(true).
		Bold(true).
		Foreground(textColor).
		Padding(0, 1)
	s.Cell = s.Cell.Padding(0, 1)
	s.Selected = s.Selected.
		Foreground(textColor).
		Bold(true).
		UnsetBackground()
	return s
}
