package viewer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xrview/xrv/internal/session"
	"github.com/xrview/xrv/internal/ui"
)

// renderFrame renders header, panes, and footer.
func (m Model) renderFrame() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	left := m.renderVariablePane()
	right := m.renderRepr()

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.PanelLeft.Width(m.leftWidth()).Height(m.contentHeight()).Render(left),
		right,
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

// renderHeader renders the title line and the dataset tab bar.
func (m Model) renderHeader() string {
	s := m.styles

	title := s.HeaderTitle.Render("XRV")
	stats := s.HeaderStat.Render(fmt.Sprintf("  %d datasets", len(m.tabs)))
	bar := lipgloss.JoinHorizontal(lipgloss.Center, title, stats)

	tabs := make([]string, 0, len(m.tabs))
	for i, t := range m.tabs {
		label := m.stateDot(t.Snapshot().State) + " " + filepath.Base(t.Path)
		if i == m.active {
			tabs = append(tabs, s.TabActive.Render(label))
		} else {
			tabs = append(tabs, s.TabInactive.Render(label))
		}
	}

	divider := s.DimText.Render(strings.Repeat("─", max(0, m.width)))
	return bar + "\n" + strings.Join(tabs, " ") + "\n" + divider
}

// stateDot returns a colored lifecycle marker for a tab label.
func (m Model) stateDot(state session.State) string {
	s := m.styles
	switch state {
	case session.StateReady:
		return s.StatusReady.Render("●")
	case session.StateOpening, session.StateRefreshing:
		return s.StatusBusy.Render("◐")
	case session.StateErrored:
		return s.StatusErrored.Render("✗")
	default:
		return s.DimText.Render("○")
	}
}

// renderVariablePane renders the left panel: variables, then
// coordinates, for the active dataset.
func (m Model) renderVariablePane() string {
	s := m.styles

	snap, ok := m.activeSnapshot()
	if !ok {
		return s.EmptyState.Width(m.leftWidth()).Render("No datasets open")
	}

	switch snap.State {
	case session.StateOpening:
		return s.EmptyState.Width(m.leftWidth()).Render("Opening " + filepath.Base(snap.Path) + "…")
	case session.StateErrored:
		return m.renderErrorPane(snap)
	}

	info := snap.Info
	if info == nil {
		return s.EmptyState.Width(m.leftWidth()).Render("No metadata yet")
	}

	entries := varEntries(info)
	cursor := m.cursor[snap.ID]

	var b strings.Builder
	b.WriteString(s.SectionHeader.Render(fmt.Sprintf("Variables (%d)", info.VariableCount())))
	b.WriteString("\n")

	coordsStarted := false
	for i, e := range entries {
		if e.coord && !coordsStarted {
			coordsStarted = true
			b.WriteString("\n")
			b.WriteString(s.SectionHeader.Render("Coordinates"))
			b.WriteString("\n")
		}
		b.WriteString(m.renderVarRow(e, i == cursor))
		b.WriteString("\n")
	}

	if len(entries) == 0 {
		b.WriteString(s.DimText.Render("  (no variables)"))
		b.WriteString("\n")
	}

	return b.String()
}

// renderVarRow renders a single variable line.
func (m Model) renderVarRow(e varEntry, selected bool) string {
	s := m.styles

	marker := " "
	if selected {
		marker = "*"
	}

	name := e.info.Name
	if e.group != "" && e.group != "/" {
		name = e.group + "/" + e.info.Name
	}

	dims := ""
	if len(e.info.Dimensions) > 0 {
		dims = "(" + strings.Join(e.info.Dimensions, ", ") + ")"
	}

	row := fmt.Sprintf("%s %s  %s %s", marker, name, s.DimText.Render(e.info.Dtype), s.DimText.Render(dims))
	if e.coord {
		row = fmt.Sprintf("%s %s  %s %s", marker, s.CoordText.Render(name), s.DimText.Render(e.info.Dtype), s.DimText.Render(dims))
	}

	if selected {
		return s.SelectedRow.Width(m.leftWidth()).Render(row)
	}
	return s.VarRow.Render(row)
}

// renderErrorPane renders a failed fetch with its structured detail.
func (m Model) renderErrorPane(snap session.Snapshot) string {
	s := m.styles

	var b strings.Builder
	b.WriteString(s.ErrorText.Render("Failed to open dataset"))
	b.WriteString("\n\n")
	if snap.Err != nil {
		b.WriteString(snap.Err.Error())
		b.WriteString("\n")

		var fe *session.FetchError
		if errors.As(snap.Err, &fe) {
			if fe.Detail.Suggestion != "" {
				b.WriteString("\n")
				b.WriteString(s.DimText.Render(fe.Detail.Suggestion))
				b.WriteString("\n")
			}
			if len(fe.Detail.MissingPackages) > 0 {
				b.WriteString("\n")
				b.WriteString(s.DimText.Render("Missing packages: " + strings.Join(fe.Detail.MissingPackages, ", ")))
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("\n")
	b.WriteString(s.FooterKey.Render("r") + s.DimText.Render(" retry"))
	return b.String()
}

// renderRepr renders the right panel with the dataset repr.
func (m Model) renderRepr() string {
	s := m.styles

	snap, ok := m.activeSnapshot()
	if !ok {
		return s.PanelRight.
			Width(m.rightWidth()).
			Height(m.contentHeight()).
			Render(s.DimText.Render("Open a dataset with xrv open <file>"))
	}

	title := s.PreviewTitle.Render(" " + snap.Path + " ")
	body := m.repr.View()

	if snap.Info != nil {
		meta := fmt.Sprintf("%s  %s  %s",
			snap.Info.FormatInfo.DisplayName,
			snap.Info.UsedEngine,
			ui.FormatBytes(snap.Info.FileSize))
		title += "\n" + s.DimText.Render(" "+meta)
	}
	if snap.Warning != "" {
		title += "\n" + s.WarningBanner.Render(" ⚠ "+snap.Warning)
	}

	return s.PanelRight.
		Width(m.rightWidth()).
		Height(m.contentHeight()).
		Render(title + "\n" + body)
}

// renderFooter renders the keybinding help bar and transient status.
func (m Model) renderFooter() string {
	s := m.styles

	divider := s.DimText.Render(strings.Repeat("─", max(0, m.width)))

	if m.showHelp {
		var rows []string
		for _, group := range m.keys.FullHelp() {
			parts := make([]string, 0, len(group))
			for _, b := range group {
				parts = append(parts, s.FooterKey.Render(b.Help().Key)+" "+s.FooterDesc.Render(b.Help().Desc))
			}
			rows = append(rows, strings.Join(parts, "  "))
		}
		return divider + "\n" + s.Footer.Render(strings.Join(rows, "\n"))
	}

	bindings := make([]string, 0, 8)
	for _, b := range m.keys.ShortHelp() {
		bindings = append(bindings, s.FooterKey.Render(b.Help().Key)+" "+s.FooterDesc.Render(b.Help().Desc))
	}

	line := s.Footer.Render(strings.Join(bindings, "  "))
	if m.status != "" {
		line += "\n" + s.WarningBanner.Render(" "+m.status)
	}
	return divider + "\n" + line
}

// renderConfirmOverlay renders a centered close confirmation dialog.
func (m Model) renderConfirmOverlay() string {
	s := m.activeTab()
	if s == nil {
		return ""
	}

	st := m.styles
	content := st.OverlayTitle.Render("Close Dataset") + "\n\n" +
		fmt.Sprintf("Close %s?", st.PreviewTitle.Render(filepath.Base(s.Path))) + "\n\n" +
		st.FooterKey.Render("y") + " confirm  " +
		st.FooterKey.Render("n") + " cancel"

	overlay := st.Overlay.Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
}

// leftWidth returns the width of the left panel.
func (m Model) leftWidth() int {
	return int(float64(m.width) * 0.4)
}

// rightWidth returns the width of the right panel.
func (m Model) rightWidth() int {
	return m.width - m.leftWidth() - 4 // account for borders and padding
}

// contentHeight returns the usable content height.
func (m Model) contentHeight() int {
	return m.height - 6 // header + tabs + footer + padding
}
