package viewer

import "github.com/charmbracelet/lipgloss"

// Color constants matching xrv's ui/colors.go palette.
const (
	colorCyan   = lipgloss.Color("#00BCD4")
	colorGreen  = lipgloss.Color("#4CAF50")
	colorYellow = lipgloss.Color("#FFC107")
	colorRed    = lipgloss.Color("#F44336")
	colorBlue   = lipgloss.Color("#2196F3")
	colorDim    = lipgloss.Color("#666666")
	colorWhite  = lipgloss.Color("#FFFFFF")
	colorBorder = lipgloss.Color("#333355")
	colorSelect = lipgloss.Color("#16213e")
)

// Styles holds all lipgloss styles for the viewer panel.
type Styles struct {
	HeaderTitle   lipgloss.Style
	HeaderStat    lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style
	SectionHeader lipgloss.Style
	VarRow        lipgloss.Style
	SelectedRow   lipgloss.Style
	CoordText     lipgloss.Style
	StatusReady   lipgloss.Style
	StatusBusy    lipgloss.Style
	StatusErrored lipgloss.Style
	DimText       lipgloss.Style
	PreviewTitle  lipgloss.Style
	WarningBanner lipgloss.Style
	ErrorText     lipgloss.Style
	Footer        lipgloss.Style
	FooterKey     lipgloss.Style
	FooterDesc    lipgloss.Style
	Overlay       lipgloss.Style
	OverlayTitle  lipgloss.Style
	EmptyState    lipgloss.Style
	PanelLeft     lipgloss.Style
	PanelRight    lipgloss.Style
}

// DefaultStyles returns the default style set.
func DefaultStyles() Styles {
	return Styles{
		HeaderTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan),
		HeaderStat: lipgloss.NewStyle().
			Foreground(colorDim),
		TabActive: lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorSelect).
			Bold(true).
			Padding(0, 1),
		TabInactive: lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1),
		SectionHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue),
		VarRow: lipgloss.NewStyle().
			Padding(0, 1),
		SelectedRow: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(colorWhite).
			Background(colorSelect),
		CoordText: lipgloss.NewStyle().
			Foreground(colorDim),
		StatusReady: lipgloss.NewStyle().
			Foreground(colorGreen),
		StatusBusy: lipgloss.NewStyle().
			Foreground(colorYellow),
		StatusErrored: lipgloss.NewStyle().
			Foreground(colorRed),
		DimText: lipgloss.NewStyle().
			Foreground(colorDim),
		PreviewTitle: lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true),
		WarningBanner: lipgloss.NewStyle().
			Foreground(colorYellow),
		ErrorText: lipgloss.NewStyle().
			Foreground(colorRed),
		Footer: lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1),
		FooterKey: lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true),
		FooterDesc: lipgloss.NewStyle().
			Foreground(colorDim),
		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Padding(1, 3).
			Align(lipgloss.Center),
		OverlayTitle: lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true),
		EmptyState: lipgloss.NewStyle().
			Foreground(colorDim).
			Align(lipgloss.Center).
			Padding(2, 0),
		PanelLeft: lipgloss.NewStyle().
			Padding(0, 1),
		PanelRight: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
	}
}
