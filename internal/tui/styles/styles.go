package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	JellyfinPurple = lipgloss.Color("#AA5CC3")
	JellyfinBlue   = lipgloss.Color("#00A4DC")
	SlateDark      = lipgloss.Color("#1F2937")
	SlateLight     = lipgloss.Color("#374151")
	DimGray        = lipgloss.Color("#6B7280")
	LightGray      = lipgloss.Color("#9CA3AF")
	White          = lipgloss.Color("#F9FAFB")
	Green          = lipgloss.Color("#10B981")
	Red            = lipgloss.Color("#EF4444")
)

// Borders
var (
	ActiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(JellyfinPurple)

	InactiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(JellyfinPurple)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Raw watch status characters (unstyled)
const (
	UnplayedChar   = "●"
	InProgressChar = "◐"
	PlayedChar     = "✓"
	FavoriteChar   = "♥"
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(JellyfinPurple)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Filter styles
var (
	FilterStyle = lipgloss.NewStyle().
			Foreground(JellyfinBlue)

	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(JellyfinBlue).
				Bold(true)
)

// Badge shown while a background refresh is in flight
var (
	BadgeStyle = lipgloss.NewStyle().
		Foreground(White).
		Background(JellyfinPurple).
		Padding(0, 1)
)

// Truncate truncates a string to the given display width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// RenderListRow renders a complete list row with uniform background when selected.
// Each part is styled explicitly to avoid ANSI reset code issues.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	bg := SlateLight
	defaultFg := LightGray
	selectedFg := White

	var b strings.Builder
	visibleLen := 0

	for _, part := range parts {
		style := lipgloss.NewStyle()
		switch {
		case part.Foreground != nil:
			style = style.Foreground(*part.Foreground)
		case selected:
			style = style.Foreground(selectedFg)
		default:
			style = style.Foreground(defaultFg)
		}
		if part.Bold {
			style = style.Bold(true)
		}
		if selected {
			style = style.Background(bg)
		}
		b.WriteString(style.Render(part.Text))
		visibleLen += lipgloss.Width(part.Text)
	}

	// Pad to fill width (2 for left/right margin)
	pad := lipgloss.NewStyle()
	if selected {
		pad = pad.Background(bg)
	}
	if n := width - visibleLen - 2; n > 0 {
		b.WriteString(pad.Render(strings.Repeat(" ", n)))
	}

	margin := pad.Render(" ")
	return margin + b.String() + margin
}

// RowPart represents a part of a row with optional foreground color
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
	Bold       bool
}
