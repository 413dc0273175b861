// Package ui provides the visual styling for the auroracast terminal
// output. Dark mode is the default: this is a tool for people standing
// outside at night.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Dark Mode Colors (Default)
	DarkBackground = lipgloss.Color("#0b1026") // deep night sky
	DarkForeground = lipgloss.Color("#e8ecf4")
	DarkPrimary    = lipgloss.Color("#64f0a8") // aurora green
	DarkAccent     = lipgloss.Color("#b388ff") // corona violet
	DarkSecondary  = lipgloss.Color("#16203d")
	DarkMuted      = lipgloss.Color("#5c6b8a")
	DarkBorder     = lipgloss.Color("#26314f")
	DarkCard       = lipgloss.Color("#101734")

	// Light Mode Colors
	LightBackground = lipgloss.Color("#f4f6fa")
	LightForeground = lipgloss.Color("#14203c")
	LightPrimary    = lipgloss.Color("#0e7a4d") // aurora green, darkened
	LightAccent     = lipgloss.Color("#6b4ccf")
	LightSecondary  = lipgloss.Color("#e2e7f0")
	LightMuted      = lipgloss.Color("#7a869e")
	LightBorder     = lipgloss.Color("#d5dbe8")
	LightCard       = lipgloss.Color("#ffffff")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#ef5350") // Red
	Success     = lipgloss.Color("#64f0a8") // Aurora Green
	Warning     = lipgloss.Color("#ffca28") // Yellow
	Info        = lipgloss.Color("#42a5f5") // Blue

	// Kp scale colors, quiet to severe storm
	KpQuiet    = lipgloss.Color("#4db6ac")
	KpActive   = lipgloss.Color("#9ccc65")
	KpStorm    = lipgloss.Color("#ffca28")
	KpSevere   = lipgloss.Color("#ff7043")
	KpExtremeC = lipgloss.Color("#ef5350")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DetectTheme picks a theme from the terminal environment. Dark wins
// unless the terminal clearly reports a light background.
func DetectTheme() Theme {
	if os.Getenv("AURORACAST_LIGHT_MODE") == "1" {
		return LightTheme()
	}

	// COLORFGBG is "foreground;background"; high background indexes
	// (7, 15) are light terminals.
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if bgIdx == 7 || bgIdx >= 9 {
					return LightTheme()
				}
			}
		}
	}
	return DarkTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Card    lipgloss.Style
	Divider lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style

	// Interactive
	Prompt        lipgloss.Style
	UserInput     lipgloss.Style
	AgentResponse lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Components
	Spinner   lipgloss.Style
	Badge     lipgloss.Style
	DemoBadge lipgloss.Style
	Source    lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(1, 2),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Width(18),

		Value: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		UserInput: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		AgentResponse: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(theme.Accent),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		DemoBadge: lipgloss.NewStyle().
			Background(Warning).
			Foreground(lipgloss.Color("#101734")).
			Padding(0, 1).
			Bold(true),

		Source: lipgloss.NewStyle().
			Foreground(Info).
			Underline(true),
	}
}

// DefaultStyles returns styles with the auto-detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// KpColor maps a Kp reading onto the activity scale.
func KpColor(kp float64) lipgloss.Color {
	switch {
	case kp < 3:
		return KpQuiet
	case kp < 5:
		return KpActive
	case kp < 6:
		return KpStorm
	case kp < 8:
		return KpSevere
	default:
		return KpExtremeC
	}
}

// VisibilityColor maps the reported chance onto the same scale.
func VisibilityColor(chance string) lipgloss.Color {
	switch chance {
	case "Extreme":
		return KpExtremeC
	case "High":
		return Success
	case "Moderate":
		return KpStorm
	default:
		return KpQuiet
	}
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	return s.Divider.Render(strings.Repeat("─", width))
}

// KpBar renders a fixed-width activity bar for one Kp reading.
func KpBar(kp float64, width int) string {
	if width <= 0 {
		width = 18
	}
	if kp < 0 {
		kp = 0
	}
	if kp > 9 {
		kp = 9
	}
	filled := int(kp / 9 * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(KpColor(kp)).Render(bar)
}
