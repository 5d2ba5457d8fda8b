package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/pocket-nodes/internal/notify"
)

// Design System Colors - Adaptive based on terminal background
var (
	// Primary brand colors (work well on both light and dark)
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorAccent    lipgloss.Color

	// Semantic colors
	ColorSuccess lipgloss.Color
	ColorWarning lipgloss.Color
	ColorError   lipgloss.Color
	ColorInfo    lipgloss.Color

	// Neutral colors (contrast-adaptive)
	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color
	ColorTextDim   lipgloss.Color
	ColorBorder    lipgloss.Color
	ColorSurface   lipgloss.Color
)

// initializeColors picks the palette. theme is the configured glamour style;
// "light" forces the light palette, any other non-empty value the dark one,
// and an empty theme asks the terminal.
func initializeColors(theme string) {
	switch {
	case theme == "light":
		setLightThemeColors()
	case theme != "":
		setDarkThemeColors()
	case lipgloss.HasDarkBackground():
		setDarkThemeColors()
	default:
		setLightThemeColors()
	}
	buildStyles()
}

func setDarkThemeColors() {
	ColorPrimary = lipgloss.Color("205")
	ColorSecondary = lipgloss.Color("33")
	ColorAccent = lipgloss.Color("214")
	ColorSuccess = lipgloss.Color("10")
	ColorWarning = lipgloss.Color("11")
	ColorError = lipgloss.Color("9")
	ColorInfo = lipgloss.Color("12")
	ColorText = lipgloss.Color("252")
	ColorTextMuted = lipgloss.Color("244")
	ColorTextDim = lipgloss.Color("240")
	ColorBorder = lipgloss.Color("238")
	ColorSurface = lipgloss.Color("236")
}

func setLightThemeColors() {
	ColorPrimary = lipgloss.Color("125")
	ColorSecondary = lipgloss.Color("24")
	ColorAccent = lipgloss.Color("130")
	ColorSuccess = lipgloss.Color("22")
	ColorWarning = lipgloss.Color("136")
	ColorError = lipgloss.Color("160")
	ColorInfo = lipgloss.Color("24")
	ColorText = lipgloss.Color("232")
	ColorTextMuted = lipgloss.Color("240")
	ColorTextDim = lipgloss.Color("244")
	ColorBorder = lipgloss.Color("248")
	ColorSurface = lipgloss.Color("254")
}

// Component Styles, rebuilt whenever the palette changes
var (
	StyleTitle     lipgloss.Style
	StyleSubtitle  lipgloss.Style
	StyleText      lipgloss.Style
	StyleTextMuted lipgloss.Style
	StyleTextDim   lipgloss.Style

	StyleTabActive   lipgloss.Style
	StyleTabInactive lipgloss.Style

	StylePane        lipgloss.Style
	StylePaneFocused lipgloss.Style

	StyleFormLabel        lipgloss.Style
	StyleFormLabelFocused lipgloss.Style
	StyleFormHelp         lipgloss.Style

	StyleSuccess lipgloss.Style
	StyleWarning lipgloss.Style
	StyleError   lipgloss.Style
	StyleInfo    lipgloss.Style

	StyleMetadata lipgloss.Style
)

func buildStyles() {
	StyleTitle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1)

	StyleSubtitle = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)

	StyleText = lipgloss.NewStyle().Foreground(ColorText)
	StyleTextMuted = lipgloss.NewStyle().Foreground(ColorTextMuted)
	StyleTextDim = lipgloss.NewStyle().Foreground(ColorTextDim)

	StyleTabActive = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(ColorSecondary).
		Bold(true).
		Padding(0, 1)

	StyleTabInactive = lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Padding(0, 1)

	StylePane = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)

	StylePaneFocused = StylePane.
		BorderForeground(ColorPrimary)

	StyleFormLabel = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)

	StyleFormLabelFocused = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	StyleFormHelp = lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Italic(true)

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true).Padding(0, 1)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true).Padding(0, 1)
	StyleError = lipgloss.NewStyle().Foreground(ColorError).Bold(true).Padding(0, 1)
	StyleInfo = lipgloss.NewStyle().Foreground(ColorInfo).Bold(true).Padding(0, 1)

	StyleMetadata = lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Padding(0, 1)
}

func CreateMainHeader(titleText string) string {
	return StyleTitle.Render(titleText)
}

func CreateMetadata(text string) string {
	return StyleMetadata.Render(text)
}

// CreateStatus styles a notification for the status line
func CreateStatus(text string, level notify.Level) string {
	switch level {
	case notify.LevelSuccess:
		return StyleSuccess.Render(text)
	case notify.LevelWarning:
		return StyleWarning.Render(text)
	case notify.LevelError:
		return StyleError.Render(text)
	default:
		return StyleInfo.Render(text)
	}
}

// CreateStageTabs renders the stage switcher with its number keys
func CreateStageTabs(titles []string, active int) string {
	tabs := make([]string, len(titles))
	for i, title := range titles {
		label := string(rune('1'+i)) + " " + title
		if i == active {
			tabs[i] = StyleTabActive.Render(label)
		} else {
			tabs[i] = StyleTabInactive.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// CreatePane wraps content in a bordered box with a title line
func CreatePane(title, content string, width, height int, focused bool) string {
	style := StylePane
	titleStyle := StyleTextMuted.Bold(true)
	if focused {
		style = StylePaneFocused
		titleStyle = StyleSubtitle
	}

	// border takes two columns and two rows, padding two columns
	body := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), content)
	return style.
		Width(max(width-2, 0)).
		Height(max(height-2, 0)).
		MaxHeight(height).
		Render(body)
}

// Guaranteed help text that ensures visibility regardless of terminal size
func CreateGuaranteedHelp(helpText string, width int) string {
	helpStyle := lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Width(width).
		Padding(0, 1)

	if width > 5 && len(helpText) > width-2 {
		helpText = helpText[:width-5] + "..."
	}

	return helpStyle.Render(helpText)
}

// AddMainPadding adds the left margin shared by every view
func AddMainPadding(content string) string {
	return lipgloss.NewStyle().PaddingLeft(1).Render(content)
}

// progressBar draws filled/total as a fixed-width bar
func progressBar(filled, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}
	n := filled * width / total
	return lipgloss.NewStyle().Foreground(ColorSuccess).Render(strings.Repeat("█", n)) +
		StyleTextDim.Render(strings.Repeat("░", width-n))
}

func init() {
	// usable zero-config styles until a model picks the palette
	setDarkThemeColors()
	buildStyles()
}
