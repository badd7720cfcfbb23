package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/ironboard/internal/model"
)

// Color palette
var (
	// Priority colors
	PriorityCritical = lipgloss.Color("#FF6B6B") // Red
	PriorityHigh     = lipgloss.Color("#FFB347") // Orange
	PriorityMedium   = lipgloss.Color("#FFE66D") // Yellow
	PriorityLow      = lipgloss.Color("#4ECDC4") // Blue

	// Lane colors
	LaneTodo       = lipgloss.Color("#6C757D") // Gray
	LaneInProgress = lipgloss.Color("#4ECDC4") // Teal
	LaneInReview   = lipgloss.Color("#B388FF") // Purple
	LaneDone       = lipgloss.Color("#95E1A3") // Green

	// Notice colors
	NoticeInfo    = lipgloss.Color("#4ECDC4")
	NoticeSuccess = lipgloss.Color("#95E1A3")
	NoticeError   = lipgloss.Color("#FF6B6B")

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Highlight = lipgloss.Color("#4ECDC4")
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	// Lane container
	LaneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	LaneTargetStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(Highlight).
			Padding(0, 1)

	// Cards
	CardStyle = lipgloss.NewStyle().
			Padding(0, 1)

	CardSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	CardGhostStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(TextMuted).
			Faint(true)

	// Floating preview of the dragged card
	PreviewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Highlight).
			Bold(true).
			Padding(0, 1)

	// Priority badges
	PriorityCriticalStyle = lipgloss.NewStyle().Foreground(PriorityCritical).Bold(true)
	PriorityHighStyle     = lipgloss.NewStyle().Foreground(PriorityHigh).Bold(true)
	PriorityMediumStyle   = lipgloss.NewStyle().Foreground(PriorityMedium)
	PriorityLowStyle      = lipgloss.NewStyle().Foreground(PriorityLow)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// StatusStyle returns the header style for a lane
func StatusStyle(st model.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch st {
	case model.StatusTodo:
		return base.Foreground(LaneTodo)
	case model.StatusInProgress:
		return base.Foreground(LaneInProgress)
	case model.StatusInReview:
		return base.Foreground(LaneInReview)
	case model.StatusDone:
		return base.Foreground(LaneDone)
	default:
		return base
	}
}

// GetPriorityStyle returns the style for a given priority
func GetPriorityStyle(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityCritical:
		return PriorityCriticalStyle
	case model.PriorityHigh:
		return PriorityHighStyle
	case model.PriorityMedium:
		return PriorityMediumStyle
	default:
		return PriorityLowStyle
	}
}

// FormatPriority returns a short coloured priority badge
func FormatPriority(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return GetPriorityStyle(p).Render("▲ Crit")
	case model.PriorityHigh:
		return GetPriorityStyle(p).Render("▲ High")
	case model.PriorityMedium:
		return GetPriorityStyle(p).Render("  Med")
	case model.PriorityLow:
		return GetPriorityStyle(p).Render("  Low")
	default:
		return ""
	}
}

func noticeStyle(color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}
