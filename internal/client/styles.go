package client

import "github.com/charmbracelet/lipgloss"

// palette
const (
	colorText   = lipgloss.Color("#FAFAFA")
	colorAccent = lipgloss.Color("#7D56F4")
	colorRed    = lipgloss.Color("#FF6B6B")
	colorGold   = lipgloss.Color("#FFD700")
	colorGreen  = lipgloss.Color("#96CEB4")
	colorAmber  = lipgloss.Color("#FFEAA7")
	colorMuted  = lipgloss.Color("#626262")
)

func bold(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

var (
	// HeaderStyle marks round and room banners
	HeaderStyle = bold(colorText).Background(colorAccent)

	// RedCardStyle and BlackCardStyle colour cards by suit
	RedCardStyle   = bold(colorRed)
	BlackCardStyle = bold(colorText)

	// TurnStyle highlights whose turn it is
	TurnStyle = bold(colorGold)

	SuccessStyle = bold(colorGreen)
	ErrorStyle   = bold(colorRed)
	WarningStyle = bold(colorAmber)
	InfoStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)
