package cli

import "github.com/charmbracelet/lipgloss"

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E9E5B")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D64545")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#333F50")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7B8088")).Width(16)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7B8088"))
)

// field renders an aligned "label value" line.
func field(label, value string) string {
	return "  " + labelStyle.Render(label) + value
}

// maskSecret hides all but the ends of a secret.
func maskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
