package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("205"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Padding(0, 1)

	groupStyles = map[string]lipgloss.Style{
		"good":    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"mua":     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"noise":   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		"ignored": lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
)

func renderGroup(group string) string {
	if st, ok := groupStyles[group]; ok {
		return st.Render(group)
	}
	return group
}
