package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/arbitengine/shellcaster/internal/dispatcher"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// printResults writes one colorized line per platform outcome:
// green=success, yellow=skip, red=failure.
func printResults(results []dispatcher.Result) {
	for _, r := range results {
		line := fmt.Sprintf("[%s] %s", capitalize(r.Platform), r.Message)
		switch r.Status {
		case dispatcher.StatusSuccess:
			fmt.Println(successStyle.Render(line))
		case dispatcher.StatusSkipped:
			fmt.Println(skipStyle.Render(line))
		default:
			fmt.Println(failStyle.Render(line))
		}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
