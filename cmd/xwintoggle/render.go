package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/1broseidon/xwintoggle/internal/toggle"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	normalStyle = cellStyle.Foreground(lipgloss.Color("42"))
	iconicStyle = cellStyle.Foreground(lipgloss.Color("226"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
)

const maxTitleWidth = 40

// renderWindows formats a window listing as a table for terminals.
func renderWindows(windows []toggle.WindowInfo) string {
	if len(windows) == 0 {
		return dimStyle.Render("no matching windows")
	}

	rows := make([][]string, 0, len(windows))
	for _, w := range windows {
		state := w.State
		if state == "" {
			state = "-"
		}
		mapped := "no"
		if w.Mapped {
			mapped = "yes"
		}
		rows = append(rows, []string{
			fmt.Sprintf("0x%x", uint32(w.ID)),
			strconv.Itoa(int(w.PID)),
			state,
			mapped,
			w.Class,
			truncate(w.Title, maxTitleWidth),
			w.Executable,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("WINDOW", "PID", "STATE", "MAPPED", "CLASS", "TITLE", "EXECUTABLE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(windows) {
				switch windows[row].State {
				case "normal":
					return normalStyle
				case "iconic":
					return iconicStyle
				}
			}
			return cellStyle
		})
	return t.Render()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
