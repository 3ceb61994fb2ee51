// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskdeck/internal/service"
	"taskdeck/internal/store"
)

// ChartWidth is the bar width of the statistics chart.
const ChartWidth = 20

// FormatTask formats one task line.
// Format: "{ID:>4}  [x] {TITLE}[  due {DATE}][  ({CATEGORY})]\n"
func FormatTask(w io.Writer, task service.Task, category string) {
	mark := ' '
	if task.Completed {
		mark = 'x'
	}
	fmt.Fprintf(w, "%4d  [%c] %s", task.ID, mark, normalizeTitle(task.Title))
	if !task.DueDate.IsZero() {
		fmt.Fprintf(w, "  due %s", task.DueDate)
	}
	if category != "" {
		fmt.Fprintf(w, "  (%s)", category)
	}
	fmt.Fprintln(w)
}

// FormatTaskDetails formats every field of a task, one per line.
func FormatTaskDetails(w io.Writer, task service.Task, category string) {
	status := "pending"
	if task.Completed {
		status = "completed"
	}
	fmt.Fprintf(w, "ID:          %d\n", task.ID)
	fmt.Fprintf(w, "Title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "Description: %s\n", orDash(oneLine(task.Description)))
	fmt.Fprintf(w, "Due:         %s\n", orDash(task.DueDate.String()))
	fmt.Fprintf(w, "Category:    %s\n", orDash(category))
	fmt.Fprintf(w, "Status:      %s\n", status)
	if task.CreatedAt != nil {
		fmt.Fprintf(w, "Created:     %s\n", task.CreatedAt.Format("2006-01-02 15:04"))
	}
}

// FormatPagination formats the page footer.
func FormatPagination(w io.Writer, page, pages, count int) {
	noun := "tasks"
	if count == 1 {
		noun = "task"
	}
	fmt.Fprintf(w, "page %d/%d (%d %s)\n", page, pages, count, noun)
}

// FormatCategory formats a category line.
func FormatCategory(w io.Writer, c service.Category) {
	fmt.Fprintf(w, "%4d  %s\n", c.ID, normalizeTitle(c.Name))
}

// FormatProfile formats the user profile.
func FormatProfile(w io.Writer, u service.User) {
	fmt.Fprintf(w, "Username:   %s\n", u.Username)
	fmt.Fprintf(w, "First name: %s\n", orDash(u.FirstName))
	fmt.Fprintf(w, "Last name:  %s\n", orDash(u.LastName))
	fmt.Fprintf(w, "Email:      %s\n", orDash(u.Email))
	if !u.DateJoined.IsZero() {
		fmt.Fprintf(w, "Joined:     %s\n", u.DateJoined.Format("2006-01-02"))
	}
}

// FormatChart draws the completed/pending proportion as two bars.
func FormatChart(w io.Writer, st store.Stats) {
	if st.Total == 0 {
		fmt.Fprintln(w, "no tasks yet")
		return
	}
	bar(w, "Completed", st.Completed, st.Total)
	bar(w, "Pending", st.Pending, st.Total)
}

func bar(w io.Writer, label string, n, total int) {
	filled := (n*ChartWidth + total/2) / total
	pct := (n*100 + total/2) / total
	fmt.Fprintf(w, "%-10s %s%s %3d%% (%d)\n",
		label, strings.Repeat("#", filled), strings.Repeat(".", ChartWidth-filled), pct, n)
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = oneLine(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
