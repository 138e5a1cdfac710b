// Package output provides styled terminal output helpers (success, error,
// warning, plan and history formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/autodoist/internal/db"
	"github.com/marcus/autodoist/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	addStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	typeStyles   = map[models.Type]lipgloss.Style{
		models.TypeParallel:           lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.TypeSequential:         lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.TypeParallelSequential: lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		models.TypeSequentialParallel: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Truncate shortens s to width cells, keeping escape sequences intact.
// A width of zero or less leaves s alone.
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// FormatType formats a type tag with color
func FormatType(t models.Type) string {
	if t == models.TypeNone {
		return subtleStyle.Render("[none]")
	}
	style, ok := typeStyles[t]
	if !ok {
		return fmt.Sprintf("[%s]", t)
	}
	return style.Render(fmt.Sprintf("[%s]", t))
}

// LabelDiff returns the labels added and removed between two label sets
func LabelDiff(before, after []string) (added, removed []string) {
	for _, l := range after {
		if !slices.Contains(before, l) {
			added = append(added, l)
		}
	}
	for _, l := range before {
		if !slices.Contains(after, l) {
			removed = append(removed, l)
		}
	}
	return added, removed
}

// FormatUpdate describes one item update on a single line. before is the
// item as fetched and may be nil; titles are cut to width cells.
func FormatUpdate(u models.ItemUpdate, before *models.Item, width int) string {
	title := u.ItemID
	if before != nil {
		title = before.Content
	}

	var changes []string
	if u.SetLabels {
		var prev []string
		if before != nil {
			prev = before.Labels
		}
		added, removed := LabelDiff(prev, u.Labels)
		for _, l := range added {
			changes = append(changes, addStyle.Render("+"+l))
		}
		for _, l := range removed {
			changes = append(changes, removeStyle.Render("-"+l))
		}
	}
	if u.Content != nil {
		changes = append(changes, fmt.Sprintf("title → %q", *u.Content))
	}
	if u.Due != nil {
		changes = append(changes, "due → "+u.Due.Date)
	}
	if u.Reopen {
		changes = append(changes, warningStyle.Render("reopen"))
	}
	if u.Watermark != nil {
		changes = append(changes, subtleStyle.Render("seen "+*u.Watermark))
	}

	return fmt.Sprintf("  %s  %s  %s",
		subtleStyle.Render(u.ItemID),
		Truncate(title, width),
		strings.Join(changes, " "))
}

// FormatBatch describes a whole batch, one line per change, against the
// snapshot it was computed from
func FormatBatch(b models.Batch, snap *models.Snapshot, width int) []string {
	byID := make(map[string]*models.Item)
	if snap != nil {
		for i := range snap.Items {
			byID[snap.Items[i].ID] = &snap.Items[i]
		}
	}

	var lines []string
	for _, u := range b.Items {
		lines = append(lines, FormatUpdate(u, byID[u.ItemID], width))
	}
	for _, r := range b.Projects {
		lines = append(lines, fmt.Sprintf("  %s  project renamed to %q", subtleStyle.Render(r.ID), r.Name))
	}
	for _, r := range b.Sections {
		lines = append(lines, fmt.Sprintf("  %s  section renamed to %q", subtleStyle.Render(r.ID), r.Name))
	}
	return lines
}

// FormatCycle formats a history row on one line
func FormatCycle(c db.Cycle) string {
	status := successStyle.Render("ok")
	if c.Status != db.CycleOK {
		status = errorStyle.Render(c.Status)
	}
	line := fmt.Sprintf("%s  %s  %s  %d items  %d updates",
		titleStyle.Render(fmt.Sprintf("#%d", c.ID)),
		c.StartedAt.Local().Format("2006-01-02 15:04:05"),
		status,
		c.Items,
		c.Updates)
	line += "  " + subtleStyle.Render(FormatDuration(c.Duration))
	if c.DryRun {
		line += "  " + subtleStyle.Render("(dry run)")
	}
	if c.Error != "" {
		line += "  " + errorStyle.Render(c.Error)
	}
	return line
}

// FormatDuration formats short durations in ms and longer ones in seconds
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nUPDATES:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// BulletList formats items as a bulleted list with optional indentation
func BulletList(items []string, indent int) []string {
	prefix := strings.Repeat(" ", indent)
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = prefix + "- " + item
	}
	return result
}
