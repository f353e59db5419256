// Package output provides formatting helpers for CLI command output.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/crewhq/crew/internal/models"
)

// Error prints an error message to stderr
func Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// Success prints a success message with a checkmark
func Success(format string, args ...any) {
	fmt.Printf("✓ "+format+"\n", args...)
}

// Warning prints a warning message to stderr
func Warning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

// Info prints an informational message
func Info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// JSON prints a value as indented JSON
func JSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		Error("failed to marshal JSON: %v", err)
		return
	}
	fmt.Println(string(data))
}

// JSONError prints an error as a JSON object to stderr
func JSONError(msg string) {
	data, _ := json.Marshal(map[string]string{"error": msg})
	fmt.Fprintln(os.Stderr, string(data))
}

// FormatStatus returns a bracketed status indicator for a task
func FormatStatus(s models.TaskStatus) string {
	switch s {
	case models.TaskCompleted:
		return "[x]"
	case models.TaskClosed:
		return "[-]"
	default:
		return "[ ]"
	}
}

// FormatTicketStatus returns a short label for a ticket status
func FormatTicketStatus(s models.TicketStatus) string {
	switch s {
	case models.TicketOpen:
		return "open"
	case models.TicketInProgress:
		return "in progress"
	case models.TicketResolved:
		return "resolved"
	case models.TicketClosed:
		return "closed"
	default:
		return string(s)
	}
}

// FormatPriority returns a priority marker for ticket listings
func FormatPriority(p models.TicketPriority) string {
	switch p {
	case models.PriorityUrgent:
		return "!!"
	case models.PriorityHigh:
		return "! "
	default:
		return "  "
	}
}

// FormatTaskShort returns a one-line summary of a task
func FormatTaskShort(t *models.Task) string {
	line := fmt.Sprintf("%s %s %s", FormatStatus(t.Status), t.ID, t.Title)
	if t.Status == models.TaskPending && !t.DueAt.IsZero() {
		if t.Overdue(time.Now()) {
			line += fmt.Sprintf(" (overdue %dd)", t.DelayDays(time.Now()))
		} else {
			line += fmt.Sprintf(" (due %s)", t.DueAt.Format("2006-01-02"))
		}
	}
	return line
}

// FormatTicketShort returns a one-line summary of a ticket
func FormatTicketShort(tk *models.Ticket) string {
	return fmt.Sprintf("%s %s [%s] %s", FormatPriority(tk.Priority), tk.ID, FormatTicketStatus(tk.Status), tk.Title)
}

// FormatTimeAgo returns a human-readable relative time
func FormatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// TermWidth returns the terminal width, or a fallback when stdout
// is not a terminal
func TermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
