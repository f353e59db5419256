package report

import (
	"fmt"
	"strings"
)

// RenderMarkdown formats the weekly scores as a markdown document, suitable
// for terminal rendering or pasting into a status update.
func RenderMarkdown(orgName string, week Week, scores []UserScore) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s — Weekly MIS Score\n\n", orgName)
	fmt.Fprintf(&b, "Week %s to %s\n\n",
		week.Start.Format("Mon 02 Jan 2006"),
		week.End.AddDate(0, 0, -1).Format("Mon 02 Jan 2006"))

	if len(scores) == 0 {
		b.WriteString("_No active users._\n")
		return b.String()
	}

	b.WriteString("| User | Planned | Completed | On time | Completion % | On-time % | Score |\n")
	b.WriteString("|------|---------|-----------|---------|--------------|-----------|-------|\n")
	for _, s := range scores {
		name := s.FullName
		if name == "" {
			name = s.Username
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %.2f | %.2f | **%.2f** |\n",
			name, s.Planned, s.Completed, s.OnTime, s.CompletionPct, s.OnTimePct, s.Score)
	}

	var anyDelayed bool
	for _, s := range scores {
		if len(s.Delayed) > 0 {
			anyDelayed = true
			break
		}
	}
	if anyDelayed {
		b.WriteString("\n## Delayed items\n\n")
		for _, s := range scores {
			if len(s.Delayed) == 0 {
				continue
			}
			fmt.Fprintf(&b, "**%s**\n\n", s.Username)
			for _, d := range s.Delayed {
				if d.DelayDays > 0 {
					fmt.Fprintf(&b, "- %s (%s, due %s, %dd late)\n",
						d.Title, d.ID, d.DueAt.Format("02 Jan"), d.DelayDays)
				} else {
					fmt.Fprintf(&b, "- %s (%s, due %s, open)\n",
						d.Title, d.ID, d.DueAt.Format("02 Jan"))
				}
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
