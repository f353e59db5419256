// Package report computes the weekly MIS performance scores: per user,
// how much of the planned week (checklist tasks plus delegations) was
// completed, and how much of that on time.
package report

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/settings"
)

// Week is a reporting window, start inclusive, end exclusive.
type Week struct {
	Start time.Time
	End   time.Time
}

// LastWeek returns the most recently finished week relative to today.
// weekStart is "monday" or "sunday" per org settings.
func LastWeek(today time.Time, weekStart string) Week {
	day := today.Truncate(24 * time.Hour)

	startDay := time.Monday
	if weekStart == "sunday" {
		startDay = time.Sunday
	}

	// Walk back to the start of the current week, then one week further.
	offset := (int(day.Weekday()) - int(startDay) + 7) % 7
	thisWeek := day.AddDate(0, 0, -offset)
	return Week{Start: thisWeek.AddDate(0, 0, -7), End: thisWeek}
}

// Contains reports whether t falls inside the window.
func (w Week) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DelayedItem is one late task listed under a user's score.
type DelayedItem struct {
	ID        string
	Title     string
	DueAt     time.Time
	DelayDays int
}

// UserScore is one user's weekly MIS line.
type UserScore struct {
	UserID        string
	Username      string
	FullName      string
	Planned       int
	Completed     int
	OnTime        int
	CompletionPct float64
	OnTimePct     float64
	Score         float64
	Delayed       []DelayedItem
}

// ComputeWeekly derives the per-user scores for the window. Planned work is
// every task or delegation due inside the window; completed counts any state
// change to completed/done, and on-time requires completion no later than
// the due date. The final score blends the on-time share with the
// completed-late share using the configured weights.
func ComputeWeekly(database *db.DB, cfg *settings.Settings, week Week) ([]UserScore, error) {
	var (
		users       []models.User
		tasks       []models.Task
		delegations []models.Delegation
	)

	// The three source queries are independent, fetch them concurrently.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if users, err = database.ListUsers(db.ListUsersOptions{ActiveOnly: true}); err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if tasks, err = database.ListTasks(db.ListTasksOptions{}); err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if delegations, err = database.ListDelegations(db.ListDelegationsOptions{}); err != nil {
			return fmt.Errorf("list delegations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var scores []UserScore
	for _, u := range users {
		s := UserScore{UserID: u.ID, Username: u.Username, FullName: u.FullName}

		for i := range tasks {
			t := &tasks[i]
			if t.AssigneeID != u.ID || t.DueAt.IsZero() || !week.Contains(t.DueAt) {
				continue
			}
			s.Planned++
			if t.Status != models.TaskCompleted || t.CompletedAt == nil {
				if delay := t.DelayDays(week.End); delay > 0 || t.Status == models.TaskPending {
					s.Delayed = append(s.Delayed, DelayedItem{
						ID: t.ID, Title: t.Title, DueAt: t.DueAt, DelayDays: delay,
					})
				}
				continue
			}
			s.Completed++
			if !t.CompletedAt.After(t.DueAt) {
				s.OnTime++
			} else {
				s.Delayed = append(s.Delayed, DelayedItem{
					ID: t.ID, Title: t.Title, DueAt: t.DueAt, DelayDays: t.DelayDays(week.End),
				})
			}
		}

		for i := range delegations {
			d := &delegations[i]
			if d.ToID != u.ID || !week.Contains(d.PlannedDate) {
				continue
			}
			s.Planned++
			if !d.Done || d.DoneAt == nil {
				s.Delayed = append(s.Delayed, DelayedItem{
					ID: d.ID, Title: d.Title, DueAt: d.PlannedDate,
				})
				continue
			}
			s.Completed++
			if !d.DoneAt.After(d.PlannedDate) {
				s.OnTime++
			} else {
				s.Delayed = append(s.Delayed, DelayedItem{
					ID: d.ID, Title: d.Title, DueAt: d.PlannedDate,
					DelayDays: int(d.DoneAt.Sub(d.PlannedDate).Hours() / 24),
				})
			}
		}

		if s.Planned > 0 {
			s.CompletionPct = pct(s.Completed, s.Planned)
			s.OnTimePct = pct(s.OnTime, s.Planned)
			latePct := pct(s.Completed-s.OnTime, s.Planned)
			s.Score = round2(float64(cfg.Scoring.OnTimeWeight)*s.OnTimePct/100 +
				float64(cfg.Scoring.LateWeight)*latePct/100)
		}

		scores = append(scores, s)
	}

	return scores, nil
}

func pct(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return round2(float64(numerator) / float64(denominator) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
