package output

import (
	"strings"
	"testing"
	"time"

	"github.com/crewhq/crew/internal/models"
)

func TestFormatStatus(t *testing.T) {
	cases := []struct {
		status models.TaskStatus
		want   string
	}{
		{models.TaskPending, "[ ]"},
		{models.TaskCompleted, "[x]"},
		{models.TaskClosed, "[-]"},
	}
	for _, tc := range cases {
		if got := FormatStatus(tc.status); got != tc.want {
			t.Errorf("FormatStatus(%s) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()
	cases := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-30 * time.Hour), "yesterday"},
		{now.Add(-72 * time.Hour), "3d ago"},
	}
	for _, tc := range cases {
		if got := FormatTimeAgo(tc.t); got != tc.want {
			t.Errorf("FormatTimeAgo(%v) = %q, want %q", tc.t, got, tc.want)
		}
	}
}

func TestFormatTaskShort(t *testing.T) {
	task := &models.Task{
		ID:     "tk-a1b2c3",
		Title:  "File weekly report",
		Status: models.TaskPending,
		DueAt:  time.Now().Add(48 * time.Hour),
	}
	got := FormatTaskShort(task)
	if !strings.Contains(got, "tk-a1b2c3") || !strings.Contains(got, "due ") {
		t.Errorf("unexpected summary %q", got)
	}

	task.DueAt = time.Now().Add(-72 * time.Hour)
	got = FormatTaskShort(task)
	if !strings.Contains(got, "overdue") {
		t.Errorf("expected overdue marker in %q", got)
	}
}

func TestRenderTree(t *testing.T) {
	roots := []TreeNode{
		{
			Title: "asha",
			Children: []TreeNode{
				{ID: "tk-111111", Title: "Prepare audit", Status: models.TaskPending},
				{ID: "tk-222222", Title: "Close out Q2", Status: models.TaskCompleted},
			},
		},
	}
	got := RenderTree(roots, TreeRenderOptions{ShowStatus: true})
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), got)
	}
	if lines[0] != "asha" {
		t.Errorf("root line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "\u251c\u2500\u2500 [ ] tk-111111:") {
		t.Errorf("first child = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "\u2514\u2500\u2500 [x] tk-222222:") {
		t.Errorf("last child = %q", lines[2])
	}
}

func TestRenderTreeMaxDepth(t *testing.T) {
	roots := []TreeNode{
		{
			Title: "asha",
			Children: []TreeNode{
				{ID: "tk-111111", Title: "Prepare audit", Children: []TreeNode{
					{ID: "tk-333333", Title: "Nested"},
				}},
			},
		},
	}
	got := RenderTree(roots, TreeRenderOptions{MaxDepth: 1})
	if strings.Contains(got, "tk-333333") {
		t.Errorf("nested node should be cut off at depth 1:\n%s", got)
	}
}
