package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDate accepts 2006-01-02 dates plus the shorthands "today",
// "tomorrow" and "+Nd".
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	today := time.Now().Truncate(24 * time.Hour)

	switch s {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if strings.HasPrefix(s, "+") && strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err == nil && n >= 0 {
			return today.AddDate(0, 0, n), nil
		}
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD, today, tomorrow or +Nd)", s)
	}
	return t, nil
}
