// Package engine runs one live focus/break session: a tick-driven state
// machine, the lifecycle controller that bridges it to the server boundary,
// and the snapshot guard that mirrors every mutation to disk.
package engine

import "focustrack/internal/timeutil"

// Config is a session's locked configuration. It is copied from the
// activity once at session start and never re-read, so edits to the
// activity mid-session cannot shift the time base of a running countdown.
type Config struct {
	ActivityID   int64  `json:"activity_id"`
	Title        string `json:"title"`
	FocusSeconds int    `json:"focus_seconds"`
	BreakSeconds int    `json:"break_seconds"`
	BreakBudget  int    `json:"break_budget"`
}

// ConfigFromMinutes builds a locked config from activity-level minute
// values.
func ConfigFromMinutes(activityID int64, title string, focusMinutes, breakMinutes, breakBudget int) Config {
	return Config{
		ActivityID:   activityID,
		Title:        title,
		FocusSeconds: timeutil.MinutesToSeconds(focusMinutes),
		BreakSeconds: timeutil.MinutesToSeconds(breakMinutes),
		BreakBudget:  breakBudget,
	}
}
