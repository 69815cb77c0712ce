// Package timeutil holds the pure time arithmetic shared by the session
// engine and the reconciliation service: clock formatting and the rounding
// used whenever a duration crosses the persistence boundary.
package timeutil

import "fmt"

// Clock formats a non-negative number of seconds as MM:SS, switching to
// HH:MM:SS once the duration reaches one hour.
func Clock(seconds int) string {
	hrs := seconds / 3600
	mins := (seconds % 3600) / 60
	secs := seconds % 60
	if hrs > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hrs, mins, secs)
	}
	return fmt.Sprintf("%02d:%02d", mins, secs)
}

// MinutesToSeconds converts whole minutes to seconds.
func MinutesToSeconds(minutes int) int {
	return minutes * 60
}

// SecondsToMinutes converts seconds to minutes, rounding half up. This is
// the rounding applied when a recorded duration is persisted, so 90s
// becomes 2 minutes and 89s becomes 1.
func SecondsToMinutes(seconds int) int {
	return (seconds + 30) / 60
}
