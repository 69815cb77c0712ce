package engine

import "time"

// Clock supplies the current time to the engine. The machine itself never
// sleeps or schedules anything; it only stamps break records and session
// boundaries, so tests can substitute a fixed or stepped clock and advance
// virtual time deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
