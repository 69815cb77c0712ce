package timeutil

import "testing"

func TestClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{59, "00:59"},
		{60, "01:00"},
		{600, "10:00"},
		{3599, "59:59"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{7325, "02:02:05"},
	}

	for _, tt := range tests {
		if got := Clock(tt.seconds); got != tt.want {
			t.Errorf("Clock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestMinutesToSeconds(t *testing.T) {
	if got := MinutesToSeconds(10); got != 600 {
		t.Fatalf("MinutesToSeconds(10) = %d, want 600", got)
	}
	if got := MinutesToSeconds(0); got != 0 {
		t.Fatalf("MinutesToSeconds(0) = %d, want 0", got)
	}
}

func TestSecondsToMinutes(t *testing.T) {
	tests := []struct {
		seconds int
		want    int
	}{
		{0, 0},
		{29, 0},
		{30, 1}, // rounds half up
		{60, 1},
		{89, 1},
		{90, 2},
		{240, 4},
		{720, 12},
	}

	for _, tt := range tests {
		if got := SecondsToMinutes(tt.seconds); got != tt.want {
			t.Errorf("SecondsToMinutes(%d) = %d, want %d", tt.seconds, got, tt.want)
		}
	}
}
