package scanner

import (
	"testing"
	"time"
)

// 2025-03-05 is a Wednesday, 2025-03-08 a Saturday.
func weekdayAt(hour int) time.Time {
	return time.Date(2025, 3, 5, hour, 30, 0, 0, time.UTC)
}

func weekendAt(hour int) time.Time {
	return time.Date(2025, 3, 8, hour, 30, 0, 0, time.UTC)
}

func utcSchedule(cfg ScheduleConfig) *Schedule {
	cfg.Location = time.UTC
	return NewSchedule(cfg)
}

func TestIsOptimalPerCategory(t *testing.T) {
	s := utcSchedule(ScheduleConfig{})

	cases := []struct {
		name  string
		sport string
		at    time.Time
		want  bool
	}{
		{"soccer weekday evening", "soccer_epl", weekdayAt(18), true},
		{"soccer weekday end inclusive", "soccer_epl", weekdayAt(22), true},
		{"soccer weekday afternoon", "soccer_epl", weekdayAt(16), false},
		{"soccer weekend noon", "soccer_epl", weekendAt(12), true},
		{"soccer weekend morning", "soccer_epl", weekendAt(11), false},
		{"basketball weekday", "basketball_nba", weekdayAt(18), true},
		{"basketball weekday early", "basketball_nba", weekdayAt(17), false},
		{"icehockey weekend", "icehockey_nhl", weekendAt(15), true},
		{"tennis daytime", "tennis_atp_french_open", weekdayAt(10), true},
		{"tennis late", "tennis_atp_french_open", weekdayAt(21), false},
		{"unknown sport uses fallback", "cricket_big_bash", weekdayAt(16), true},
		{"unknown sport fallback off", "cricket_big_bash", weekdayAt(15), false},
		{"empty sport uses fallback", "", weekdayAt(16), true},
		{"empty sport weekend", "", weekendAt(12), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.IsOptimal(tc.sport, tc.at); got != tc.want {
				t.Errorf("IsOptimal(%q, %v) = %v, want %v", tc.sport, tc.at, got, tc.want)
			}
		})
	}
}

func TestIntervalFollowsOptimality(t *testing.T) {
	s := utcSchedule(ScheduleConfig{})

	if got := s.Interval("soccer_epl", weekdayAt(18)); got != DefaultPeakInterval {
		t.Errorf("peak interval = %v, want %v", got, DefaultPeakInterval)
	}
	if got := s.Interval("soccer_epl", weekdayAt(3)); got != DefaultOffPeakInterval {
		t.Errorf("off-peak interval = %v, want %v", got, DefaultOffPeakInterval)
	}
}

func TestIntervalOverrides(t *testing.T) {
	s := utcSchedule(ScheduleConfig{
		PeakInterval:    30 * time.Minute,
		OffPeakInterval: time.Hour,
	})

	if got := s.Interval("", weekdayAt(18)); got != 30*time.Minute {
		t.Errorf("peak interval = %v, want 30m", got)
	}
	if got := s.Interval("", weekdayAt(3)); got != time.Hour {
		t.Errorf("off-peak interval = %v, want 1h", got)
	}
}

func TestUntilNextPeak(t *testing.T) {
	s := utcSchedule(ScheduleConfig{})

	cases := []struct {
		name string
		at   time.Time
		want time.Duration
	}{
		{"inside window", weekdayAt(18), 0},
		{"weekday morning", weekdayAt(10), 5*time.Hour + 30*time.Minute},
		{"weekday after midnight", weekdayAt(0), 15*time.Hour + 30*time.Minute},
		{"weekend morning", weekendAt(10), 1*time.Hour + 30*time.Minute},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.UntilNextPeak(tc.at); got != tc.want {
				t.Errorf("UntilNextPeak(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestUntilNextPeakCrossesMidnight(t *testing.T) {
	s := utcSchedule(ScheduleConfig{Window: &HourRange{Start: 17, End: 22}})

	// Wednesday 23:30: the window closed at 22:59, next opens Thursday 17:00.
	at := time.Date(2025, 3, 5, 23, 30, 0, 0, time.UTC)
	want := 17*time.Hour + 30*time.Minute
	if got := s.UntilNextPeak(at); got != want {
		t.Errorf("UntilNextPeak = %v, want %v", got, want)
	}
}

func TestWindowOverrideReplacesFallback(t *testing.T) {
	s := utcSchedule(ScheduleConfig{Window: &HourRange{Start: 17, End: 22}})

	if s.IsOptimal("", weekdayAt(16)) {
		t.Error("16:30 must be outside the 17-22 window")
	}
	if !s.IsOptimal("", weekdayAt(17)) {
		t.Error("17:30 must be inside the 17-22 window")
	}
	if !s.IsOptimal("", weekendAt(17)) {
		t.Error("the override applies on weekends too")
	}
	if got, want := s.Window(weekdayAt(12)), "17:00-22:00"; got != want {
		t.Errorf("Window = %q, want %q", got, want)
	}

	// Category sports keep their own windows.
	if !s.IsOptimal("tennis_atp", weekdayAt(10)) {
		t.Error("tennis window must survive a fallback override")
	}
}
