// Package scanner runs the background scan loop: a peak-hours schedule
// decides cadence, each cycle runs a scan pass, and results fan out to
// sinks such as the notifier and the websocket hub.
package scanner

import (
	"fmt"
	"strings"
	"time"
)

// Default cycle cadence inside and outside peak hours.
const (
	DefaultPeakInterval    = 5 * time.Minute
	DefaultOffPeakInterval = 30 * time.Minute
)

// HourRange is an inclusive local-hour window: Start <= hour <= End.
type HourRange struct {
	Start int
	End   int
}

func (r HourRange) contains(hour int) bool {
	return r.Start <= hour && hour <= r.End
}

func (r HourRange) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", r.Start, r.End)
}

// DayRanges holds peak windows per day type.
type DayRanges struct {
	Weekday []HourRange
	Weekend []HourRange
}

func (d DayRanges) forDay(t time.Time) []HourRange {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return d.Weekend
	}
	return d.Weekday
}

// category pairs a sport-key substring with its peak windows. Order
// matters: the first substring contained in the sport key wins.
type category struct {
	key    string
	ranges DayRanges
}

var defaultCategories = []category{
	{"soccer", DayRanges{
		Weekday: []HourRange{{17, 22}},
		Weekend: []HourRange{{12, 22}},
	}},
	{"basketball", DayRanges{
		Weekday: []HourRange{{18, 23}},
		Weekend: []HourRange{{15, 23}},
	}},
	{"icehockey", DayRanges{
		Weekday: []HourRange{{18, 23}},
		Weekend: []HourRange{{15, 23}},
	}},
	{"tennis", DayRanges{
		Weekday: []HourRange{{10, 20}},
		Weekend: []HourRange{{10, 20}},
	}},
}

var defaultFallback = DayRanges{
	Weekday: []HourRange{{16, 23}},
	Weekend: []HourRange{{12, 23}},
}

// ScheduleConfig tunes a Schedule. Zero values take defaults; a non-nil
// Window replaces the fallback ranges for both day types, which is how a
// single configured peak window (for example 17-22) narrows the loop.
type ScheduleConfig struct {
	PeakInterval    time.Duration
	OffPeakInterval time.Duration
	SkipOffPeak     bool
	Window          *HourRange
	Location        *time.Location
}

// Schedule is the single source of truth for scan timing. Per-sport
// categories drive IsOptimal and Interval; the fallback category doubles
// as the loop's global window, so cadence and per-sport advice cannot
// disagree.
type Schedule struct {
	categories   []category
	fallback     DayRanges
	peakEvery    time.Duration
	offPeakEvery time.Duration
	skipOffPeak  bool
	loc          *time.Location
}

// NewSchedule builds a schedule from the built-in category table and the
// given overrides.
func NewSchedule(cfg ScheduleConfig) *Schedule {
	s := &Schedule{
		categories:   defaultCategories,
		fallback:     defaultFallback,
		peakEvery:    cfg.PeakInterval,
		offPeakEvery: cfg.OffPeakInterval,
		skipOffPeak:  cfg.SkipOffPeak,
		loc:          cfg.Location,
	}
	if s.peakEvery <= 0 {
		s.peakEvery = DefaultPeakInterval
	}
	if s.offPeakEvery <= 0 {
		s.offPeakEvery = DefaultOffPeakInterval
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if cfg.Window != nil {
		w := []HourRange{*cfg.Window}
		s.fallback = DayRanges{Weekday: w, Weekend: w}
	}
	return s
}

// rangesFor resolves the peak windows for a sport key. The empty key and
// unmatched keys use the fallback.
func (s *Schedule) rangesFor(sport string) DayRanges {
	if sport != "" {
		lk := strings.ToLower(sport)
		for _, c := range s.categories {
			if strings.Contains(lk, c.key) {
				return c.ranges
			}
		}
	}
	return s.fallback
}

// IsOptimal reports whether now falls inside a peak window for the given
// sport. An empty sport key checks the fallback window, which is what the
// loop's cadence decision uses.
func (s *Schedule) IsOptimal(sport string, now time.Time) bool {
	local := now.In(s.loc)
	hour := local.Hour()
	for _, r := range s.rangesFor(sport).forDay(local) {
		if r.contains(hour) {
			return true
		}
	}
	return false
}

// Interval recommends the scan cadence for a sport at the given instant.
func (s *Schedule) Interval(sport string, now time.Time) time.Duration {
	if s.IsOptimal(sport, now) {
		return s.peakEvery
	}
	return s.offPeakEvery
}

// UntilNextPeak returns how long until the fallback window next opens,
// or zero when it is open now. The walk is bounded; with the built-in
// table every day has a window, so the bound is never hit in practice.
func (s *Schedule) UntilNextPeak(now time.Time) time.Duration {
	local := now.In(s.loc)
	if s.IsOptimal("", local) {
		return 0
	}
	top := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, s.loc)
	for h := 1; h <= 24*8; h++ {
		t := top.Add(time.Duration(h) * time.Hour)
		if s.IsOptimal("", t) {
			return t.Sub(local)
		}
	}
	return s.offPeakEvery
}

// PeakInterval is the cycle wait inside peak hours.
func (s *Schedule) PeakInterval() time.Duration { return s.peakEvery }

// OffPeakInterval is the cycle wait outside peak hours when off-peak
// scanning is enabled.
func (s *Schedule) OffPeakInterval() time.Duration { return s.offPeakEvery }

// SkipOffPeak reports whether off-peak cycles are skipped entirely.
func (s *Schedule) SkipOffPeak() bool { return s.skipOffPeak }

// Window describes today's fallback peak windows, for status output.
func (s *Schedule) Window(now time.Time) string {
	local := now.In(s.loc)
	ranges := s.fallback.forDay(local)
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}
