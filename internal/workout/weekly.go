package workout

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/myrjola/liftcoach/internal/catalog"
	"github.com/myrjola/liftcoach/internal/errors"
)

// ParseDay parses a YYYY-MM-DD calendar day as midnight UTC, the zone sessions are stored in. Every surface that
// takes a report date goes through here so that a date maps to the same week regardless of the host zone.
func ParseDay(value string) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, errors.Wrap(ErrInvalidDate, "want YYYY-MM-DD", slog.String("date", value))
	}
	return day, nil
}

// WeekBoundaries returns the Sunday-to-Saturday week containing ref in ref's location.
//
// start is Sunday 00:00:00.000 and end is Saturday 23:59:59.999.
func WeekBoundaries(ref time.Time) (time.Time, time.Time) {
	loc := ref.Location()
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	end := time.Date(start.Year(), start.Month(), start.Day()+6, 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

// AggregateWeeklyStimulus folds the sub-region stimulus of sessions completed within [weekStart, weekEnd] into one
// map.
//
// Sessions without CompletedAt are excluded. Exercises missing from weights are skipped so that a single unknown
// record cannot abort the aggregation. The result does not depend on the order of sessions.
func AggregateWeeklyStimulus(
	sessions []Session,
	weights map[string][]catalog.RegionWeight,
	weekStart, weekEnd time.Time,
) map[catalog.SubRegion]float64 {
	totals := make(map[catalog.SubRegion]float64)
	for _, s := range sessionsWithin(sessions, weekStart, weekEnd) {
		for _, e := range s.Exercises {
			w, ok := weights[e.ExerciseID]
			if !ok {
				continue
			}
			addSubRegionStimulus(totals, e.Sets, w)
		}
	}
	return totals
}

// sessionsWithin returns the completed sessions inside the closed interval in a canonical order so that floating
// point sums are reproducible regardless of input order.
func sessionsWithin(sessions []Session, start, end time.Time) []Session {
	var kept []Session
	for _, s := range sessions {
		if s.CompletedAt == nil {
			continue
		}
		if s.CompletedAt.Before(start) || s.CompletedAt.After(end) {
			continue
		}
		kept = append(kept, s)
	}
	slices.SortStableFunc(kept, func(a, b Session) int {
		if c := a.CompletedAt.Compare(*b.CompletedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return kept
}

// RegionStimulus is one row of a weekly report.
type RegionStimulus struct {
	Region   catalog.SubRegion `json:"region"`
	Stimulus float64           `json:"stimulus"`
}

// WeeklyReport summarises a week of completed sessions.
type WeeklyReport struct {
	WeekStart    time.Time        `json:"week_start"`
	WeekEnd      time.Time        `json:"week_end"`
	SessionCount int              `json:"session_count"`
	TotalVolume  float64          `json:"total_volume"`
	Regions      []RegionStimulus `json:"regions"`
}

// BuildWeeklyReport aggregates the week containing ref. Regions are sorted by descending stimulus, then by name.
func BuildWeeklyReport(sessions []Session, weights map[string][]catalog.RegionWeight, ref time.Time) WeeklyReport {
	start, end := WeekBoundaries(ref)
	within := sessionsWithin(sessions, start, end)
	report := WeeklyReport{
		WeekStart:    start,
		WeekEnd:      end,
		SessionCount: len(within),
		TotalVolume:  0,
		Regions:      nil,
	}
	for _, s := range within {
		report.TotalVolume += SessionVolume(s.Exercises)
	}
	for region, stimulus := range AggregateWeeklyStimulus(within, weights, start, end) {
		report.Regions = append(report.Regions, RegionStimulus{Region: region, Stimulus: stimulus})
	}
	slices.SortFunc(report.Regions, func(a, b RegionStimulus) int {
		if c := cmp.Compare(b.Stimulus, a.Stimulus); c != 0 {
			return c
		}
		return cmp.Compare(a.Region, b.Region)
	})
	return report
}
