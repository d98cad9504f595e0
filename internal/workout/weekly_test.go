package workout_test

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/myrjola/liftcoach/internal/catalog"
	"github.com/myrjola/liftcoach/internal/ptr"
	"github.com/myrjola/liftcoach/internal/workout"
)

func TestWeekBoundaries(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	tests := []struct {
		name      string
		ref       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "wednesday",
			ref:       time.Date(2026, 10, 14, 15, 30, 0, 0, loc),
			wantStart: time.Date(2026, 10, 11, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, 10, 17, 23, 59, 59, 999_000_000, loc),
		},
		{
			name:      "sunday is the first day",
			ref:       time.Date(2026, 10, 11, 0, 0, 0, 0, loc),
			wantStart: time.Date(2026, 10, 11, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, 10, 17, 23, 59, 59, 999_000_000, loc),
		},
		{
			name:      "saturday night is the last moment",
			ref:       time.Date(2026, 10, 17, 23, 59, 59, 0, loc),
			wantStart: time.Date(2026, 10, 11, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, 10, 17, 23, 59, 59, 999_000_000, loc),
		},
		{
			name:      "crosses month and year",
			ref:       time.Date(2027, 1, 1, 8, 0, 0, 0, loc),
			wantStart: time.Date(2026, 12, 27, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2027, 1, 2, 23, 59, 59, 999_000_000, loc),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := workout.WeekBoundaries(tt.ref)
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Errorf("WeekBoundaries() = %v - %v, want %v - %v", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func weeklyFixture() ([]workout.Session, map[string][]catalog.RegionWeight, time.Time, time.Time) {
	start, end := workout.WeekBoundaries(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	weights := map[string][]catalog.RegionWeight{
		"bench-press": {{Region: catalog.RegionChestMid, Weight: 0.7}, {Region: catalog.RegionChestLower, Weight: 0.3}},
		"back-squat":  {{Region: catalog.RegionQuads, Weight: 0.55}, {Region: catalog.RegionGlutes, Weight: 0.3}},
	}
	bench := workout.SessionExercise{ExerciseID: "bench-press", Sets: []workout.SetLog{
		completed(100, 5, nil), completed(100, 5, ptr.Ref(9.0)), completed(95, 6, ptr.Ref(6.0)),
	}}
	squat := workout.SessionExercise{ExerciseID: "back-squat", Sets: []workout.SetLog{
		completed(140, 5, ptr.Ref(7.0)), completed(140, 5, ptr.Ref(8.5)),
	}}
	unknown := workout.SessionExercise{ExerciseID: "mystery-machine", Sets: []workout.SetLog{completed(50, 10, nil)}}
	sessions := []workout.Session{
		{ID: "a", StartedAt: start, CompletedAt: ptr.Ref(start), Exercises: []workout.SessionExercise{bench, unknown}},
		{
			ID: "b", StartedAt: start, CompletedAt: ptr.Ref(start.AddDate(0, 0, 2)),
			Exercises: []workout.SessionExercise{squat},
		},
		{ID: "c", StartedAt: start, CompletedAt: ptr.Ref(end), Exercises: []workout.SessionExercise{bench, squat}},
		{ID: "in-progress", StartedAt: start, CompletedAt: nil, Exercises: []workout.SessionExercise{bench}},
		{ID: "last-week", StartedAt: start, CompletedAt: ptr.Ref(start.Add(-time.Millisecond)),
			Exercises: []workout.SessionExercise{bench}},
		{ID: "next-week", StartedAt: start, CompletedAt: ptr.Ref(end.Add(time.Millisecond)),
			Exercises: []workout.SessionExercise{squat}},
	}
	return sessions, weights, start, end
}

func TestParseDay(t *testing.T) {
	got, err := workout.ParseDay("2025-01-01")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("ParseDay = %v, want %v", got, want)
	}
	start, _ := workout.WeekBoundaries(got)
	if want := time.Date(2024, 12, 29, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("week start = %v, want %v", start, want)
	}

	for _, bad := range []string{"yesterday", "2025-13-01", "01/01/2025"} {
		if _, err = workout.ParseDay(bad); !errors.Is(err, workout.ErrInvalidDate) {
			t.Errorf("ParseDay(%q) error = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestAggregateWeeklyStimulus(t *testing.T) {
	sessions, weights, start, end := weeklyFixture()

	got := workout.AggregateWeeklyStimulus(sessions, weights, start, end)

	benchStimulus := workout.ExerciseSubRegionStimulus(sessions[0].Exercises[0].Sets, weights["bench-press"])
	squatStimulus := workout.ExerciseSubRegionStimulus(sessions[1].Exercises[0].Sets, weights["back-squat"])
	want := map[catalog.SubRegion]float64{
		catalog.RegionChestMid:   2 * benchStimulus[catalog.RegionChestMid],
		catalog.RegionChestLower: 2 * benchStimulus[catalog.RegionChestLower],
		catalog.RegionQuads:      2 * squatStimulus[catalog.RegionQuads],
		catalog.RegionGlutes:     2 * squatStimulus[catalog.RegionGlutes],
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("AggregateWeeklyStimulus() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateWeeklyStimulusIsOrderIndependent(t *testing.T) {
	sessions, weights, start, end := weeklyFixture()
	want := workout.AggregateWeeklyStimulus(sessions, weights, start, end)

	r := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // deterministic shuffle for the test.
	for range 20 {
		shuffled := append([]workout.Session(nil), sessions...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := workout.AggregateWeeklyStimulus(shuffled, weights, start, end)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("permuted sessions changed totals (-want +got):\n%s", diff)
		}
	}
}

func TestAggregateWeeklyStimulusExcludesOutsideSessions(t *testing.T) {
	sessions, weights, start, end := weeklyFixture()
	outside := []workout.Session{sessions[3], sessions[4], sessions[5]}
	if got := workout.AggregateWeeklyStimulus(outside, weights, start, end); len(got) != 0 {
		t.Errorf("expected no stimulus from incomplete or out-of-window sessions, got %v", got)
	}
}

func TestBuildWeeklyReport(t *testing.T) {
	sessions, weights, start, _ := weeklyFixture()

	report := workout.BuildWeeklyReport(sessions, weights, start.AddDate(0, 0, 3))

	if report.SessionCount != 3 {
		t.Errorf("SessionCount = %d, want 3", report.SessionCount)
	}
	wantVolume := workout.SessionVolume(sessions[0].Exercises) +
		workout.SessionVolume(sessions[1].Exercises) +
		workout.SessionVolume(sessions[2].Exercises)
	if !almostEqual(report.TotalVolume, wantVolume) {
		t.Errorf("TotalVolume = %v, want %v", report.TotalVolume, wantVolume)
	}
	if len(report.Regions) != 4 {
		t.Fatalf("expected 4 regions, got %v", report.Regions)
	}
	for i := 1; i < len(report.Regions); i++ {
		if report.Regions[i-1].Stimulus < report.Regions[i].Stimulus {
			t.Errorf("regions not sorted by stimulus: %v", report.Regions)
		}
	}
}
