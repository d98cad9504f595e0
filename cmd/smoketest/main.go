package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/myrjola/liftcoach/internal/catalog"
	"github.com/myrjola/liftcoach/internal/e2etest"
	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/logging"
	"github.com/myrjola/liftcoach/internal/plan"
	"github.com/myrjola/liftcoach/internal/testhelpers"
	"github.com/myrjola/liftcoach/internal/workout"
)

// TestWorkoutFlow logs a short session end to end and checks that it shows up in the weekly report.
func TestWorkoutFlow(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	var exercises []catalog.Exercise
	if err := client.DoJSON(ctx, http.MethodGet, "/api/exercises?muscle=chest", nil, http.StatusOK,
		&exercises); err != nil {
		return fmt.Errorf("list exercises: %w", err)
	}
	if len(exercises) == 0 {
		return errors.New("no chest exercises in catalog")
	}

	var sess workout.Session
	start := map[string]any{"exercise_ids": []string{exercises[0].ID}}
	if err := client.DoJSON(ctx, http.MethodPost, "/api/sessions", start, http.StatusCreated, &sess); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	set := workout.SetLog{
		Status:     workout.SetCompleted,
		ActualLoad: 20, //nolint:mnd // empty barbell
		ActualReps: 10, //nolint:mnd // warm-up reps
		TargetLoad: nil,
		TargetReps: nil,
		RPE:        nil,
	}
	setPath := fmt.Sprintf("/api/sessions/%s/exercises/%s/sets/0", sess.ID, exercises[0].ID)
	if err := client.DoJSON(ctx, http.MethodPut, setPath, set, http.StatusOK, &sess); err != nil {
		return fmt.Errorf("log set: %w", err)
	}
	if err := client.DoJSON(ctx, http.MethodPost, "/api/sessions/"+sess.ID+"/complete", nil, http.StatusOK,
		&sess); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	var report workout.WeeklyReport
	if err := client.DoJSON(ctx, http.MethodGet, "/api/reports/weekly", nil, http.StatusOK, &report); err != nil {
		return fmt.Errorf("weekly report: %w", err)
	}
	if report.SessionCount == 0 {
		return fmt.Errorf("completed session %s missing from weekly report", sess.ID)
	}
	return nil
}

// TestPlan checks that a plan is produced. The language model may or may not be configured on the target.
func TestPlan(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second) //nolint:mnd // the model may be slow
	defer cancel()

	profile := plan.Profile{
		Age:               35, //nolint:mnd // smoke test profile
		Sex:               plan.SexFemale,
		WeightKg:          65,  //nolint:mnd // smoke test profile
		HeightCm:          168, //nolint:mnd // smoke test profile
		TargetWeightKg:    0,
		Goal:              plan.GoalGeneral,
		TrainingFrequency: 3, //nolint:mnd // smoke test profile
		Intensity:         plan.IntensityModerate,
		Timeframe:         plan.Timeframe3Months,
		CustomDays:        0,
	}
	var got plan.Plan
	if err := client.DoJSON(ctx, http.MethodPost, "/api/plans", profile, http.StatusOK, &got); err != nil {
		return fmt.Errorf("generate plan: %w", err)
	}
	if got.DailyCalories <= 0 || len(got.WorkoutSplit) == 0 {
		return fmt.Errorf("implausible plan %+v", got)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client := e2etest.NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err := TestWorkoutFlow(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing workout flow", slog.Any("error", err))
		os.Exit(1)
	}
	if err := TestPlan(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing plan", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
}
