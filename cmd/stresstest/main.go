package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/myrjola/liftcoach/internal/catalog"
	"github.com/myrjola/liftcoach/internal/e2etest"
	"github.com/myrjola/liftcoach/internal/logging"
	"github.com/myrjola/liftcoach/internal/ptr"
	"github.com/myrjola/liftcoach/internal/suggest"
	"github.com/myrjola/liftcoach/internal/testhelpers"
	"github.com/myrjola/liftcoach/internal/workout"
)

const (
	scenarioTimeout         = 30 * time.Second
	historyTimeout          = 5 * time.Minute
	maxConcurrentOperations = 20
	numScenarios            = 200
	workoutHistoryWeeks     = 26 // 6 months of weekly workouts
	sessionsPerWeek         = 3
	setsPerExercise         = 3
	baseWeight              = 15.0
	weightRange             = 20
	baseReps                = 8
	repsRange               = 8
	successRateThreshold    = 95.0
	percentageMultiplier    = 100
	expectedArgsCount       = 2
)

var splits = [][]catalog.MuscleGroup{
	{catalog.MuscleChest, catalog.MuscleShoulders, catalog.MuscleTriceps},
	{catalog.MuscleLats, catalog.MuscleUpperBack, catalog.MuscleBiceps},
	{catalog.MuscleQuads, catalog.MuscleHamstrings, catalog.MuscleGlutes},
}

// logSession starts a session with the suggested exercises, logs random sets and completes it.
func logSession(ctx context.Context, client *e2etest.Client, muscles []catalog.MuscleGroup, startedAt time.Time) error {
	var suggestions suggest.Result
	cfg := suggest.Config{MuscleGroups: muscles, SplitType: "", TrainingStyle: suggest.StyleHypertrophy, UserHistory: nil}
	if err := client.DoJSON(ctx, http.MethodPost, "/api/suggestions", cfg, http.StatusOK, &suggestions); err != nil {
		return fmt.Errorf("suggest exercises: %w", err)
	}
	const exercisesPerSession = 4
	ids := make([]string, 0, exercisesPerSession)
	for _, s := range suggestions.Suggestions[:min(exercisesPerSession, len(suggestions.Suggestions))] {
		ids = append(ids, s.Exercise.ID)
	}

	var sess workout.Session
	start := map[string]any{"started_at": startedAt, "exercise_ids": ids}
	if err := client.DoJSON(ctx, http.MethodPost, "/api/sessions", start, http.StatusCreated, &sess); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	for _, id := range ids {
		for i := range setsPerExercise {
			set := workout.SetLog{
				Status:     workout.SetCompleted,
				ActualLoad: baseWeight + float64(rand.IntN(weightRange)), //nolint:gosec // load test data
				ActualReps: baseReps + rand.IntN(repsRange),              //nolint:gosec // load test data
				TargetLoad: nil,
				TargetReps: nil,
				RPE:        ptr.Ref(6 + float64(rand.IntN(9))/2), //nolint:gosec,mnd // 6 to 10 in half steps
			}
			path := fmt.Sprintf("/api/sessions/%s/exercises/%s/sets/%d", sess.ID, id, i)
			if err := client.DoJSON(ctx, http.MethodPut, path, set, http.StatusOK, nil); err != nil {
				return fmt.Errorf("log set: %w", err)
			}
		}
	}
	complete := map[string]any{"completed_at": startedAt.Add(time.Hour)}
	if err := client.DoJSON(ctx, http.MethodPost, "/api/sessions/"+sess.ID+"/complete", complete, http.StatusOK,
		nil); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}

// GenerateWorkoutHistory backfills completed sessions so that weekly reports have data to aggregate.
func GenerateWorkoutHistory(ctx context.Context, client *e2etest.Client, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	now := time.Now().UTC()
	for week := range workoutHistoryWeeks {
		for day := range sessionsPerWeek {
			startedAt := now.AddDate(0, 0, -7*week-2*day) //nolint:mnd // every other day
			g.Go(func() error {
				return logSession(ctx, client, splits[day%len(splits)], startedAt)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("generate history: %w", err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Workout history generated",
		slog.Int("sessions", workoutHistoryWeeks*sessionsPerWeek))
	return nil
}

// WorkoutScenario logs a session for today and reads the weekly report.
func WorkoutScenario(ctx context.Context, client *e2etest.Client, n int) error {
	if err := logSession(ctx, client, splits[n%len(splits)], time.Now().UTC()); err != nil {
		return err
	}
	var report workout.WeeklyReport
	if err := client.DoJSON(ctx, http.MethodGet, "/api/reports/weekly", nil, http.StatusOK, &report); err != nil {
		return fmt.Errorf("weekly report: %w", err)
	}
	return nil
}

// RunLoadTest runs the scenarios concurrently and fails when too many of them fail.
func RunLoadTest(ctx context.Context, client *e2etest.Client, logger *slog.Logger) error {
	var successCount, failureCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for n := range numScenarios {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()

			if err := WorkoutScenario(scenarioCtx, client, n); err != nil {
				failureCount.Add(1)
				// A single failure must not stop the other scenarios.
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed",
					slog.Int("scenario", n), slog.Any("error", err))
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount.Load()) / numScenarios * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", successRate))
	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
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

	historyStart := time.Now()
	if err := GenerateWorkoutHistory(ctx, client, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "workout history generation failed, continuing with load test",
			slog.Any("error", err))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Workout history generation completed",
		slog.Duration("history_duration", time.Since(historyStart)))

	loadTestStart := time.Now()
	if err := RunLoadTest(ctx, client, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Duration("load_test_duration", time.Since(loadTestStart)))
}
