package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/liftcoach/internal/catalog"
	"github.com/myrjola/liftcoach/internal/e2etest"
	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/plan"
	"github.com/myrjola/liftcoach/internal/ptr"
	"github.com/myrjola/liftcoach/internal/suggest"
	"github.com/myrjola/liftcoach/internal/testhelpers"
	"github.com/myrjola/liftcoach/internal/workout"
)

func testLookupEnv(key string) (string, bool) {
	switch key {
	case "LIFTCOACH_SQLITE_URL":
		return ":memory:", true
	case "LIFTCOACH_ADDR":
		return "localhost:0", true
	default:
		return "", false
	}
}

func startServer(t *testing.T, lookupEnv func(string) (string, bool)) *e2etest.Client {
	t.Helper()
	return e2etest.Start(t, testhelpers.NewWriter(t), lookupEnv, run).Client()
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	var statusErr *e2etest.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected status %d, got error %v", status, err)
	}
	if statusErr.StatusCode != status {
		t.Fatalf("Expected status %d, got %d: %s", status, statusErr.StatusCode, statusErr.Body)
	}
}

func Test_application_healthy(t *testing.T) {
	client := startServer(t, testLookupEnv)

	resp, err := client.Get(t.Context(), "/api/healthy")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	for _, header := range []string{"Content-Security-Policy", "X-Content-Type-Options", "Cache-Control"} {
		if resp.Header.Get(header) == "" {
			t.Errorf("Expected header %s to be set", header)
		}
	}

	var health healthResponse
	if err = client.DoJSON(t.Context(), http.MethodGet, "/api/healthy", nil, http.StatusOK, &health); err != nil {
		t.Fatalf("Decode health: %v", err)
	}
	want := healthResponse{Status: "ok", Exercises: catalog.Default().Len()}
	if diff := cmp.Diff(want, health); diff != "" {
		t.Errorf("Health mismatch (-want +got):\n%s", diff)
	}
}

func Test_application_exercises(t *testing.T) {
	var (
		ctx    = t.Context()
		client = startServer(t, testLookupEnv)
	)

	t.Run("List all", func(t *testing.T) {
		var exercises []catalog.Exercise
		if err := client.DoJSON(ctx, http.MethodGet, "/api/exercises", nil, http.StatusOK, &exercises); err != nil {
			t.Fatalf("List exercises: %v", err)
		}
		if len(exercises) != catalog.Default().Len() {
			t.Errorf("Expected %d exercises, got %d", catalog.Default().Len(), len(exercises))
		}
	})

	t.Run("Filter", func(t *testing.T) {
		var exercises []catalog.Exercise
		err := client.DoJSON(ctx, http.MethodGet, "/api/exercises?muscle=chest&equipment=barbell", nil,
			http.StatusOK, &exercises)
		if err != nil {
			t.Fatalf("Filter exercises: %v", err)
		}
		want := catalog.Default().Find(catalog.Query{Name: "", Muscle: "chest", Equipment: "barbell"})
		if diff := cmp.Diff(want, exercises); diff != "" {
			t.Errorf("Filtered exercises mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("No match is an empty list", func(t *testing.T) {
		var exercises []catalog.Exercise
		err := client.DoJSON(ctx, http.MethodGet, "/api/exercises?q=zzzz", nil, http.StatusOK, &exercises)
		if err != nil {
			t.Fatalf("Search exercises: %v", err)
		}
		if exercises == nil || len(exercises) != 0 {
			t.Errorf("Expected empty non-null list, got %v", exercises)
		}
	})

	t.Run("Unknown muscle", func(t *testing.T) {
		err := client.DoJSON(ctx, http.MethodGet, "/api/exercises?muscle=wings", nil, http.StatusOK, nil)
		wantStatus(t, err, http.StatusBadRequest)
	})

	t.Run("Detail", func(t *testing.T) {
		var detail struct {
			ID                    string             `json:"id"`
			DescriptionHTML       string             `json:"description_html"`
			SubstitutionExercises []catalog.Exercise `json:"substitution_exercises"`
		}
		err := client.DoJSON(ctx, http.MethodGet, "/api/exercises/bench-press", nil, http.StatusOK, &detail)
		if err != nil {
			t.Fatalf("Get exercise: %v", err)
		}
		if detail.ID != "bench-press" {
			t.Errorf("Expected bench-press, got %q", detail.ID)
		}
		if detail.DescriptionHTML == "" {
			t.Error("Expected rendered description")
		}
		want := catalog.Default().SubstitutionsFor("bench-press")
		if len(detail.SubstitutionExercises) != len(want) {
			t.Errorf("Expected %d substitutions, got %d", len(want), len(detail.SubstitutionExercises))
		}
	})

	t.Run("Unknown exercise", func(t *testing.T) {
		err := client.DoJSON(ctx, http.MethodGet, "/api/exercises/nope", nil, http.StatusOK, nil)
		wantStatus(t, err, http.StatusNotFound)
	})

	t.Run("Muscle groups", func(t *testing.T) {
		var groups []catalog.MuscleGroup
		err := client.DoJSON(ctx, http.MethodGet, "/api/muscle-groups", nil, http.StatusOK, &groups)
		if err != nil {
			t.Fatalf("Get muscle groups: %v", err)
		}
		if diff := cmp.Diff(catalog.Default().AllMuscleGroups(), groups); diff != "" {
			t.Errorf("Muscle groups mismatch (-want +got):\n%s", diff)
		}
	})
}

func Test_application_suggestions(t *testing.T) {
	var (
		ctx    = t.Context()
		client = startServer(t, testLookupEnv)
	)

	cfg := suggest.Config{
		MuscleGroups:  []catalog.MuscleGroup{"chest", "triceps"},
		SplitType:     "push",
		TrainingStyle: suggest.StyleStrength,
		UserHistory:   nil,
	}
	var got suggest.Result
	if err := client.DoJSON(ctx, http.MethodPost, "/api/suggestions", cfg, http.StatusOK, &got); err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	want := suggest.Suggest(catalog.Default(), cfg)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Suggestions mismatch (-want +got):\n%s", diff)
	}

	t.Run("Empty request", func(t *testing.T) {
		for _, body := range []map[string]any{{}, {"muscle_groups": []string{}}} {
			var empty struct {
				Suggestions json.RawMessage `json:"suggestions"`
				Count       int             `json:"count"`
			}
			if err := client.DoJSON(ctx, http.MethodPost, "/api/suggestions", body, http.StatusOK, &empty); err != nil {
				t.Fatalf("Suggest %v: %v", body, err)
			}
			if string(empty.Suggestions) != "[]" || empty.Count != 0 {
				t.Errorf("Suggest %v = %s count %d, want [] count 0", body, empty.Suggestions, empty.Count)
			}
		}
	})

	t.Run("Unknown field", func(t *testing.T) {
		body := map[string]any{"muscle_groups": []string{"chest"}, "muscles": []string{"chest"}}
		err := client.DoJSON(ctx, http.MethodPost, "/api/suggestions", body, http.StatusOK, nil)
		wantStatus(t, err, http.StatusBadRequest)
	})
}

func testProfile() plan.Profile {
	return plan.Profile{
		Age:               30,
		Sex:               plan.SexMale,
		WeightKg:          80,
		HeightCm:          180,
		TargetWeightKg:    75,
		Goal:              plan.GoalLoseWeight,
		TrainingFrequency: 3,
		Intensity:         plan.IntensityModerate,
		Timeframe:         plan.Timeframe3Months,
		CustomDays:        0,
	}
}

func Test_application_plansWithoutModel(t *testing.T) {
	var (
		ctx    = t.Context()
		client = startServer(t, testLookupEnv)
	)

	var got plan.Plan
	if err := client.DoJSON(ctx, http.MethodPost, "/api/plans", testProfile(), http.StatusOK, &got); err != nil {
		t.Fatalf("Generate plan: %v", err)
	}
	if diff := cmp.Diff(plan.Calculate(testProfile()), got); diff != "" {
		t.Errorf("Plan mismatch (-want +got):\n%s", diff)
	}

	t.Run("Invalid profile", func(t *testing.T) {
		profile := testProfile()
		profile.Age = 0
		err := client.DoJSON(ctx, http.MethodPost, "/api/plans", profile, http.StatusOK, nil)
		wantStatus(t, err, http.StatusUnprocessableEntity)
	})
}

func Test_application_sessions(t *testing.T) {
	var (
		ctx     = t.Context()
		client  = startServer(t, testLookupEnv)
		started = time.Date(2026, time.March, 3, 17, 0, 0, 0, time.UTC)
		sess    workout.Session
	)

	body := map[string]any{"started_at": started, "exercise_ids": []string{"bench-press"}}
	if err := client.DoJSON(ctx, http.MethodPost, "/api/sessions", body, http.StatusCreated, &sess); err != nil {
		t.Fatalf("Start session: %v", err)
	}
	sessionPath := "/api/sessions/" + sess.ID

	set := workout.SetLog{
		Status:     workout.SetCompleted,
		ActualLoad: 100,
		ActualReps: 5,
		TargetLoad: nil,
		TargetReps: nil,
		RPE:        ptr.Ref(8.0),
	}
	for i := range 2 {
		path := sessionPath + "/exercises/bench-press/sets/" + strconv.Itoa(i)
		if err := client.DoJSON(ctx, http.MethodPut, path, set, http.StatusOK, &sess); err != nil {
			t.Fatalf("Log set %d: %v", i, err)
		}
	}

	t.Run("Set index gap", func(t *testing.T) {
		err := client.DoJSON(ctx, http.MethodPut, sessionPath+"/exercises/bench-press/sets/5", set, http.StatusOK, nil)
		wantStatus(t, err, http.StatusUnprocessableEntity)
	})

	t.Run("Invalid set", func(t *testing.T) {
		invalid := set
		invalid.ActualReps = -1
		err := client.DoJSON(ctx, http.MethodPut, sessionPath+"/exercises/bench-press/sets/2", invalid,
			http.StatusOK, nil)
		wantStatus(t, err, http.StatusUnprocessableEntity)
	})

	t.Run("Unknown session", func(t *testing.T) {
		err := client.DoJSON(ctx, http.MethodGet, "/api/sessions/does-not-exist", nil, http.StatusOK, nil)
		wantStatus(t, err, http.StatusNotFound)
	})

	var got workout.Session
	if err := client.DoJSON(ctx, http.MethodGet, sessionPath, nil, http.StatusOK, &got); err != nil {
		t.Fatalf("Get session: %v", err)
	}
	if len(got.Exercises) != 1 || len(got.Exercises[0].Sets) != 2 {
		t.Fatalf("Expected one exercise with two sets, got %+v", got.Exercises)
	}

	completed := started.Add(time.Hour)
	completeBody := map[string]any{"completed_at": completed}
	if err := client.DoJSON(ctx, http.MethodPost, sessionPath+"/complete", completeBody, http.StatusOK, &got); err != nil {
		t.Fatalf("Complete session: %v", err)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completed) {
		t.Errorf("Expected completed at %v, got %v", completed, got.CompletedAt)
	}

	t.Run("Completed sessions are immutable", func(t *testing.T) {
		err := client.DoJSON(ctx, http.MethodPut, sessionPath+"/exercises/bench-press/sets/0", set, http.StatusOK, nil)
		wantStatus(t, err, http.StatusConflict)
		err = client.DoJSON(ctx, http.MethodPost, sessionPath+"/complete", nil, http.StatusOK, nil)
		wantStatus(t, err, http.StatusConflict)
	})

	t.Run("Weekly report", func(t *testing.T) {
		var report workout.WeeklyReport
		err := client.DoJSON(ctx, http.MethodGet, "/api/reports/weekly?date=2026-03-05", nil, http.StatusOK, &report)
		if err != nil {
			t.Fatalf("Weekly report: %v", err)
		}
		if report.SessionCount != 1 {
			t.Errorf("Expected 1 session, got %d", report.SessionCount)
		}
		if report.TotalVolume != 1000 {
			t.Errorf("Expected total volume 1000, got %v", report.TotalVolume)
		}
		if len(report.Regions) == 0 {
			t.Error("Expected stimulus regions")
		}

		err = client.DoJSON(ctx, http.MethodGet, "/api/reports/weekly?date=2026-03-12", nil, http.StatusOK, &report)
		if err != nil {
			t.Fatalf("Weekly report: %v", err)
		}
		if report.SessionCount != 0 {
			t.Errorf("Expected empty next week, got %d sessions", report.SessionCount)
		}
	})

	t.Run("Invalid date", func(t *testing.T) {
		err := client.DoJSON(ctx, http.MethodGet, "/api/reports/weekly?date=March", nil, http.StatusOK, nil)
		wantStatus(t, err, http.StatusBadRequest)
	})
}

func Test_application_notFound(t *testing.T) {
	client := startServer(t, testLookupEnv)

	err := client.DoJSON(t.Context(), http.MethodGet, "/does-not-exist", nil, http.StatusOK, nil)
	wantStatus(t, err, http.StatusNotFound)
}

func Test_application_metrics(t *testing.T) {
	client := startServer(t, testLookupEnv)

	resp, err := client.Get(t.Context(), "/metrics")
	if err != nil {
		t.Fatalf("Get metrics: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func Test_application_mcp(t *testing.T) {
	client := startServer(t, testLookupEnv)

	initialize := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": "2025-03-26",
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": "test", "version": "0"},
		},
	}
	var resp struct {
		Result struct {
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	if err := client.DoJSON(t.Context(), http.MethodPost, "/mcp", initialize, http.StatusOK, &resp); err != nil {
		t.Fatalf("Initialize MCP session: %v", err)
	}
	if resp.Result.ServerInfo.Name != "liftcoach" {
		t.Errorf("Expected server name liftcoach, got %q", resp.Result.ServerInfo.Name)
	}
}
