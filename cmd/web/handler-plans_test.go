package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/liftcoach/internal/plan"
)

// fakeOpenAI answers chat completions with content and counts the calls.
func fakeOpenAI(t *testing.T, status int, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"unavailable","type":"server_error","code":"unavailable"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode fake completion: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func lookupEnvWithModel(baseURL string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		switch key {
		case "LIFTCOACH_OPENAI_API_KEY":
			return "test-key", true
		case "LIFTCOACH_OPENAI_BASE_URL":
			return baseURL, true
		case "LIFTCOACH_AI_TIMEOUT":
			return "5s", true
		default:
			return testLookupEnv(key)
		}
	}
}

func Test_application_plansFromModel(t *testing.T) {
	const content = "Here is your plan:\n```json\n" + `{"dailyCalories": 2300, "protein": 160, "carbs": 230, ` +
		`"fats": 75, "workoutSplit": ["Push", "Pull", "Legs"], "estimatedWeeks": 12, ` +
		`"additionalNotes": "Sleep well."}` + "\n```"
	var (
		ctx          = t.Context()
		model, calls = fakeOpenAI(t, http.StatusOK, content)
		client       = startServer(t, lookupEnvWithModel(model.URL))
	)

	want := plan.Plan{
		DailyCalories:   2300,
		ProteinGrams:    160,
		CarbsGrams:      230,
		FatsGrams:       75,
		WorkoutSplit:    []string{"Push", "Pull", "Legs"},
		EstimatedWeeks:  12,
		AdditionalNotes: "Sleep well.",
		Source:          plan.SourceAI,
	}
	for range 2 {
		var got plan.Plan
		if err := client.DoJSON(ctx, http.MethodPost, "/api/plans", testProfile(), http.StatusOK, &got); err != nil {
			t.Fatalf("Generate plan: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Plan mismatch (-want +got):\n%s", diff)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("Expected the second identical request to be served from cache, got %d model calls", n)
	}
}

func Test_application_plansFallback(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{name: "model error", status: http.StatusBadRequest, content: ""},
		{name: "prose instead of JSON", status: http.StatusOK, content: "I cannot help with that."},
		{name: "missing fields", status: http.StatusOK, content: `{"dailyCalories": 2000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				model, _ = fakeOpenAI(t, tt.status, tt.content)
				client   = startServer(t, lookupEnvWithModel(model.URL))
				got      plan.Plan
			)
			err := client.DoJSON(t.Context(), http.MethodPost, "/api/plans", testProfile(), http.StatusOK, &got)
			if err != nil {
				t.Fatalf("Generate plan: %v", err)
			}
			if diff := cmp.Diff(plan.Calculate(testProfile()), got); diff != "" {
				t.Errorf("Fallback plan mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
