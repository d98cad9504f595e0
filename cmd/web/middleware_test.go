package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/myrjola/liftcoach/internal/testhelpers"
)

type timeoutResponseWriter struct {
	httptest.ResponseRecorder
}

func newTimeoutResponseWriter() *timeoutResponseWriter {
	return &timeoutResponseWriter{
		ResponseRecorder: *httptest.NewRecorder(),
	}
}

// SetWriteDeadline is needed to not get "feature not implemented" error.
func (w *timeoutResponseWriter) SetWriteDeadline(_ time.Time) error {
	return nil
}

func Test_application_timeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		sleep    time.Duration
		timesOut bool
	}{
		{
			name:     "completes within timeout",
			timeout:  defaultTimeout,
			sleep:    500 * time.Millisecond,
			timesOut: false,
		},
		{
			name:     "times out",
			timeout:  defaultTimeout,
			sleep:    3 * time.Second,
			timesOut: true,
		},
		{
			name:     "plan timeout is longer",
			timeout:  22 * time.Second,
			sleep:    15 * time.Second,
			timesOut: false,
		},
		{
			name:     "plan timeout expires",
			timeout:  22 * time.Second,
			sleep:    25 * time.Second,
			timesOut: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				app := &application{ //nolint:exhaustruct // this is a test
					logger: testhelpers.NewLogger(testhelpers.NewWriter(t)),
				}
				slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					select {
					case <-time.After(tt.sleep):
						app.writeJSON(w, r, http.StatusOK, map[string]string{"status": "completed"})
					case <-r.Context().Done():
					}
				})
				handler := app.timeout(tt.timeout)(slow)

				req := httptest.NewRequest(http.MethodGet, "/api/slow", nil)
				w := newTimeoutResponseWriter()
				handler.ServeHTTP(w, req)

				if tt.timesOut {
					if w.Code != http.StatusServiceUnavailable {
						t.Errorf("Expected status 503 on timeout, got %d", w.Code)
					}
					if !strings.Contains(w.Body.String(), "timed out") {
						t.Errorf("Expected timeout message in response body, got: %s", w.Body.String())
					}
				} else if w.Code != http.StatusOK {
					t.Errorf("Expected status 200, got %d", w.Code)
				}
				if got := w.Header().Get("Content-Type"); got != "application/json" {
					t.Errorf("Expected JSON content type, got %q", got)
				}
			})
		})
	}
}

func Test_application_recoverPanic(t *testing.T) {
	app := &application{ //nolint:exhaustruct // this is a test
		logger: testhelpers.NewLogger(testhelpers.NewWriter(t)),
	}
	handler := app.recoverPanic(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Errorf("Panic details leaked to the client: %s", w.Body.String())
	}
}

func Test_application_logAndTraceRequest(t *testing.T) {
	app := &application{ //nolint:exhaustruct // this is a test
		logger: testhelpers.NewLogger(testhelpers.NewWriter(t)),
	}
	handler := app.logAndTraceRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected the first status code to win, got %d", w.Code)
	}
}
