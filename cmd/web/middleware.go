package main

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"runtime/trace"
	"time"

	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/logging"
)

// statusResponseWriter records the first status code and the body size for the request log.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	bytes         int
	headerWritten bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		bytes:          0,
		headerWritten:  false,
	}
}

func (sw *statusResponseWriter) WriteHeader(statusCode int) {
	sw.ResponseWriter.WriteHeader(statusCode)
	if !sw.headerWritten {
		sw.statusCode = statusCode
		sw.headerWritten = true
	}
}

func (sw *statusResponseWriter) Write(b []byte) (int, error) {
	sw.headerWritten = true
	n, err := sw.ResponseWriter.Write(b)
	sw.bytes += n
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

// Unwrap lets http.ResponseController reach Flush and SetWriteDeadline of the wrapped writer.
func (sw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// secureHeaders sets headers for an API that never serves active content.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none';")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")

		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// cachePublic marks responses that only depend on the built-in catalog as cacheable.
func cachePublic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

// logAndTraceRequest tags the context with a trace id and request attributes, logs the outcome and wraps the
// request in a runtime/trace task when tracing is on, e.g. while the flight recorder runs.
func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := rand.Text()
		ctx := logging.WithAttrs(r.Context(),
			slog.String("trace_id", traceID),
			slog.String("proto", r.Proto),
			slog.String("method", r.Method),
			slog.String("uri", r.URL.RequestURI()),
			slog.String("route", r.Pattern),
		)
		r = r.WithContext(ctx)
		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")

		sw := newStatusResponseWriter(w)
		if trace.IsEnabled() {
			serveTraced(sw, r, next, traceID, start)
		} else {
			next.ServeHTTP(sw, r)
		}

		level := slog.LevelInfo
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.Int("status_code", sw.statusCode),
			slog.Int("bytes", sw.bytes),
			slog.Duration("duration", time.Since(start)))

		if sw.statusCode == http.StatusServiceUnavailable && app.flightRecorder != nil {
			if _, err := app.flightRecorder.Capture(ctx, "timeout"); err != nil {
				app.logger.LogAttrs(ctx, slog.LevelError, "capture timeout trace", errors.SlogError(err))
			}
		}
	})
}

func serveTraced(sw *statusResponseWriter, r *http.Request, next http.Handler, traceID string, start time.Time) {
	ctx, task := trace.NewTask(r.Context(), fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path))
	defer task.End()
	trace.Log(ctx, "trace_id", traceID)
	next.ServeHTTP(sw, r.WithContext(ctx))
	trace.Log(ctx, "response", fmt.Sprintf("status=%d duration=%v", sw.statusCode, time.Since(start)))
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := errors.DecoratePanic(recover()); err != nil {
				app.logger.LogAttrs(r.Context(), slog.LevelError, "recovered panic",
					slog.String("stack", string(debug.Stack())))
				app.serverError(w, r, err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

const timeoutBody = `{"error":"timed out"}`

// timeout times out the request and cancels the context using http.TimeoutHandler.
func (app *application) timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// Writing the response takes time so the handler deadline is a little shorter than the write deadline.
		handlerTimeout := d - 200*time.Millisecond //nolint:mnd // 200ms
		return app.writeDeadline(d)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			http.TimeoutHandler(next, handlerTimeout, timeoutBody).ServeHTTP(w, r)
		}))
	}
}

// writeDeadline extends the connection's write deadline past the server default for handlers that wait on slow
// external services. Streaming handlers use it instead of timeout since http.TimeoutHandler cannot flush.
func (app *application) writeDeadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d > defaultTimeout {
				rc := http.NewResponseController(w)
				if err := rc.SetWriteDeadline(time.Now().Add(d)); err != nil {
					app.serverError(w, r, err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
