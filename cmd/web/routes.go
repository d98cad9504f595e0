package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(secureHeaders(next)))
		}
		api = func(next http.Handler) http.Handler {
			return shared(noCache(app.timeout(defaultTimeout)(next)))
		}
		catalogAPI = func(next http.Handler) http.Handler {
			return shared(cachePublic(app.timeout(defaultTimeout)(next)))
		}
		slowAPI = func(next http.Handler) http.Handler {
			return shared(noCache(app.timeout(app.planTimeout)(next)))
		}
	)

	mux.Handle("GET /api/healthy", api(http.HandlerFunc(app.healthy)))

	mux.Handle("GET /api/exercises", catalogAPI(http.HandlerFunc(app.exercisesGET)))
	mux.Handle("GET /api/exercises/{id}", catalogAPI(http.HandlerFunc(app.exerciseGET)))
	mux.Handle("GET /api/muscle-groups", catalogAPI(http.HandlerFunc(app.muscleGroupsGET)))
	mux.Handle("POST /api/suggestions", api(http.HandlerFunc(app.suggestionsPOST)))

	mux.Handle("POST /api/plans", slowAPI(http.HandlerFunc(app.plansPOST)))

	mux.Handle("POST /api/sessions", api(http.HandlerFunc(app.sessionsPOST)))
	mux.Handle("GET /api/sessions/{id}", api(http.HandlerFunc(app.sessionGET)))
	mux.Handle("PUT /api/sessions/{id}/exercises/{exerciseID}/sets/{index}", api(http.HandlerFunc(app.setPUT)))
	mux.Handle("POST /api/sessions/{id}/complete", api(http.HandlerFunc(app.sessionCompletePOST)))

	mux.Handle("GET /api/reports/weekly", api(http.HandlerFunc(app.weeklyReportGET)))

	mux.Handle("/mcp", shared(noCache(app.writeDeadline(app.planTimeout)(app.mcpHandler))))
	if app.serveMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	mux.Handle("/", shared(http.HandlerFunc(app.notFound)))

	return mux
}

// metricsRoutes serves the Prometheus endpoint on its own listener.
func metricsRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
