package main

import (
	"net/http"
)

// weeklyReportGET reports the Sunday-to-Saturday UTC week containing the date query parameter, today by default.
func (app *application) weeklyReportGET(w http.ResponseWriter, r *http.Request) {
	ref, err := parseDate(r.URL.Query().Get("date"), app.now().UTC())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	report, err := app.workoutService.WeeklyReport(r.Context(), ref)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, report)
}
