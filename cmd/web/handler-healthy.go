package main

import (
	"net/http"

	"github.com/myrjola/liftcoach/internal/errors"
)

type healthResponse struct {
	Status    string `json:"status"`
	Exercises int    `json:"exercises"`
}

// healthy reports ok once the database answers and the catalog is loaded.
func (app *application) healthy(w http.ResponseWriter, r *http.Request) {
	if err := app.workoutService.Ping(r.Context()); err != nil {
		app.serverError(w, r, errors.Wrap(err, "health check"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Exercises: app.catalog.Len()})
}
