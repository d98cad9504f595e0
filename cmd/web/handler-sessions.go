package main

import (
	"net/http"
	"time"

	"github.com/myrjola/liftcoach/internal/ptr"
	"github.com/myrjola/liftcoach/internal/workout"
)

type startSessionRequest struct {
	// StartedAt defaults to the current time.
	StartedAt   *time.Time `json:"started_at"`
	ExerciseIDs []string   `json:"exercise_ids"`
}

type completeSessionRequest struct {
	CompletedAt *time.Time `json:"completed_at"`
}

func (app *application) sessionsPOST(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	sess, err := app.workoutService.StartSession(r.Context(), ptr.Deref(req.StartedAt, app.now()), req.ExerciseIDs)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	app.writeJSON(w, r, http.StatusCreated, sess)
}

func (app *application) sessionGET(w http.ResponseWriter, r *http.Request) {
	sess, err := app.workoutService.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, sess)
}

// setPUT records the set at index for the exercise. Index may equal the number of logged sets to append one.
func (app *application) setPUT(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndexParam(r, "index")
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	var set workout.SetLog
	if err = decodeJSON(w, r, &set); err != nil {
		app.handleError(w, r, err)
		return
	}
	sess, err := app.workoutService.LogSet(r.Context(), r.PathValue("id"), r.PathValue("exerciseID"), index, set)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, sess)
}

// sessionCompletePOST finalises the session. The body is optional and completed_at defaults to the current time.
func (app *application) sessionCompletePOST(w http.ResponseWriter, r *http.Request) {
	var req completeSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			app.handleError(w, r, err)
			return
		}
	}
	completedAt := ptr.Deref(req.CompletedAt, app.now())
	sess, err := app.workoutService.CompleteSession(r.Context(), r.PathValue("id"), completedAt)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, sess)
}
