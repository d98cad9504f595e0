package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/plan"
	"github.com/myrjola/liftcoach/internal/workout"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.NewSentinel("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(append(body, '\n')); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "write response", errors.SlogError(err))
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	status := http.StatusInternalServerError
	app.writeJSON(w, r, status, errorResponse{Error: http.StatusText(status)})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "client error", slog.Int("status", status),
		errors.SlogError(err))
	app.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound)})
}

// handleError maps domain errors to client errors and everything else to a server error.
func (app *application) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workout.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, err)
	case errors.Is(err, workout.ErrSessionCompleted):
		app.clientError(w, r, http.StatusConflict, err)
	case errors.Is(err, workout.ErrUnknownExercise),
		errors.Is(err, workout.ErrInvalidSet),
		errors.Is(err, workout.ErrInvalidSetIndex),
		errors.Is(err, workout.ErrInvalidSession),
		errors.Is(err, plan.ErrInvalidProfile):
		app.clientError(w, r, http.StatusUnprocessableEntity, err)
	case errors.Is(err, errBadRequest), errors.Is(err, workout.ErrInvalidDate):
		app.clientError(w, r, http.StatusBadRequest, err)
	default:
		app.serverError(w, r, err)
	}
}

// decodeJSON decodes the request body into dst. Unknown fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(errBadRequest, "decode body: "+err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.Wrap(errBadRequest, "body must contain a single JSON value")
	}
	return nil
}

// parseDate parses an optional YYYY-MM-DD day with workout.ParseDay. An empty value returns fallback.
func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return workout.ParseDay(value) //nolint:wrapcheck // ErrInvalidDate maps to 400 in handleError.
}

// parseIndexParam parses a non-negative integer path parameter.
func parseIndexParam(r *http.Request, name string) (int, error) {
	value := r.PathValue(name)
	index, err := strconv.Atoi(value)
	if err != nil || index < 0 {
		return 0, errors.Wrap(errBadRequest, name+" must be a non-negative integer", slog.String(name, value))
	}
	return index, nil
}
