package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/observability"
	"github.com/myrjola/liftcoach/internal/suggest"
)

func (app *application) suggestionsPOST(w http.ResponseWriter, r *http.Request) {
	var cfg suggest.Config
	if err := decodeJSON(w, r, &cfg); err != nil {
		app.handleError(w, r, err)
		return
	}
	for _, m := range cfg.MuscleGroups {
		if !m.Valid() {
			app.handleError(w, r, errors.Wrap(errBadRequest, "unknown muscle group",
				slog.String("muscle_group", string(m))))
			return
		}
	}
	if !cfg.TrainingStyle.Valid() {
		app.handleError(w, r, errors.Wrap(errBadRequest, "unknown training style",
			slog.String("training_style", string(cfg.TrainingStyle))))
		return
	}
	result := suggest.Suggest(app.catalog, cfg)
	observability.ObserveSuggestions(result.Count)
	app.writeJSON(w, r, http.StatusOK, result)
}
