package main

import (
	"net/http"

	"github.com/myrjola/liftcoach/internal/plan"
)

// plansPOST drafts a plan for the posted profile. The response always succeeds for a valid profile. The source
// field tells whether the language model or the calculator produced it.
func (app *application) plansPOST(w http.ResponseWriter, r *http.Request) {
	var profile plan.Profile
	if err := decodeJSON(w, r, &profile); err != nil {
		app.handleError(w, r, err)
		return
	}
	if err := profile.Validate(); err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, app.planner.Generate(r.Context(), profile))
}
