package main

import (
	"bytes"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/myrjola/liftcoach/internal/catalog"
	"github.com/myrjola/liftcoach/internal/errors"
)

type exerciseDetail struct {
	catalog.Exercise
	DescriptionHTML       string             `json:"description_html"`
	SubstitutionExercises []catalog.Exercise `json:"substitution_exercises"`
}

// exercisesGET lists catalog exercises. The q, muscle and equipment query parameters narrow the result and
// combine with AND.
func (app *application) exercisesGET(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := catalog.Query{
		Name:      query.Get("q"),
		Muscle:    "",
		Equipment: "",
	}
	if muscle := query.Get("muscle"); muscle != "" {
		m, err := catalog.ParseMuscleGroup(muscle)
		if err != nil {
			app.clientError(w, r, http.StatusBadRequest, err)
			return
		}
		q.Muscle = m
	}
	if equipment := query.Get("equipment"); equipment != "" {
		eq, err := catalog.ParseEquipment(equipment)
		if err != nil {
			app.clientError(w, r, http.StatusBadRequest, err)
			return
		}
		q.Equipment = eq
	}
	exercises := app.catalog.Find(q)
	if exercises == nil {
		exercises = []catalog.Exercise{}
	}
	app.writeJSON(w, r, http.StatusOK, exercises)
}

func (app *application) exerciseGET(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	exercise, ok := app.catalog.Get(id)
	if !ok {
		app.notFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(exercise.DescriptionMarkdown), &buf); err != nil {
		app.serverError(w, r, errors.Wrap(err, "render description"))
		return
	}
	substitutions := app.catalog.SubstitutionsFor(id)
	if substitutions == nil {
		substitutions = []catalog.Exercise{}
	}
	app.writeJSON(w, r, http.StatusOK, exerciseDetail{
		Exercise:              exercise,
		DescriptionHTML:       buf.String(),
		SubstitutionExercises: substitutions,
	})
}

func (app *application) muscleGroupsGET(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, app.catalog.AllMuscleGroups())
}
