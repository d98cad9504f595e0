// Package catalog is the read-only exercise reference table.
//
// Lookups never fail with an error. Missing entries are reported with a false ok value so that callers decide how to
// handle them.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/myrjola/liftcoach/internal/errors"
)

//go:embed exercises.yaml
var exercisesYAML []byte

var (
	ErrUnknownTag       = errors.NewSentinel("unknown tag")
	ErrInvalidExercise  = errors.NewSentinel("invalid exercise")
	ErrDuplicateID      = errors.NewSentinel("duplicate exercise id")
	ErrNegativeWeight   = errors.NewSentinel("negative sub-region weight")
	ErrNoPrimaryMuscles = errors.NewSentinel("exercise has no primary muscles")
)

// Catalog indexes a fixed list of exercises. It is safe for concurrent use since it is never mutated after New.
type Catalog struct {
	exercises []Exercise
	byID      map[string]int
	byName    map[string]int
}

// New validates exercises and builds the lookup indexes. Definition order is preserved for every list result.
func New(exercises []Exercise) (*Catalog, error) {
	c := &Catalog{
		exercises: make([]Exercise, 0, len(exercises)),
		byID:      make(map[string]int, len(exercises)),
		byName:    make(map[string]int, len(exercises)),
	}
	var errs []error
	for _, e := range exercises {
		if err := validate(e); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := c.byID[e.ID]; ok {
			errs = append(errs, errors.Wrap(ErrDuplicateID, e.ID, slog.String("id", e.ID)))
			continue
		}
		c.byID[e.ID] = len(c.exercises)
		name := strings.ToLower(e.Name)
		if _, ok := c.byName[name]; !ok {
			c.byName[name] = len(c.exercises)
		}
		c.exercises = append(c.exercises, e.clone())
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func validate(e Exercise) error {
	id := slog.String("id", e.ID)
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Name) == "" {
		return errors.Wrap(ErrInvalidExercise, fmt.Sprintf("id and name are required: %q", e.ID), id)
	}
	if len(e.PrimaryMuscles) == 0 {
		return errors.Wrap(ErrNoPrimaryMuscles, e.ID, id)
	}
	if !e.MovementCategory.Valid() {
		return errors.Wrap(ErrUnknownTag, fmt.Sprintf("%s: movement category %q", e.ID, e.MovementCategory), id,
			slog.String("movement_category", string(e.MovementCategory)))
	}
	for _, m := range slices.Concat(e.PrimaryMuscles, e.SecondaryMuscles) {
		if !m.Valid() {
			return errors.Wrap(ErrUnknownTag, fmt.Sprintf("%s: muscle group %q", e.ID, m), id,
				slog.String("muscle_group", string(m)))
		}
	}
	for _, eq := range e.Equipment {
		if !eq.Valid() {
			return errors.Wrap(ErrUnknownTag, fmt.Sprintf("%s: equipment %q", e.ID, eq), id,
				slog.String("equipment", string(eq)))
		}
	}
	for _, rw := range e.SubRegionWeights {
		if !rw.Region.Valid() {
			return errors.Wrap(ErrUnknownTag, fmt.Sprintf("%s: sub-region %q", e.ID, rw.Region), id,
				slog.String("sub_region", string(rw.Region)))
		}
		if rw.Weight < 0 {
			return errors.Wrap(ErrNegativeWeight, fmt.Sprintf("%s: %s=%v", e.ID, rw.Region, rw.Weight), id,
				slog.Float64("weight", rw.Weight))
		}
	}
	return nil
}

// Parse decodes a YAML list of exercises and builds a Catalog from it.
func Parse(data []byte) (*Catalog, error) {
	var exercises []Exercise
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&exercises); err != nil {
		return nil, errors.Wrap(err, "decode exercises")
	}
	c, err := New(exercises)
	if err != nil {
		return nil, errors.Wrap(err, "new catalog")
	}
	return c, nil
}

//nolint:gochecknoglobals // the built-in table is parsed once.
var builtin = sync.OnceValues(func() (*Catalog, error) {
	return Parse(exercisesYAML)
})

// Default returns the built-in catalog. It panics if the embedded table is invalid, which the tests guard against.
func Default() *Catalog {
	c, err := builtin()
	if err != nil {
		panic(errors.Wrap(err, "built-in exercise catalog"))
	}
	return c
}

// Len returns the number of exercises.
func (c *Catalog) Len() int {
	return len(c.exercises)
}

// All returns every exercise in definition order.
func (c *Catalog) All() []Exercise {
	return c.filter(func(Exercise) bool { return true })
}

// Get returns the exercise with the given id.
func (c *Catalog) Get(id string) (Exercise, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Exercise{}, false
	}
	return c.exercises[i].clone(), true
}

// ByName returns the exercise whose name equals name, ignoring case.
func (c *Catalog) ByName(name string) (Exercise, bool) {
	i, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return Exercise{}, false
	}
	return c.exercises[i].clone(), true
}

// Search returns exercises whose name contains query, ignoring case. An empty query matches everything.
func (c *Catalog) Search(query string) []Exercise {
	q := strings.ToLower(query)
	return c.filter(func(e Exercise) bool {
		return strings.Contains(strings.ToLower(e.Name), q)
	})
}

// ByMuscleGroup returns exercises listing m as a primary or secondary muscle.
func (c *Catalog) ByMuscleGroup(m MuscleGroup) []Exercise {
	return c.filter(func(e Exercise) bool { return e.Targets(m) })
}

// ByEquipment returns exercises that use eq.
func (c *Catalog) ByEquipment(eq Equipment) []Exercise {
	return c.filter(func(e Exercise) bool { return e.Uses(eq) })
}

// Query combines name search with optional muscle and equipment filters. Empty fields match everything.
type Query struct {
	Name      string
	Muscle    MuscleGroup
	Equipment Equipment
}

// Find returns the exercises matching every set field of q in catalog order.
func (c *Catalog) Find(q Query) []Exercise {
	name := strings.ToLower(q.Name)
	return c.filter(func(e Exercise) bool {
		return strings.Contains(strings.ToLower(e.Name), name) &&
			(q.Muscle == "" || e.Targets(q.Muscle)) &&
			(q.Equipment == "" || e.Uses(q.Equipment))
	})
}

// SubstitutionsFor resolves the substitution ids of the exercise with the given id. Ids that do not resolve are
// dropped silently.
func (c *Catalog) SubstitutionsFor(id string) []Exercise {
	i, ok := c.byID[id]
	if !ok {
		return nil
	}
	var subs []Exercise
	for _, subID := range c.exercises[i].Substitutions {
		if sub, found := c.Get(subID); found {
			subs = append(subs, sub)
		}
	}
	return subs
}

// AllMuscleGroups returns the union of every exercise's primary and secondary muscles in first-seen order.
func (c *Catalog) AllMuscleGroups() []MuscleGroup {
	seen := make(map[MuscleGroup]struct{})
	var groups []MuscleGroup
	for _, e := range c.exercises {
		for _, m := range slices.Concat(e.PrimaryMuscles, e.SecondaryMuscles) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			groups = append(groups, m)
		}
	}
	return groups
}

// SubRegionWeights returns the id to sub-region weight mapping consumed by the weekly aggregation.
func (c *Catalog) SubRegionWeights() map[string][]RegionWeight {
	weights := make(map[string][]RegionWeight, len(c.exercises))
	for _, e := range c.exercises {
		weights[e.ID] = slices.Clone(e.SubRegionWeights)
	}
	return weights
}

func (c *Catalog) filter(keep func(Exercise) bool) []Exercise {
	var result []Exercise
	for _, e := range c.exercises {
		if keep(e) {
			result = append(result, e.clone())
		}
	}
	return result
}
