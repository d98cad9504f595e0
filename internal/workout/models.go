package workout

import (
	"time"
)

// SetStatus is the lifecycle state of a logged set.
type SetStatus string

const (
	SetPending   SetStatus = "pending"
	SetCompleted SetStatus = "completed"
	SetSkipped   SetStatus = "skipped"
)

// Valid reports whether s is one of the known statuses.
func (s SetStatus) Valid() bool {
	switch s {
	case SetPending, SetCompleted, SetSkipped:
		return true
	default:
		return false
	}
}

// SetLog is a single set logged during a session. Only completed sets count towards volume and stimulus.
//
// Load is in the user's chosen unit which is assumed consistent per user. RPE is in [1,10] in half-point steps.
type SetLog struct {
	Status     SetStatus `json:"status"`
	ActualLoad float64   `json:"actual_load"`
	ActualReps int       `json:"actual_reps"`
	TargetLoad *float64  `json:"target_load,omitempty"`
	TargetReps *int      `json:"target_reps,omitempty"`
	RPE        *float64  `json:"rpe,omitempty"`
}

// SessionExercise is an exercise paired with its sets in performed order. The first set is the top set.
type SessionExercise struct {
	ExerciseID string   `json:"exercise_id"`
	Sets       []SetLog `json:"sets"`
}

// Session is a workout. CompletedAt is nil while the session is in progress and the session is immutable once set.
type Session struct {
	ID          string            `json:"id"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Exercises   []SessionExercise `json:"exercises"`
}

// IsCompleted reports whether the session has been finalised.
func (s Session) IsCompleted() bool {
	return s.CompletedAt != nil
}
