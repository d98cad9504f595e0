package workout

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/myrjola/liftcoach/internal/catalog"
	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/observability"
	"github.com/myrjola/liftcoach/internal/sqlite"
)

var (
	ErrNotFound         = errors.NewSentinel("session not found")
	ErrSessionCompleted = errors.NewSentinel("session already completed")
	ErrUnknownExercise  = errors.NewSentinel("unknown exercise")
	ErrInvalidSet       = errors.NewSentinel("invalid set")
	ErrInvalidSetIndex  = errors.NewSentinel("invalid set index")
	ErrInvalidSession   = errors.NewSentinel("invalid session")
	ErrInvalidDate      = errors.NewSentinel("invalid date")
)

// Service records workout sessions and reports on them.
type Service struct {
	repo    *sessionRepository
	catalog *catalog.Catalog
	weights map[string][]catalog.RegionWeight
	logger  *slog.Logger
}

// NewService creates a workout service backed by db. Logged exercises must exist in cat.
func NewService(db *sqlite.Database, logger *slog.Logger, cat *catalog.Catalog) *Service {
	return &Service{
		repo:    newSessionRepository(db, logger),
		catalog: cat,
		weights: cat.SubRegionWeights(),
		logger:  logger,
	}
}

// StartSession creates an in-progress session with the given planned exercises and no sets.
func (s *Service) StartSession(ctx context.Context, startedAt time.Time, exerciseIDs []string) (Session, error) {
	seen := make(map[string]bool, len(exerciseIDs))
	sess := Session{
		ID:          uuid.NewString(),
		StartedAt:   startedAt.UTC().Truncate(time.Millisecond),
		CompletedAt: nil,
		Exercises:   make([]SessionExercise, 0, len(exerciseIDs)),
	}
	for _, id := range exerciseIDs {
		if _, ok := s.catalog.Get(id); !ok {
			return Session{}, errors.Wrap(ErrUnknownExercise, "start session", slog.String("exercise_id", id))
		}
		if seen[id] {
			return Session{}, errors.Wrap(ErrInvalidSession, "duplicate exercise", slog.String("exercise_id", id))
		}
		seen[id] = true
		sess.Exercises = append(sess.Exercises, SessionExercise{ExerciseID: id, Sets: []SetLog{}})
	}
	if err := s.repo.create(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "create session")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "started session",
		slog.String("session_id", sess.ID), slog.Int("exercises", len(exerciseIDs)))
	return sess, nil
}

// GetSession returns the session with id or ErrNotFound.
func (s *Service) GetSession(ctx context.Context, id string) (Session, error) {
	sess, err := s.repo.get(ctx, s.repo.db.ReadOnly, id)
	if err != nil {
		return Session{}, errors.Wrap(err, "get session", slog.String("session_id", id))
	}
	return sess, nil
}

// ListCompleted returns the sessions completed within the closed interval [from, to].
func (s *Service) ListCompleted(ctx context.Context, from, to time.Time) ([]Session, error) {
	sessions, err := s.repo.listCompleted(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "list completed sessions")
	}
	return sessions, nil
}

// LogSet records set at index for exerciseID in an in-progress session. An existing set at index is replaced and
// index == len(sets) appends. The exercise is added to the session on its first logged set.
func (s *Service) LogSet(ctx context.Context, sessionID, exerciseID string, index int, set SetLog) (Session, error) {
	if _, ok := s.catalog.Get(exerciseID); !ok {
		return Session{}, errors.Wrap(ErrUnknownExercise, "log set", slog.String("exercise_id", exerciseID))
	}
	if index < 0 {
		return Session{}, errors.Wrap(ErrInvalidSetIndex, "negative index", slog.Int("index", index))
	}
	if err := validateSet(set); err != nil {
		return Session{}, err
	}
	sess, err := s.repo.logSet(ctx, sessionID, exerciseID, index, set)
	if err != nil {
		return Session{}, errors.Wrap(err, "log set", slog.String("session_id", sessionID))
	}
	return sess, nil
}

func validateSet(set SetLog) error {
	switch {
	case !set.Status.Valid():
		return errors.Wrap(ErrInvalidSet, "unknown status", slog.String("status", string(set.Status)))
	case set.ActualLoad < 0 || math.IsNaN(set.ActualLoad) || math.IsInf(set.ActualLoad, 0):
		return errors.Wrap(ErrInvalidSet, "load must be a non-negative number")
	case set.ActualReps < 0:
		return errors.Wrap(ErrInvalidSet, "reps must not be negative")
	case set.TargetLoad != nil && *set.TargetLoad < 0:
		return errors.Wrap(ErrInvalidSet, "target load must not be negative")
	case set.TargetReps != nil && *set.TargetReps < 0:
		return errors.Wrap(ErrInvalidSet, "target reps must not be negative")
	case set.RPE != nil && (*set.RPE < 1 || *set.RPE > 10):
		return errors.Wrap(ErrInvalidSet, "rpe must be within [1, 10]", slog.Float64("rpe", *set.RPE))
	}
	return nil
}

// CompleteSession marks the session finished at completedAt. Completed sessions can no longer be edited.
func (s *Service) CompleteSession(ctx context.Context, sessionID string, completedAt time.Time) (Session, error) {
	sess, err := s.repo.complete(ctx, sessionID, completedAt)
	if err != nil {
		return Session{}, errors.Wrap(err, "complete session", slog.String("session_id", sessionID))
	}
	observability.RecordSessionCompleted()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "completed session",
		slog.String("session_id", sessionID), slog.Float64("volume", SessionVolume(sess.Exercises)))
	return sess, nil
}

// WeeklyReport aggregates the sessions completed in the Sunday-to-Saturday week containing ref.
func (s *Service) WeeklyReport(ctx context.Context, ref time.Time) (WeeklyReport, error) {
	start, end := WeekBoundaries(ref)
	sessions, err := s.repo.listCompleted(ctx, start, end)
	if err != nil {
		return WeeklyReport{}, errors.Wrap(err, "list week sessions")
	}
	return BuildWeeklyReport(sessions, s.weights, ref), nil
}

// Ping checks that both database handles answer.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.repo.db.ReadOnly.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping read-only db")
	}
	if err := s.repo.db.ReadWrite.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping read-write db")
	}
	return nil
}
