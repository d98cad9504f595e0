package workout

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/sqlite"
)

// Timestamps are stored as fixed-width UTC strings so that they compare lexicographically.
const timestampFormat = "2006-01-02T15:04:05.000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, s)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse timestamp", slog.String("value", s))
	}
	return t, nil
}

// sessionRepository persists sessions in SQLite.
type sessionRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newSessionRepository(db *sqlite.Database, logger *slog.Logger) *sessionRepository {
	return &sessionRepository{db: db, logger: logger}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *sessionRepository) create(ctx context.Context, sess Session) (err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer r.rollback(ctx, tx)

	var completedAt *string
	if sess.CompletedAt != nil {
		s := formatTimestamp(*sess.CompletedAt)
		completedAt = &s
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO workout_sessions (id, started_at, completed_at) VALUES (?, ?, ?)`,
		sess.ID, formatTimestamp(sess.StartedAt), completedAt); err != nil {
		return errors.Wrap(err, "insert session")
	}
	for position, ex := range sess.Exercises {
		if err = insertExercise(ctx, tx, sess.ID, position, ex.ExerciseID); err != nil {
			return err
		}
		for index, set := range ex.Sets {
			if err = upsertSet(ctx, tx, sess.ID, position, index, set); err != nil {
				return err
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

func insertExercise(ctx context.Context, tx *sql.Tx, sessionID string, position int, exerciseID string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session_exercises (session_id, position, exercise_id) VALUES (?, ?, ?)`,
		sessionID, position, exerciseID); err != nil {
		return errors.Wrap(err, "insert session exercise", slog.String("exercise_id", exerciseID))
	}
	return nil
}

func upsertSet(ctx context.Context, tx *sql.Tx, sessionID string, position, index int, set SetLog) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO set_logs (session_id, exercise_position, set_index, status, actual_load, actual_reps,
		                      target_load, target_reps, rpe)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, exercise_position, set_index) DO UPDATE SET
			status      = excluded.status,
			actual_load = excluded.actual_load,
			actual_reps = excluded.actual_reps,
			target_load = excluded.target_load,
			target_reps = excluded.target_reps,
			rpe         = excluded.rpe`,
		sessionID, position, index, string(set.Status), set.ActualLoad, set.ActualReps,
		set.TargetLoad, set.TargetReps, set.RPE); err != nil {
		return errors.Wrap(err, "upsert set", slog.Int("position", position), slog.Int("index", index))
	}
	return nil
}

// get loads a session with its exercises and sets. Returns ErrNotFound when the id is unknown.
func (r *sessionRepository) get(ctx context.Context, q queryer, id string) (Session, error) {
	var (
		sess        Session
		startedAt   string
		completedAt sql.NullString
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, started_at, completed_at FROM workout_sessions WHERE id = ?`, id).
		Scan(&sess.ID, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "query session")
	}
	if err = sess.setTimestamps(startedAt, completedAt); err != nil {
		return Session{}, err
	}

	byID := map[string]*Session{sess.ID: &sess}
	if err = r.loadExercises(ctx, q, byID,
		`WHERE se.session_id = ?`, id); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// listCompleted returns the sessions completed within [from, to] ordered by completion time.
func (r *sessionRepository) listCompleted(ctx context.Context, from, to time.Time) (_ []Session, err error) {
	fromStr, toStr := formatTimestamp(from), formatTimestamp(to)
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, started_at, completed_at
		FROM workout_sessions
		WHERE completed_at BETWEEN ? AND ?
		ORDER BY completed_at, id`, fromStr, toStr)
	if err != nil {
		return nil, errors.Wrap(err, "query sessions")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close rows"))
		}
	}()

	var sessions []Session
	for rows.Next() {
		var (
			sess        Session
			startedAt   string
			completedAt sql.NullString
		)
		if err = rows.Scan(&sess.ID, &startedAt, &completedAt); err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		if err = sess.setTimestamps(startedAt, completedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows")
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	byID := make(map[string]*Session, len(sessions))
	for i := range sessions {
		byID[sessions[i].ID] = &sessions[i]
	}
	if err = r.loadExercises(ctx, r.db.ReadOnly, byID, `
		JOIN workout_sessions ws ON ws.id = se.session_id
		WHERE ws.completed_at BETWEEN ? AND ?`, fromStr, toStr); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Session) setTimestamps(startedAt string, completedAt sql.NullString) error {
	var err error
	if s.StartedAt, err = parseTimestamp(startedAt); err != nil {
		return errors.Wrap(err, "started_at")
	}
	if completedAt.Valid {
		var t time.Time
		if t, err = parseTimestamp(completedAt.String); err != nil {
			return errors.Wrap(err, "completed_at")
		}
		s.CompletedAt = &t
	}
	return nil
}

// loadExercises fills in the exercises and sets of the sessions in byID. where filters session_exercises aliased se.
func (r *sessionRepository) loadExercises(
	ctx context.Context,
	q queryer,
	byID map[string]*Session,
	where string,
	args ...any,
) (err error) {
	//nolint:gosec // where is a constant from this file.
	rows, err := q.QueryContext(ctx, `
		SELECT se.session_id, se.position, se.exercise_id,
		       sl.set_index, sl.status, sl.actual_load, sl.actual_reps, sl.target_load, sl.target_reps, sl.rpe
		FROM session_exercises se
		LEFT JOIN set_logs sl ON sl.session_id = se.session_id AND sl.exercise_position = se.position
		`+where+`
		ORDER BY se.session_id, se.position, sl.set_index`, args...)
	if err != nil {
		return errors.Wrap(err, "query exercises")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close rows"))
		}
	}()

	for rows.Next() {
		var (
			sessionID, exerciseID string
			position              int
			setIndex, actualReps  sql.NullInt64
			status                sql.NullString
			actualLoad            sql.NullFloat64
			targetLoad, rpe       sql.NullFloat64
			targetReps            sql.NullInt64
		)
		if err = rows.Scan(&sessionID, &position, &exerciseID,
			&setIndex, &status, &actualLoad, &actualReps, &targetLoad, &targetReps, &rpe); err != nil {
			return errors.Wrap(err, "scan exercise row")
		}
		sess, ok := byID[sessionID]
		if !ok {
			continue
		}
		if len(sess.Exercises) <= position {
			sess.Exercises = append(sess.Exercises, SessionExercise{ExerciseID: exerciseID, Sets: []SetLog{}})
		}
		if !setIndex.Valid {
			continue
		}
		set := SetLog{
			Status:     SetStatus(status.String),
			ActualLoad: actualLoad.Float64,
			ActualReps: int(actualReps.Int64),
			TargetLoad: nil,
			TargetReps: nil,
			RPE:        nil,
		}
		if targetLoad.Valid {
			set.TargetLoad = &targetLoad.Float64
		}
		if targetReps.Valid {
			reps := int(targetReps.Int64)
			set.TargetReps = &reps
		}
		if rpe.Valid {
			set.RPE = &rpe.Float64
		}
		last := &sess.Exercises[len(sess.Exercises)-1]
		last.Sets = append(last.Sets, set)
	}
	if err = rows.Err(); err != nil {
		return errors.Wrap(err, "rows")
	}
	return nil
}

// logSet stores set at index for exerciseID within one write transaction. The exercise is appended to the session
// when it is not there yet. index may replace an existing set or append exactly one past the end.
func (r *sessionRepository) logSet(
	ctx context.Context,
	sessionID, exerciseID string,
	index int,
	set SetLog,
) (_ Session, err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errors.Wrap(err, "begin")
	}
	defer r.rollback(ctx, tx)

	sess, err := r.get(ctx, tx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if sess.IsCompleted() {
		return Session{}, ErrSessionCompleted
	}

	position := -1
	for i, ex := range sess.Exercises {
		if ex.ExerciseID == exerciseID {
			position = i
			break
		}
	}
	existing := 0
	if position < 0 {
		position = len(sess.Exercises)
		if err = insertExercise(ctx, tx, sessionID, position, exerciseID); err != nil {
			return Session{}, err
		}
	} else {
		existing = len(sess.Exercises[position].Sets)
	}
	if index > existing {
		return Session{}, errors.Wrap(ErrInvalidSetIndex, "set index beyond end",
			slog.Int("index", index), slog.Int("sets", existing))
	}

	if err = upsertSet(ctx, tx, sessionID, position, index, set); err != nil {
		return Session{}, err
	}
	updated, err := r.get(ctx, tx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if err = tx.Commit(); err != nil {
		return Session{}, errors.Wrap(err, "commit")
	}
	return updated, nil
}

// complete stamps completedAt on an in-progress session.
func (r *sessionRepository) complete(ctx context.Context, sessionID string, completedAt time.Time) (Session, error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errors.Wrap(err, "begin")
	}
	defer r.rollback(ctx, tx)

	sess, err := r.get(ctx, tx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if sess.IsCompleted() {
		return Session{}, ErrSessionCompleted
	}
	if completedAt.Before(sess.StartedAt) {
		return Session{}, errors.Wrap(ErrInvalidSession, "completed before start")
	}
	if _, err = tx.ExecContext(ctx, `UPDATE workout_sessions SET completed_at = ? WHERE id = ?`,
		formatTimestamp(completedAt), sessionID); err != nil {
		return Session{}, errors.Wrap(err, "update completed_at")
	}
	if err = tx.Commit(); err != nil {
		return Session{}, errors.Wrap(err, "commit")
	}
	t := completedAt.UTC().Truncate(time.Millisecond)
	sess.CompletedAt = &t
	return sess, nil
}

func (r *sessionRepository) rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to roll back", errors.SlogError(err))
	}
}
