package workoutlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrLogNotFound = errors.New("workout log not found")

type ListParams struct {
	UserID int
	From   *time.Time
	To     *time.Time
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add persists the given log and returns it with the id assigned by the
// database sequence. The insert is a single statement, so it either fully
// lands or not at all.
func (r *Repo) Add(ctx context.Context, workoutLog WorkoutLog) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", workoutLog.UserID))

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO workout_log
				(user_id, workout_id, date, completed_exercises, water_intake_ml, duration_seconds, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;`,
		workoutLog.UserID, workoutLog.WorkoutID, workoutLog.Date,
		workoutLog.CompletedExercises, workoutLog.WaterIntakeMl, workoutLog.DurationSeconds,
		workoutLog.Notes,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("workoutlog.id", id))

	workoutLog.ID = id
	return &workoutLog, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, workout_id, date, completed_exercises, water_intake_ml, duration_seconds, notes
			FROM workout_log
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	logs, err := r.rows2logs(rows)
	if err != nil {
		return nil, err
	}

	if len(logs) != 1 {
		return nil, ErrLogNotFound
	}

	return &logs[0], nil
}

// List returns all logs of a user, optionally narrowed to a date range
// (both bounds inclusive), most recent first.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", params.UserID))
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, workout_id, date, completed_exercises, water_intake_ml, duration_seconds, notes
			FROM workout_log
			WHERE user_id = $1
			AND ($2::timestamp IS NULL OR date >= $2)
			AND ($3::timestamp IS NULL OR date <= $3)
			ORDER BY date DESC, id ASC;`,
		params.UserID, params.From, params.To,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	logs, err := r.rows2logs(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2logs: %w", err)
	}
	return logs, nil
}

func (r *Repo) Count(ctx context.Context, params ListParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workoutlog.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT COUNT(*) FROM workout_log
			WHERE user_id = $1
			AND ($2::timestamp IS NULL OR date >= $2)
			AND ($3::timestamp IS NULL OR date <= $3);
	`,
		params.UserID, params.From, params.To,
	)
	if err != nil {
		return -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return -1, err
	}

	if rows.Next() {
		var count int
		if err := rows.Scan(&count); err == nil {
			return count, nil
		}
	}

	return -1, errors.New("unexpected error, failed to get workout logs count")
}

func (r *Repo) rows2logs(rows pgx.Rows) ([]WorkoutLog, error) {
	var logs []WorkoutLog
	for rows.Next() {
		var id int
		var userID int
		var workoutID *int
		var date time.Time
		var completedExercises int
		var waterIntakeMl int
		var durationSeconds int
		var notes *string
		if err := rows.Scan(
			&id, &userID, &workoutID, &date,
			&completedExercises, &waterIntakeMl, &durationSeconds, &notes,
		); err != nil {
			return nil, err
		}

		workoutLog := WorkoutLog{
			ID:                 id,
			UserID:             userID,
			WorkoutID:          workoutID,
			Date:               date,
			CompletedExercises: completedExercises,
			WaterIntakeMl:      waterIntakeMl,
			DurationSeconds:    durationSeconds,
		}
		if notes != nil {
			workoutLog.Notes = *notes
		}

		logs = append(logs, workoutLog)
	}

	if logs == nil {
		logs = make([]WorkoutLog, 0)
	}

	return logs, nil
}
