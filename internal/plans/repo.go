package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPlanNotFound = errors.New("workout plan not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Add stores the plan together with its exercises. All or nothing.
func (r *Repo) Add(ctx context.Context, plan Plan) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = tx.QueryRow(
		ctx,
		`INSERT INTO workout_plan (user_id, name, description, created_at, import_batch_id)
			VALUES ($1, $2, $3, $4, $5) RETURNING id;`,
		plan.UserID, plan.Name, plan.Description, plan.CreatedAt, sqlStringOrNil(plan.ImportBatchID),
	).Scan(&plan.ID); err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}

	for i := range plan.Exercises {
		exercise := &plan.Exercises[i]
		exercise.PlanID = plan.ID
		exercise.Position = i
		if err = tx.QueryRow(
			ctx,
			`INSERT INTO workout_plan_exercise (plan_id, name, muscle_group, sets, reps, position)
				VALUES ($1, $2, $3, $4, $5, $6) RETURNING id;`,
			exercise.PlanID, exercise.Name, exercise.MuscleGroup,
			exercise.Sets, exercise.Reps, exercise.Position,
		).Scan(&exercise.ID); err != nil {
			return nil, fmt.Errorf("insert plan exercise: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &plan, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, description, created_at, import_batch_id
			FROM workout_plan WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}
	defer rows.Close()

	plans, err := r.rows2plans(rows)
	if err != nil {
		return nil, err
	}
	if len(plans) != 1 {
		return nil, ErrPlanNotFound
	}

	plan := plans[0]
	if plan.Exercises, err = r.planExercises(ctx, plan.ID); err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *Repo) List(ctx context.Context, userID int) (_ []Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, description, created_at, import_batch_id
			FROM workout_plan
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	plans, err := r.rows2plans(rows)
	if err != nil {
		return nil, err
	}

	for i := range plans {
		if plans[i].Exercises, err = r.planExercises(ctx, plans[i].ID); err != nil {
			return nil, err
		}
	}

	return plans, nil
}

// Delete removes the user's plan and its exercises. Logs referencing the
// plan keep their workout id, dangling references are handled at read time.
func (r *Repo) Delete(ctx context.Context, id, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_plan WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}

	return nil
}

func (r *Repo) PlanExists(ctx context.Context, planID, userID int) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.exists")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var exists bool
	if err := r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM workout_plan WHERE id = $1 AND user_id = $2);`,
		planID, userID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("query plan exists: %w", err)
	}

	return exists, nil
}

func (r *Repo) planExercises(ctx context.Context, planID int) ([]PlanExercise, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, plan_id, name, muscle_group, sets, reps, position
			FROM workout_plan_exercise
			WHERE plan_id = $1
			ORDER BY position;`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("query plan exercises: %w", err)
	}
	defer rows.Close()

	exercises := make([]PlanExercise, 0)
	for rows.Next() {
		var exercise PlanExercise
		var muscleGroup *string
		if err := rows.Scan(
			&exercise.ID,
			&exercise.PlanID,
			&exercise.Name,
			&muscleGroup,
			&exercise.Sets,
			&exercise.Reps,
			&exercise.Position,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if muscleGroup != nil {
			exercise.MuscleGroup = *muscleGroup
		}
		exercises = append(exercises, exercise)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return exercises, nil
}

func (r *Repo) rows2plans(rows pgx.Rows) ([]Plan, error) {
	plans := make([]Plan, 0)
	for rows.Next() {
		var plan Plan
		var description, importBatchID *string
		if err := rows.Scan(
			&plan.ID,
			&plan.UserID,
			&plan.Name,
			&description,
			&plan.CreatedAt,
			&importBatchID,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if description != nil {
			plan.Description = *description
		}
		if importBatchID != nil {
			plan.ImportBatchID = *importBatchID
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return plans, nil
}

func sqlStringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
