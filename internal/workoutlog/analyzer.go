package workoutlog

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/montanaflynn/stats"
	"go.opentelemetry.io/otel/attribute"
)

// targetSessionsPerWeek is the completion target the stats are measured
// against. Intentionally a fixed policy constant, not user-configurable.
const targetSessionsPerWeek = 3

// DefaultStatsWindowDays is used when the caller provides no (or an
// invalid) stats window.
const DefaultStatsWindowDays = 30

type logsRepo interface {
	Add(ctx context.Context, workoutLog WorkoutLog) (*WorkoutLog, error)
	Get(ctx context.Context, id int) (*WorkoutLog, error)
	List(ctx context.Context, params ListParams) ([]WorkoutLog, error)
	Count(ctx context.Context, params ListParams) (int, error)
}

type Analyzer struct {
	repo logsRepo
	// ability to inject the clock, for deterministic stats windows in tests
	NowFunc func() time.Time
}

func NewAnalyzer(repo logsRepo) *Analyzer {
	return &Analyzer{
		repo:    repo,
		NowFunc: time.Now,
	}
}

// WorkoutStats computes the aggregate over the user's logs in the window
// [now - windowDays, now]. Assumes windowDays > 0 - the handler normalizes
// invalid values before getting here. Pure read, no mutation, so calling
// it twice without intervening writes yields identical results.
func (a *Analyzer) WorkoutStats(
	ctx context.Context,
	userID int,
	windowDays int,
) (_ *WorkoutStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.workoutlog.stats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))
	span.SetAttributes(attribute.Int("window.days", windowDays))

	endDate := a.NowFunc()
	startDate := endDate.AddDate(0, 0, -windowDays)

	logs, err := a.repo.List(ctx, ListParams{
		UserID: userID,
		From:   &startDate,
		To:     &endDate,
	})
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	if len(logs) == 0 {
		return &WorkoutStats{}, nil
	}

	var totalDuration int
	waterSamples := make([]float64, 0, len(logs))
	totalWaterIntake := 0
	for _, workoutLog := range logs {
		totalWaterIntake += workoutLog.WaterIntakeMl
		totalDuration += workoutLog.DurationSeconds
		waterSamples = append(waterSamples, float64(workoutLog.WaterIntakeMl))
	}

	avgWater, err := stats.Mean(waterSamples)
	if err != nil {
		return nil, fmt.Errorf("average water intake: %w", err)
	}

	totalWorkouts := len(logs)

	// target scaled to the window length in whole weeks; a window shorter
	// than a week has no target and thus no completion
	expectedWorkouts := (windowDays / 7) * targetSessionsPerWeek
	completionPercentage := 0.0
	if expectedWorkouts > 0 {
		completionPercentage = float64(totalWorkouts) / float64(expectedWorkouts) * 100
		if completionPercentage > 100 {
			completionPercentage = 100
		}
	}

	// logs come back sorted by date descending, so the first one is the latest
	lastWorkoutDate := logs[0].Date

	return &WorkoutStats{
		TotalWorkouts:          totalWorkouts,
		TotalWaterIntake:       totalWaterIntake,
		TotalDuration:          totalDuration,
		AverageWaterPerWorkout: avgWater,
		CompletionPercentage:   completionPercentage,
		LastWorkoutDate:        &lastWorkoutDate,
	}, nil
}
