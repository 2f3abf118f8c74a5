package workoutlog

import "time"

// WorkoutLog is one logged training session. Logs are created once and
// never mutated afterwards.
type WorkoutLog struct {
	ID     int `json:"id"`
	UserID int `json:"userId"`
	// WorkoutID optionally points to the workout plan this session followed
	WorkoutID          *int      `json:"workoutId,omitempty"`
	Date               time.Time `json:"date"`
	CompletedExercises int       `json:"completedExercises"`
	WaterIntakeMl      int       `json:"waterIntakeMl"`
	DurationSeconds    int       `json:"durationSeconds"`
	Notes              string    `json:"notes,omitempty"`
}

// WorkoutStats is derived per request from the logs in a date window,
// never persisted.
type WorkoutStats struct {
	TotalWorkouts          int        `json:"totalWorkouts"`
	TotalWaterIntake       int        `json:"totalWaterIntake"`
	TotalDuration          int        `json:"totalDuration"`
	AverageWaterPerWorkout float64    `json:"averageWaterPerWorkout"`
	CompletionPercentage   float64    `json:"completionPercentage"`
	LastWorkoutDate        *time.Time `json:"lastWorkoutDate,omitempty"`
}
