package plans

import "time"

type Plan struct {
	ID     int `json:"id"`
	UserID int `json:"userId"`

	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	// plans uploaded in the same spreadsheet share a batch id
	ImportBatchID string `json:"importBatchId,omitempty"`

	Exercises []PlanExercise `json:"exercises"`
}

type PlanExercise struct {
	ID     int `json:"id"`
	PlanID int `json:"planId"`

	Name        string `json:"name"`
	MuscleGroup string `json:"muscleGroup,omitempty"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	// position within the plan, starting at 0
	Position int `json:"position"`
}
