package plans_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/2beens/fittracker/internal/plans"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testPlansCSV = `plan,exercise,muscle group,sets,reps
Push Day,Bench Press,chest,4,8
Push Day,Overhead Press,shoulders,3,10
Pull Day,Deadlift,back,3,5
Pull Day,Barbell Row,back,4,8
Pull Day,Biceps Curl,biceps,3,12
`

func TestParsePlansFile_CSV(t *testing.T) {
	parsedPlans, err := plans.ParsePlansFile(strings.NewReader(testPlansCSV), "plans.csv")
	require.NoError(t, err)
	require.Len(t, parsedPlans, 2)

	pushDay := parsedPlans[0]
	assert.Equal(t, "Push Day", pushDay.Name)
	require.Len(t, pushDay.Exercises, 2)
	assert.Equal(t, "Bench Press", pushDay.Exercises[0].Name)
	assert.Equal(t, "chest", pushDay.Exercises[0].MuscleGroup)
	assert.Equal(t, 4, pushDay.Exercises[0].Sets)
	assert.Equal(t, 8, pushDay.Exercises[0].Reps)
	assert.Equal(t, 0, pushDay.Exercises[0].Position)
	assert.Equal(t, 1, pushDay.Exercises[1].Position)

	pullDay := parsedPlans[1]
	assert.Equal(t, "Pull Day", pullDay.Name)
	assert.Len(t, pullDay.Exercises, 3)

	// all plans of one upload share the batch id
	assert.NotEmpty(t, pushDay.ImportBatchID)
	assert.Equal(t, pushDay.ImportBatchID, pullDay.ImportBatchID)
}

func TestParsePlansFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"plan", "exercise", "muscle group", "sets", "reps"},
		{"Leg Day", "Squat", "quads", 5, 5},
		{"Leg Day", "Leg Curl", "hamstrings", 3, 12},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	parsedPlans, err := plans.ParsePlansFile(bytes.NewReader(buf.Bytes()), "plans.xlsx")
	require.NoError(t, err)
	require.Len(t, parsedPlans, 1)
	assert.Equal(t, "Leg Day", parsedPlans[0].Name)
	require.Len(t, parsedPlans[0].Exercises, 2)
	assert.Equal(t, "Squat", parsedPlans[0].Exercises[0].Name)
	assert.Equal(t, 5, parsedPlans[0].Exercises[0].Sets)
}

func TestParsePlansFile_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		filename    string
		expectedErr string
	}{
		{
			name:        "UnsupportedExtension",
			content:     testPlansCSV,
			filename:    "plans.pdf",
			expectedErr: "unsupported file type",
		},
		{
			name:        "HeaderOnly",
			content:     "plan,exercise,muscle group,sets,reps\n",
			filename:    "plans.csv",
			expectedErr: "no plans found",
		},
		{
			name:        "WrongHeader",
			content:     "name,exercise,muscle group,sets,reps\nPush Day,Bench Press,chest,4,8\n",
			filename:    "plans.csv",
			expectedErr: "invalid header",
		},
		{
			name:        "InvalidSets",
			content:     "plan,exercise,muscle group,sets,reps\nPush Day,Bench Press,chest,zero,8\n",
			filename:    "plans.csv",
			expectedErr: "invalid sets value",
		},
		{
			name:        "NegativeReps",
			content:     "plan,exercise,muscle group,sets,reps\nPush Day,Bench Press,chest,4,-8\n",
			filename:    "plans.csv",
			expectedErr: "invalid reps value",
		},
		{
			name:        "EmptyExerciseName",
			content:     "plan,exercise,muscle group,sets,reps\nPush Day,,chest,4,8\n",
			filename:    "plans.csv",
			expectedErr: "must not be empty",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := plans.ParsePlansFile(strings.NewReader(tc.content), tc.filename)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}
