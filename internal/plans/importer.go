package plans

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Spreadsheet column layout expected by the importer:
//
//	plan | exercise | muscle group | sets | reps
//
// Consecutive rows with the same plan name end up in the same plan.
var expectedHeader = []string{"plan", "exercise", "muscle group", "sets", "reps"}

var ErrNoPlansInFile = errors.New("no plans found in file")

// ParsePlansFile reads an .xlsx or .csv upload into plans. The returned
// plans carry a shared, freshly generated import batch id, user and db
// ids get assigned later.
func ParsePlansFile(r io.Reader, filename string) ([]Plan, error) {
	var rows [][]string
	var err error

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx":
		rows, err = readExcelRows(r)
	case ".csv":
		rows, err = csv.NewReader(r).ReadAll()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	return rows2plans(rows)
}

func readExcelRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return rows, nil
}

func rows2plans(rows [][]string) ([]Plan, error) {
	if len(rows) < 2 {
		return nil, ErrNoPlansInFile
	}

	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	importBatchID := uuid.NewString()

	var parsedPlans []Plan
	var currentPlan *Plan
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, skipping the header

		if rowIsEmpty(row) {
			continue
		}
		if len(row) < len(expectedHeader) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", rowNum, len(expectedHeader), len(row))
		}

		planName := strings.TrimSpace(row[0])
		exerciseName := strings.TrimSpace(row[1])
		if planName == "" || exerciseName == "" {
			return nil, fmt.Errorf("row %d: plan and exercise must not be empty", rowNum)
		}

		sets, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil || sets <= 0 {
			return nil, fmt.Errorf("row %d: invalid sets value [%s]", rowNum, row[3])
		}
		reps, err := strconv.Atoi(strings.TrimSpace(row[4]))
		if err != nil || reps <= 0 {
			return nil, fmt.Errorf("row %d: invalid reps value [%s]", rowNum, row[4])
		}

		if currentPlan == nil || currentPlan.Name != planName {
			parsedPlans = append(parsedPlans, Plan{
				Name:          planName,
				ImportBatchID: importBatchID,
			})
			currentPlan = &parsedPlans[len(parsedPlans)-1]
		}

		currentPlan.Exercises = append(currentPlan.Exercises, PlanExercise{
			Name:        exerciseName,
			MuscleGroup: strings.TrimSpace(row[2]),
			Sets:        sets,
			Reps:        reps,
			Position:    len(currentPlan.Exercises),
		})
	}

	if len(parsedPlans) == 0 {
		return nil, ErrNoPlansInFile
	}

	return parsedPlans, nil
}

func checkHeader(header []string) error {
	if len(header) < len(expectedHeader) {
		return fmt.Errorf("invalid header, expected columns: %s", strings.Join(expectedHeader, " | "))
	}
	for i, expected := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), expected) {
			return fmt.Errorf("invalid header column %d, expected [%s], got [%s]", i+1, expected, header[i])
		}
	}
	return nil
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
