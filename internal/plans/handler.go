package plans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// 5 MB is plenty for a workout plan spreadsheet
const maxImportFileSize = 5 << 20

type plansRepo interface {
	Add(ctx context.Context, plan Plan) (*Plan, error)
	Get(ctx context.Context, id int) (*Plan, error)
	List(ctx context.Context, userID int) ([]Plan, error)
	Delete(ctx context.Context, id, userID int) error
	PlanExists(ctx context.Context, planID, userID int) (bool, error)
}

type ListResponse struct {
	Plans []Plan `json:"plans"`
	Total int    `json:"total"`
}

type ImportResponse struct {
	ImportBatchID string `json:"importBatchId"`
	Plans         []Plan `json:"plans"`
	Total         int    `json:"total"`
}

type Handler struct {
	repo plansRepo
	// uploaded spreadsheets get an audit copy here, empty disables it
	uploadsPath    string
	metricsManager *metrics.Manager
}

func NewHandler(repo plansRepo, uploadsPath string, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		uploadsPath:    uploadsPath,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/plans", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-plan")
	router.HandleFunc("/plans", handler.HandleList).Methods("GET", "OPTIONS").Name("list-plans")
	router.HandleFunc("/plans/import", handler.HandleImport).Methods("POST", "OPTIONS").Name("import-plans")
	router.HandleFunc("/plans/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-plan")
	router.HandleFunc("/plans/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-plan")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.add")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var plan Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		log.Tracef("new plan, unmarshal json params: %s", err)
		http.Error(w, "add plan failed", http.StatusBadRequest)
		return
	}

	if err := validatePlan(plan); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan.UserID = userID
	plan.ImportBatchID = ""

	addedPlan, err := handler.repo.Add(ctx, plan)
	if err != nil {
		log.Errorf("failed to add new plan for user %d: %s", userID, err)
		http.Error(w, "error, failed to add new plan", http.StatusInternalServerError)
		return
	}

	addedPlanJson, err := json.Marshal(addedPlan)
	if err != nil {
		log.Errorf("failed to marshal new plan: %s", err)
		http.Error(w, "error, failed to add new plan", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedPlanJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	plan, err := handler.repo.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrPlanNotFound) {
		log.Errorf("failed to get plan %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if errors.Is(err, ErrPlanNotFound) || plan.UserID != userID {
		http.Error(w, "workout plan not found", http.StatusNotFound)
		return
	}

	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("failed to marshal plan: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	userPlans, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("list plans error: %s", err)
		http.Error(w, "failed to get plans", http.StatusInternalServerError)
		return
	}

	listResponseJson, err := json.Marshal(ListResponse{
		Plans: userPlans,
		Total: len(userPlans),
	})
	if err != nil {
		log.Errorf("marshal plans error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listResponseJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	err = handler.repo.Delete(ctx, id, userID)
	if errors.Is(err, ErrPlanNotFound) {
		http.Error(w, "workout plan not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to delete plan %d: %s", id, err)
		http.Error(w, "failed to delete plan", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", id))
}

// HandleImport takes a spreadsheet upload (multipart form, field "file")
// and stores the plans found in it.
func (handler *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.import")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxImportFileSize); err != nil {
		log.Tracef("import plans, parse multipart form: %s", err)
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "error, file missing", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	fileContent, err := io.ReadAll(file)
	if err != nil {
		log.Errorf("import plans, read upload: %s", err)
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}

	parsedPlans, err := ParsePlansFile(bytes.NewReader(fileContent), fileHeader.Filename)
	if err != nil {
		log.Tracef("import plans for user %d failed: %s", userID, err)
		http.Error(w, fmt.Sprintf("import failed: %s", err), http.StatusBadRequest)
		return
	}

	handler.saveUploadCopy(parsedPlans[0].ImportBatchID, fileHeader.Filename, fileContent)

	importedPlans := make([]Plan, 0, len(parsedPlans))
	for _, plan := range parsedPlans {
		plan.UserID = userID
		addedPlan, err := handler.repo.Add(ctx, plan)
		if err != nil {
			log.Errorf("failed to store imported plan %s for user %d: %s", plan.Name, userID, err)
			http.Error(w, "import failed", http.StatusInternalServerError)
			return
		}
		importedPlans = append(importedPlans, *addedPlan)
	}

	handler.metricsManager.CounterPlanImports.Inc()
	log.Debugf("imported %d plans for user %d from %s", len(importedPlans), userID, fileHeader.Filename)

	importResponseJson, err := json.Marshal(ImportResponse{
		ImportBatchID: importedPlans[0].ImportBatchID,
		Plans:         importedPlans,
		Total:         len(importedPlans),
	})
	if err != nil {
		log.Errorf("marshal imported plans error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, importResponseJson, http.StatusCreated)
}

// saveUploadCopy keeps the original spreadsheet on disk, the import
// itself never fails because of it.
func (handler *Handler) saveUploadCopy(importBatchID, filename string, content []byte) {
	if handler.uploadsPath == "" {
		return
	}
	copyPath := filepath.Join(handler.uploadsPath, importBatchID+"-"+filepath.Base(filename))
	if err := os.WriteFile(copyPath, content, 0o644); err != nil {
		log.Warnf("failed to save upload copy %s: %s", copyPath, err)
	}
}

func validatePlan(plan Plan) error {
	if plan.Name == "" {
		return errors.New("error, plan name empty")
	}
	for _, exercise := range plan.Exercises {
		if exercise.Name == "" {
			return errors.New("error, exercise name empty")
		}
		if exercise.Sets <= 0 || exercise.Reps <= 0 {
			return fmt.Errorf("error, exercise %s must have positive sets and reps", exercise.Name)
		}
	}
	return nil
}
