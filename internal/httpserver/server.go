package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/buildledger/scheduling/internal/archive"
	"github.com/buildledger/scheduling/internal/dateutil"
	"github.com/buildledger/scheduling/internal/evm"
	"github.com/buildledger/scheduling/internal/models"
	"github.com/buildledger/scheduling/internal/reports"
	"github.com/buildledger/scheduling/internal/schedule"
	"github.com/buildledger/scheduling/internal/store"
)

// Server is the orchestrating HTTP layer over the scheduling engine. It owns
// the store handle and supplies the as-of date (defaulting to today) to every
// time-sensitive calculation.
type Server struct {
	engine   *schedule.Engine
	calc     *evm.Calculator
	reporter *reports.Reporter
	archiver archive.Archiver
	store    store.Store
}

func New(engine *schedule.Engine, calc *evm.Calculator, reporter *reports.Reporter, archiver archive.Archiver, st store.Store) *Server {
	if archiver == nil {
		archiver = archive.NopArchiver{}
	}
	return &Server{
		engine:   engine,
		calc:     calc,
		reporter: reporter,
		archiver: archiver,
		store:    st,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/projects/{id}/cpm", s.handleRunCPM)
	r.Get("/projects/{id}/evm", s.handleEVM)
	r.Get("/projects/{id}/lookahead", s.handleLookAhead)
	r.Get("/projects/{id}/variance", s.handleVariance)
	r.Get("/projects/{id}/delay-impact", s.handleDelayImpact)
	r.Get("/projects/{id}/resource-loading", s.handleResourceLoading)
	r.Post("/tasks/{id}/progress", s.handleUpdateProgress)
	r.Post("/dependencies", s.handleAddDependency)
	r.Get("/healthz", s.handleHealth)

	return r
}

func (s *Server) handleRunCPM(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.engine.Run(r.Context(), projectID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type progressRequest struct {
	Method models.ProgressMethod `json:"method"`
	Value  float64               `json:"value"`
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := s.engine.UpdateProgress(r.Context(), schedule.UpdateProgressInput{
		TaskID:      taskID,
		Method:      req.Method,
		ManualValue: req.Value,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

type dependencyRequest struct {
	TaskID          uuid.UUID             `json:"taskId"`
	DependsOnTaskID uuid.UUID             `json:"dependsOnTaskId"`
	Type            models.DependencyType `json:"type"`
	LagDays         int                   `json:"lagDays"`
}

func (s *Server) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	var req dependencyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	dep, err := s.engine.AddDependency(r.Context(), schedule.AddDependencyInput{
		TaskID:          req.TaskID,
		DependsOnTaskID: req.DependsOnTaskID,
		Type:            req.Type,
		LagDays:         req.LagDays,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dep)
}

func (s *Server) handleEVM(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	asOf, err := parseAsOf(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics, err := s.calc.Calculate(r.Context(), projectID, asOf)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if err := s.archiver.ArchiveReport(r.Context(), projectID, "evm", metrics); err != nil {
		log.Printf("archive evm report for project %s: %v", projectID, err)
	}
	respondJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleLookAhead(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	asOf, err := parseAsOf(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	weeks := 2
	if raw := r.URL.Query().Get("weeks"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &weeks); err != nil || weeks < 1 {
			respondError(w, http.StatusBadRequest, "weeks must be a positive integer")
			return
		}
	}
	report, err := s.reporter.LookAhead(r.Context(), projectID, weeks, asOf)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleVariance(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	variances, err := s.reporter.ScheduleVariance(r.Context(), projectID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if err := s.archiver.ArchiveReport(r.Context(), projectID, "variance", variances); err != nil {
		log.Printf("archive variance report for project %s: %v", projectID, err)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"projectId": projectID,
		"tasks":     variances,
	})
}

func (s *Server) handleDelayImpact(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	impact, err := s.reporter.DelayImpact(r.Context(), projectID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, impact)
}

func (s *Server) handleResourceLoading(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}
	series, err := s.reporter.ResourceLoading(r.Context(), projectID, from, to)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"projectId": projectID,
		"days":      series,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// parseAsOf reads the optional asOf query parameter, defaulting to today.
func parseAsOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("asOf")
	if raw == "" {
		return dateutil.Today(), nil
	}
	return parseDate(raw)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("date required (YYYY-MM-DD)")
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", raw)
	}
	return t, nil
}

func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, schedule.ErrSelfDependency),
		errors.Is(err, schedule.ErrCrossProjectDependency),
		errors.Is(err, schedule.ErrInvalidDependencyType):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, schedule.ErrDependencyCycle):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
