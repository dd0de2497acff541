package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/claude/trackplan/internal/ingest"
	"github.com/claude/trackplan/internal/models"
	"github.com/claude/trackplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleStorePlan(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "api"
	}

	start := time.Now()
	result, err := s.notes.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, maxBodyBytes), uid, source)
	if err != nil {
		s.log.Error("store plan error", "error", err)
		s.logConversion(uid, source, &ingest.Result{}, err, time.Since(start))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.logConversion(uid, source, result, nil, time.Since(start))

	status := http.StatusOK
	if result.Stored {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.store.ListPlans(r.Context(), userIDFromContext(r), parseLimit(r, 20))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupPlan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDownloadPlan(w http.ResponseWriter, r *http.Request) {
	format, ok := parseFormat(w, r)
	if !ok {
		return
	}
	rec, ok := s.lookupPlan(w, r)
	if !ok {
		return
	}
	writePlan(w, rec.Plan, format, true)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan ID"})
		return
	}
	if err := s.store.DeletePlan(r.Context(), id, userIDFromContext(r)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupPlan loads the plan named by the {id} URL parameter, writing the
// error response itself when it cannot.
func (s *Server) lookupPlan(w http.ResponseWriter, r *http.Request) (*models.PlanRecord, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan ID"})
		return nil, false
	}
	rec, err := s.store.GetPlan(r.Context(), id, userIDFromContext(r))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
			return nil, false
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	return rec, true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetPlanStats(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleConversionLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.QueryConversionLogs(r.Context(), userIDFromContext(r), parseLimit(r, 50))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// logConversion records a conversion's outcome to the conversion_logs table.
func (s *Server) logConversion(uid int, source string, result *ingest.Result, convErr error, elapsed time.Duration) {
	if s.store == nil {
		return
	}
	status := "success"
	var errMsg *string
	if convErr != nil {
		status = "error"
		msg := convErr.Error()
		errMsg = &msg
	}
	var planID *uuid.UUID
	if id, err := uuid.Parse(result.PlanID); err == nil {
		planID = &id
	}
	durationMs := int(elapsed.Milliseconds())

	entry := storage.ConversionLog{
		UserID:       uid,
		Source:       source,
		Status:       status,
		PlanID:       planID,
		Groups:       result.Groups,
		Blocks:       result.Blocks,
		Sets:         result.Sets,
		Issues:       len(result.Issues),
		DurationMs:   &durationMs,
		ErrorMessage: errMsg,
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.store.InsertConversionLog(ctx, entry); err != nil {
		s.log.Error("failed to log conversion", "source", source, "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second timeout so
// logging survives a cancelled request.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
