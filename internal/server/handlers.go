package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claude/trackplan/internal/ingest"
	"github.com/claude/trackplan/internal/ingest/notes"
	"github.com/claude/trackplan/internal/models"
	"github.com/claude/trackplan/internal/observability"
	"github.com/claude/trackplan/internal/validate"
)

// maxBodyBytes bounds note and plan uploads.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	format, ok := parseFormat(w, r)
	if !ok {
		return
	}
	start := time.Now()
	plan, issues, err := s.notes.Convert(http.MaxBytesReader(w, r.Body, maxBodyBytes), "api")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	groups, blocks, sets := plan.Counts()
	s.logConversion(userIDFromContext(r), "api", &ingest.Result{
		Source: "api",
		Title:  plan.Title,
		Groups: groups,
		Blocks: blocks,
		Sets:   sets,
		Issues: issues,
	}, nil, time.Since(start))

	w.Header().Set("X-Validation-Issues", strconv.Itoa(len(issues)))
	writePlan(w, plan, format, false)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	strict := r.URL.Query().Get("strict") == "true"
	report, err := validate.Check(data, strict)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	observability.RecordValidation("api", len(report.Issues)+len(report.SchemaIssues))
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	ops, err := validate.ParseOps(r.URL.Query().Get("ops"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	report, err := validate.Fix(data, ops)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLexicon(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, notes.Lexicon())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseFormat reads ?format=json|yaml, writing a 400 for anything else.
func parseFormat(w http.ResponseWriter, r *http.Request) (string, bool) {
	format, err := models.ParseFormat(strings.ToLower(r.URL.Query().Get("format")))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return "", false
	}
	return format, true
}

// writePlan encodes a plan as indented JSON or YAML, optionally as a download.
func writePlan(w http.ResponseWriter, plan any, format string, attachment bool) {
	var buf bytes.Buffer
	if err := models.EncodePlan(&buf, plan, format); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	contentType := "application/json"
	if format == models.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="training_plan.%s"`, format))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func parseLimit(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}
