package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/claude/trackplan/internal/ingest"
	"github.com/claude/trackplan/internal/models"
	"github.com/claude/trackplan/internal/validate"
	"gopkg.in/yaml.v3"
)

const testNotes = `Échauffement 20' footing
Bloc GROUPE 1 :
Bloc 1
- 3x 1200 75%-80%-85%
2'30'' actif
Bloc 2
- 3 x 800 90%
2' marche
4' pause sèche
`

func do(t *testing.T, h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "local", DisplayName: "Local Dev User"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
	if info.DisplayName != "Local Dev User" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Local Dev User")
	}
}

// TestHandleConvert verifies notes are converted to a plan and the issue count
// is reported in a header.
func TestHandleConvert(t *testing.T) {
	s, store := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/convert", testNotes, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("X-Validation-Issues"); got != "0" {
		t.Errorf("X-Validation-Issues = %q, want 0", got)
	}
	var plan models.Plan
	if err := json.NewDecoder(rec.Body).Decode(&plan); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if plan.Warmup != "20' footing" {
		t.Errorf("warmup = %q, want 20' footing", plan.Warmup)
	}
	if len(plan.Groups) != 1 || len(plan.Groups[0].Blocks) != 2 {
		t.Fatalf("groups = %+v, want 1 group with 2 blocks", plan.Groups)
	}
	b2 := plan.Groups[0].Blocks[1]
	if b2.AfterRecoverySeconds != 240 {
		t.Errorf("bloc 2 after recovery = %v, want 240", b2.AfterRecoverySeconds)
	}
	if len(store.plans) != 0 {
		t.Errorf("convert stored %d plans, want 0", len(store.plans))
	}
	if len(store.logs) != 1 || store.logs[0].Sets != 4 {
		t.Errorf("conversion logs = %+v, want one entry with 4 sets", store.logs)
	}
}

// TestHandleConvertYAML verifies the YAML rendering carries the same field names.
func TestHandleConvertYAML(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/convert?format=yaml", testNotes, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q, want application/yaml", ct)
	}
	if !strings.Contains(rec.Body.String(), "afterRecoverySeconds: 240") {
		t.Errorf("YAML missing afterRecoverySeconds: %s", rec.Body)
	}
	var plan models.Plan
	if err := yaml.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}
	if len(plan.Groups) != 1 {
		t.Errorf("groups = %d, want 1", len(plan.Groups))
	}
}

// TestHandleConvertBadFormat verifies unknown formats are rejected.
func TestHandleConvertBadFormat(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/convert?format=xml", testNotes, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestHandleValidate verifies issues are listed and malformed JSON is a 400.
func TestHandleValidate(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/validate", `{"title":"t","warmup":"w","cooldown":"c","groups":[]}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var report validate.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Valid || len(report.Issues) != 1 || report.Issues[0] != "Missing required field: remarks" {
		t.Errorf("report = %+v, want one missing remarks issue", report)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/validate", `{"title":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed status = %d, want 400", rec.Code)
	}
}

// TestHandleValidateStrict verifies ?strict=true adds schema issues.
func TestHandleValidateStrict(t *testing.T) {
	s, _ := newTestServer(t)
	doc := `{"title":"t","warmup":"w","cooldown":"c","remarks":"r","groups":[{"title":"G","blocks":[{"title":"B","sets":[{"repetitions":0,"vmaPercent":90,"recoverySeconds":60,"recoveryType":"rest"}]}]}]}`

	rec := do(t, s, http.MethodPost, "/api/v1/validate", doc, nil)
	var report validate.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if !report.Valid {
		t.Errorf("lenient report = %+v, want valid", report)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/validate?strict=true", doc, nil)
	report = validate.Report{}
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Valid || len(report.SchemaIssues) != 1 {
		t.Errorf("strict report = %+v, want one schema issue", report)
	}
}

// TestHandleFix verifies selected fixups run and unknown ones are rejected.
func TestHandleFix(t *testing.T) {
	s, _ := newTestServer(t)
	doc := `{"title":"t","warmup":"w","cooldown":"c","remarks":"r","groups":[{"title":"g","blocks":[{"title":"b","sets":[{"repetitions":1,"vmaPercent":90,"recoveryType":"sprint"}]}]}]}`

	rec := do(t, s, http.MethodPost, "/api/v1/fix?ops=recovery_types", doc, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var report validate.FixReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Fixes[validate.OpRecoveryTypes] != 1 {
		t.Errorf("fixes = %v, want 1 recovery type", report.Fixes)
	}
	if len(report.Issues) != 1 {
		t.Errorf("issues = %v, want recoverySeconds still missing", report.Issues)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/fix", doc, nil)
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if len(report.Issues) != 0 {
		t.Errorf("issues after all fixups = %v, want none", report.Issues)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/fix?ops=shuffle", doc, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown op status = %d, want 400", rec.Code)
	}
}

// TestStorePlanRequiresAPIKey verifies the store endpoint rejects missing and
// wrong keys and stores the plan with a valid one.
func TestStorePlanRequiresAPIKey(t *testing.T) {
	s, store := newTestServer(t)

	if rec := do(t, s, http.MethodPost, "/api/v1/plans", testNotes, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/plans", testNotes, map[string]string{"X-API-Key": "nope"}); rec.Code != http.StatusForbidden {
		t.Errorf("bad key status = %d, want 403", rec.Code)
	}

	rec := do(t, s, http.MethodPost, "/api/v1/plans", testNotes, map[string]string{"X-API-Key": "secret"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var result ingest.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !result.Stored || result.Sets != 4 {
		t.Errorf("result = %+v, want stored with 4 sets", result)
	}
	if len(store.plans) != 1 || store.plans[0].UserID != 1 {
		t.Fatalf("stored plans = %+v, want one for user 1", store.plans)
	}
	if store.logs[0].PlanID == nil || store.logs[0].PlanID.String() != result.PlanID {
		t.Errorf("conversion log plan id = %v, want %s", store.logs[0].PlanID, result.PlanID)
	}
}

// TestPlanLookup covers listing, fetching, downloading and deleting a stored plan.
func TestPlanLookup(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/plans", testNotes, map[string]string{"X-API-Key": "secret"})
	var result ingest.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/plans?limit=5", "", nil)
	var summaries []models.PlanSummary
	if err := json.NewDecoder(rec.Body).Decode(&summaries); err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 || summaries[0].SetCount != 4 {
		t.Errorf("summaries = %+v, want one with 4 sets", summaries)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/plans/"+result.PlanID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	var got models.PlanRecord
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Notes != testNotes {
		t.Errorf("notes not preserved: %q", got.Notes)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/plans/"+result.PlanID+"/download?format=yaml", "", nil)
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="training_plan.yaml"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	rec = do(t, s, http.MethodGet, "/api/v1/plans/"+result.PlanID+"/download", "", nil)
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="training_plan.json"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "\n  \"title\"") {
		t.Errorf("download not indented: %s", rec.Body)
	}

	if rec := do(t, s, http.MethodGet, "/api/v1/plans/not-a-uuid", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/v1/plans/"+result.PlanID, "", map[string]string{"X-API-Key": "secret"}); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/plans/"+result.PlanID, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("after delete status = %d, want 404", rec.Code)
	}
}

// TestHandleLexicon verifies the recovery lexicon is served in match order.
func TestHandleLexicon(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/lexicon", "", nil)
	var entries []struct {
		Phrase string `json:"phrase"`
		Type   string `json:"type"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 || entries[0].Phrase != "actif" || entries[4].Type != "rest" {
		t.Errorf("lexicon = %+v", entries)
	}
}

// TestHealthAndMetrics verifies the unauthenticated operational endpoints.
func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := do(t, s, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
	do(t, s, http.MethodPost, "/api/v1/convert", testNotes, nil)
	rec := do(t, s, http.MethodGet, "/metrics", "", nil)
	if !strings.Contains(rec.Body.String(), "trackplan_extract_conversions_total") {
		t.Error("metrics output missing trackplan_extract_conversions_total")
	}
}
