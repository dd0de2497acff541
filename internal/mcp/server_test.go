package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/trackplan/internal/ingest/notes"
	"github.com/claude/trackplan/internal/models"
	"github.com/claude/trackplan/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const testNotes = `Bloc GROUPE 1 :
Bloc 1
-   3x 1200 75%-80%-85%
2'30'' actif
2' actif
1' marche
`

// fakeDataSource serves a fixed set of records and remembers the user it was asked for.
type fakeDataSource struct {
	records  map[uuid.UUID]models.PlanRecord
	lastUser int
	err      error
}

func (f *fakeDataSource) ListPlans(_ context.Context, userID, limit int) ([]models.PlanSummary, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	out := []models.PlanSummary{}
	for _, r := range f.records {
		if len(out) == limit {
			break
		}
		out = append(out, r.Summary())
	}
	return out, nil
}

func (f *fakeDataSource) GetPlan(_ context.Context, id uuid.UUID, userID int) (*models.PlanRecord, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &r, nil
}

func (f *fakeDataSource) GetPlanStats(_ context.Context, userID int) (*storage.PlanStats, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return &storage.PlanStats{TotalPlans: int64(len(f.records))}, nil
}

// fakePlanStore records inserted plans.
type fakePlanStore struct {
	inserted []*models.PlanRecord
}

func (f *fakePlanStore) InsertPlan(_ context.Context, rec *models.PlanRecord) error {
	f.inserted = append(f.inserted, rec)
	return nil
}

func newTestHandlers(ds DataSource, store notes.PlanStore) *handlers {
	provider := notes.NewProvider(notes.NewParser(notes.Defaults{}, nil), store, nil)
	return &handlers{ds: ds, notes: provider, log: discardLogger()}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("content type %T, want text", res.Content[0])
	return ""
}

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

// TestNewRegistersTools verifies the server builds with every tool registered.
func TestNewRegistersTools(t *testing.T) {
	s := New(&fakeDataSource{}, notes.NewProvider(notes.NewParser(notes.Defaults{}, nil), nil, nil), "test", discardLogger())
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"convert_training_notes", "validate_training_plan", "fix_training_plan",
		"list_training_plans", "get_training_plan", "get_plan_stats",
	} {
		if !strings.Contains(string(out), `"`+name+`"`) {
			t.Errorf("tool %s not registered", name)
		}
	}
}

// TestConvertNotesTool verifies conversion returns the plan without storing it.
func TestConvertNotesTool(t *testing.T) {
	store := &fakePlanStore{}
	h := newTestHandlers(&fakeDataSource{}, store)

	res, err := h.convertNotes(context.Background(), callTool("convert_training_notes", map[string]any{"notes": testNotes}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var out struct {
		Plan   models.Plan `json:"plan"`
		Issues []string    `json:"issues"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if _, _, sets := out.Plan.Counts(); sets != 3 {
		t.Errorf("sets = %d, want 3", sets)
	}
	if len(out.Issues) != 0 {
		t.Errorf("issues = %v, want none", out.Issues)
	}
	if len(store.inserted) != 0 {
		t.Errorf("inserted %d plans without store=true", len(store.inserted))
	}
}

// TestConvertNotesToolStore verifies store=true persists the plan for the context user.
func TestConvertNotesToolStore(t *testing.T) {
	store := &fakePlanStore{}
	h := newTestHandlers(&fakeDataSource{}, store)

	ctx := WithUserID(context.Background(), 9)
	res, err := h.convertNotes(ctx, callTool("convert_training_notes", map[string]any{"notes": testNotes, "store": true}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
	if got := store.inserted[0]; got.UserID != 9 || got.Source != "mcp" {
		t.Errorf("record user=%d source=%q, want 9 mcp", got.UserID, got.Source)
	}
}

// TestConvertNotesToolMissingArg verifies a missing notes argument is a tool error.
func TestConvertNotesToolMissingArg(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{}, nil)
	res, err := h.convertNotes(context.Background(), callTool("convert_training_notes", map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error")
	}
}

// TestValidatePlanTool verifies issues are reported and malformed JSON is an error.
func TestValidatePlanTool(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{}, nil)

	res, err := h.validatePlan(context.Background(), callTool("validate_training_plan", map[string]any{"plan_json": `{"title":"t"}`}))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "Missing required field: groups") {
		t.Errorf("result = %s, want missing groups issue", text)
	}

	res, err = h.validatePlan(context.Background(), callTool("validate_training_plan", map[string]any{"plan_json": `{`}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error for malformed JSON")
	}
}

// TestFixPlanTool verifies the requested fixups are applied and unknown ops rejected.
func TestFixPlanTool(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{}, nil)
	doc := `{"title":"t","warmup":"w","cooldown":"c","remarks":"r","groups":[{"title":"G","blocks":[{"title":"B","sets":[{"repetitions":1,"vmaPercent":90,"recoverySeconds":60,"recoveryType":"jog"}]}]}]}`

	res, err := h.fixPlan(context.Background(), callTool("fix_training_plan", map[string]any{"plan_json": doc, "ops": "recovery_types"}))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Fixes  map[string]int `json:"fixes"`
		Issues []string       `json:"issues"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Fixes["recovery_types"] != 1 {
		t.Errorf("fixes = %v, want recovery_types=1", out.Fixes)
	}

	res, err = h.fixPlan(context.Background(), callTool("fix_training_plan", map[string]any{"plan_json": doc, "ops": "bogus"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error for unknown op")
	}
}

// TestGetPlanTool verifies lookup by ID, the YAML format and the not-found error.
func TestGetPlanTool(t *testing.T) {
	rec := models.NewPlanRecord(3, "api", testNotes, notes.NewParser(notes.Defaults{}, nil).Parse(testNotes), nil)
	ds := &fakeDataSource{records: map[uuid.UUID]models.PlanRecord{rec.ID: rec}}
	h := newTestHandlers(ds, nil)
	ctx := WithUserID(context.Background(), 3)

	res, err := h.getPlan(ctx, callTool("get_training_plan", map[string]any{"id": rec.ID.String()}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if ds.lastUser != 3 {
		t.Errorf("user = %d, want 3", ds.lastUser)
	}

	res, err = h.getPlan(ctx, callTool("get_training_plan", map[string]any{"id": rec.ID.String(), "format": "yaml"}))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, res); !strings.Contains(text, "vmaPercent: 75") {
		t.Errorf("yaml = %s, want vmaPercent: 75", text)
	}

	res, err = h.getPlan(ctx, callTool("get_training_plan", map[string]any{"id": uuid.NewString()}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "not found") {
		t.Error("expected not found tool error")
	}

	res, err = h.getPlan(ctx, callTool("get_training_plan", map[string]any{"id": "nope"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error for invalid ID")
	}
}

// TestListPlansToolError verifies storage failures surface as tool errors, not Go errors.
func TestListPlansToolError(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{err: errors.New("db down")}, nil)
	res, err := h.listPlans(context.Background(), callTool("list_training_plans", map[string]any{"limit": 5}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error")
	}
}

// TestGetPlanStatsTool verifies stats are returned for the context user.
func TestGetPlanStatsTool(t *testing.T) {
	rec := models.NewPlanRecord(1, "api", "", models.Plan{}, nil)
	ds := &fakeDataSource{records: map[uuid.UUID]models.PlanRecord{rec.ID: rec}}
	h := newTestHandlers(ds, nil)

	res, err := h.getPlanStats(WithUserID(context.Background(), 5), callTool("get_plan_stats", nil))
	if err != nil {
		t.Fatal(err)
	}
	var stats storage.PlanStats
	if err := json.Unmarshal([]byte(resultText(t, res)), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalPlans != 1 || ds.lastUser != 5 {
		t.Errorf("stats = %+v user = %d, want 1 plan for user 5", stats, ds.lastUser)
	}
}

// TestRecoveryLexiconResource verifies the lexicon resource lists every phrase.
func TestRecoveryLexiconResource(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{}, nil)
	var req mcp.ReadResourceRequest
	req.Params.URI = "trackplan://recovery_lexicon"

	contents, err := h.recoveryLexicon(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents type %T", contents[0])
	}
	if !strings.Contains(text.Text, "pause sèche") {
		t.Errorf("lexicon = %s, want pause sèche", text.Text)
	}
	if text.URI != req.Params.URI {
		t.Errorf("uri = %q, want %q", text.URI, req.Params.URI)
	}
}
