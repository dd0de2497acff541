package notes

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/claude/trackplan/internal/models"
	"github.com/claude/trackplan/internal/validate"
)

type fakeStore struct {
	saved []models.PlanRecord
	err   error
}

func (f *fakeStore) InsertPlan(_ context.Context, rec *models.PlanRecord) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *rec)
	return nil
}

// TestProviderIngestStoresPlan verifies a converted note is stored with its
// counts and the original text.
func TestProviderIngestStoresPlan(t *testing.T) {
	store := &fakeStore{}
	p := NewProvider(NewParser(Defaults{}, nil), store, nil)

	result, err := p.Ingest(context.Background(), strings.NewReader(sampleNotes), 7, "api")
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if !result.Stored || result.PlanID == "" {
		t.Errorf("result = %+v, want stored with plan id", result)
	}
	if result.Groups != 2 || result.Blocks != 6 || result.Sets != 10 {
		t.Errorf("counts = %d/%d/%d, want 2/6/10", result.Groups, result.Blocks, result.Sets)
	}
	if !result.Valid() {
		t.Errorf("issues = %v, want none", result.Issues)
	}

	if len(store.saved) != 1 {
		t.Fatalf("saved = %d, want 1", len(store.saved))
	}
	rec := store.saved[0]
	if rec.UserID != 7 || rec.Source != "api" || rec.Notes != sampleNotes {
		t.Errorf("record = user %d source %q, want user 7 source api with notes", rec.UserID, rec.Source)
	}
	if rec.ID.String() != result.PlanID {
		t.Errorf("record id = %s, want %s", rec.ID, result.PlanID)
	}
}

// TestProviderIngestWithoutStore verifies conversion still succeeds when
// persistence is disabled.
func TestProviderIngestWithoutStore(t *testing.T) {
	p := NewProvider(NewParser(Defaults{}, nil), nil, nil)
	result, err := p.Ingest(context.Background(), strings.NewReader(""), 1, "cli")
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if result.Stored || result.PlanID != "" {
		t.Errorf("result = %+v, want not stored", result)
	}
	if result.Issues == nil {
		t.Error("Issues is nil, want empty slice")
	}
}

// TestProviderIngestStoreError verifies storage failures are returned.
func TestProviderIngestStoreError(t *testing.T) {
	boom := errors.New("db down")
	p := NewProvider(NewParser(Defaults{}, nil), &fakeStore{err: boom}, nil)
	if _, err := p.Ingest(context.Background(), strings.NewReader(sampleNotes), 1, "api"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapping %v", err, boom)
	}
}

// TestProviderConvertValidates verifies every plan the extractor produces
// passes structural validation.
func TestProviderConvertValidates(t *testing.T) {
	p := NewProvider(NewParser(Defaults{}, nil), nil, nil)
	for _, text := range []string{
		"",
		sampleNotes,
		"Bloc GROUPE 1 :\nBloc 1\n- 3x 1200 75%-80%-85%\n2'30'' actif\nBloc 2\nrien\n",
	} {
		_, issues, err := p.Convert(strings.NewReader(text), "api")
		if err != nil {
			t.Fatalf("Convert error: %v", err)
		}
		if len(issues) != 0 {
			t.Errorf("issues for %q: %v", text, issues)
		}
	}
}

// TestExtractedPlanPassesSchema verifies extracted plans satisfy the strict schema.
func TestExtractedPlanPassesSchema(t *testing.T) {
	plan := NewParser(Defaults{}, nil).Parse(sampleNotes)
	data, err := json.Marshal(plan)
	if err != nil {
		t.Fatal(err)
	}
	report, err := validate.Check(data, true)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Valid {
		t.Errorf("report = %+v, want valid", report)
	}
}
