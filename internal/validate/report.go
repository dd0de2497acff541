package validate

import (
	"fmt"
	"strings"
)

// Fixup names accepted by Fix.
const (
	OpRecoveryTypes = "recovery_types"
	OpMissingFields = "missing_fields"
)

// AllOps lists every fixup in the order Fix applies them.
var AllOps = []string{OpRecoveryTypes, OpMissingFields}

// Report is the outcome of validating a document. SchemaIssues is only
// filled by strict checks.
type Report struct {
	Valid        bool     `json:"valid"`
	Issues       []string `json:"issues"`
	SchemaIssues []string `json:"schema_issues,omitempty"`
}

// FixReport is a corrected document with the rewrites applied and the issues
// that remain.
type FixReport struct {
	Plan   map[string]any `json:"plan"`
	Fixes  map[string]int `json:"fixes"`
	Issues []string       `json:"issues"`
}

// Check decodes and validates a plan document. A strict check also runs
// Schema, and the document is only valid when both pass.
func Check(data []byte, strict bool) (*Report, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	report := &Report{Issues: Plan(doc)}
	if strict {
		report.SchemaIssues = Schema(doc)
	}
	report.Valid = len(report.Issues) == 0 && len(report.SchemaIssues) == 0
	return report, nil
}

// ParseOps reads a comma-separated fixup list. An empty list selects every fixup.
func ParseOps(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return AllOps, nil
	}
	var ops []string
	for _, op := range strings.Split(s, ",") {
		op = strings.TrimSpace(op)
		switch op {
		case OpRecoveryTypes, OpMissingFields:
			ops = append(ops, op)
		case "":
		default:
			return nil, fmt.Errorf("unknown fixup %q", op)
		}
	}
	return ops, nil
}

// Fix decodes a plan document, applies ops in order and revalidates it.
func Fix(data []byte, ops []string) (*FixReport, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	fixes := make(map[string]int, len(ops))
	for _, op := range ops {
		switch op {
		case OpRecoveryTypes:
			fixes[op] += FixRecoveryTypes(doc)
		case OpMissingFields:
			fixes[op] += FillMissingFields(doc)
		default:
			return nil, fmt.Errorf("unknown fixup %q", op)
		}
	}
	return &FixReport{Plan: doc, Fixes: fixes, Issues: Plan(doc)}, nil
}
