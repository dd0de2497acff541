package ingest

// Result holds the outcome of converting one note.
type Result struct {
	PlanID string   `json:"plan_id,omitempty"`
	Source string   `json:"source"`
	Title  string   `json:"title"`
	Groups int      `json:"groups"`
	Blocks int      `json:"blocks"`
	Sets   int      `json:"sets"`
	Issues []string `json:"issues"`
	Stored bool     `json:"stored"`

	Message string `json:"message,omitempty"`
}

// Valid reports whether the converted plan passed structural validation.
func (r *Result) Valid() bool {
	return len(r.Issues) == 0
}
