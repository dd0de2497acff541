package validate

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed plan.schema.json
var planSchemaJSON string

var planSchema = jsonschema.MustCompileString("plan.schema.json", planSchemaJSON)

// Schema checks the types and ranges of the fields a document does carry:
// integer repetitions of at least 1, non-negative recoveries and known
// recovery types. Missing fields are left to Plan. Each issue is prefixed with
// the JSON pointer of the offending value.
func Schema(doc map[string]any) []string {
	issues := []string{}
	err := planSchema.Validate(doc)
	if err == nil {
		return issues
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return append(issues, err.Error())
	}
	return appendLeaves(issues, ve)
}

// appendLeaves flattens a validation error tree to its most specific causes.
func appendLeaves(issues []string, ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(issues, fmt.Sprintf("%s: %s", loc, ve.Message))
	}
	for _, c := range ve.Causes {
		issues = appendLeaves(issues, c)
	}
	return issues
}
