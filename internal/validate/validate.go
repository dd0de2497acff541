// Package validate checks the shape of training plan documents and applies
// the corrective rewrites offered to people editing them by hand.
//
// Every function here works on the generic decoded JSON form
// (map[string]any) so it can inspect documents that did not come from the
// extractor.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/claude/trackplan/internal/models"
)

var (
	requiredTop = []string{"title", "warmup", "cooldown", "remarks", "groups"}
	requiredSet = []string{"repetitions", "vmaPercent", "recoverySeconds", "recoveryType"}
)

// Plan walks a decoded plan document and returns one message per missing
// required field. It never panics on missing or mistyped data; an empty result
// means the document is well-formed.
func Plan(doc map[string]any) []string {
	issues := []string{}
	for _, field := range requiredTop {
		if _, ok := doc[field]; !ok {
			issues = append(issues, fmt.Sprintf("Missing required field: %s", field))
		}
	}

	rawGroups, ok := doc["groups"]
	if !ok {
		return issues
	}
	groups, ok := rawGroups.([]any)
	if !ok {
		return append(issues, "Field groups is not a list")
	}

	for i, rawGroup := range groups {
		group, ok := rawGroup.(map[string]any)
		if !ok {
			issues = append(issues, fmt.Sprintf("Group %d is not an object", i))
			continue
		}
		if _, ok := group["title"]; !ok {
			issues = append(issues, fmt.Sprintf("Group %d missing title", i))
		}
		rawBlocks, ok := group["blocks"]
		if !ok {
			issues = append(issues, fmt.Sprintf("Group %d missing blocks", i))
			continue
		}
		blocks, ok := rawBlocks.([]any)
		if !ok {
			issues = append(issues, fmt.Sprintf("Group %d blocks is not a list", i))
			continue
		}
		for j, rawBlock := range blocks {
			issues = append(issues, blockIssues(i, j, rawBlock)...)
		}
	}
	return issues
}

func blockIssues(i, j int, rawBlock any) []string {
	block, ok := rawBlock.(map[string]any)
	if !ok {
		return []string{fmt.Sprintf("Block %d in group %d is not an object", j, i)}
	}

	var issues []string
	if _, ok := block["title"]; !ok {
		issues = append(issues, fmt.Sprintf("Block %d in group %d missing title", j, i))
	}
	rawSets, ok := block["sets"]
	if !ok {
		return append(issues, fmt.Sprintf("Block %d in group %d missing sets", j, i))
	}
	sets, ok := rawSets.([]any)
	if !ok {
		return append(issues, fmt.Sprintf("Block %d in group %d sets is not a list", j, i))
	}
	for k, rawSet := range sets {
		set, ok := rawSet.(map[string]any)
		if !ok {
			issues = append(issues, fmt.Sprintf("Set %d in block %d, group %d is not an object", k, j, i))
			continue
		}
		for _, field := range requiredSet {
			if _, ok := set[field]; !ok {
				issues = append(issues, fmt.Sprintf("Set %d in block %d, group %d missing %s", k, j, i, field))
			}
		}
	}
	return issues
}

// JSON decodes data and validates it. The error is reserved for input that is
// not a JSON object at all; missing fields are reported as issues.
func JSON(data []byte) ([]string, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Plan(doc), nil
}

// Decode parses a plan document into its generic form.
func Decode(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding plan document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decoding plan document: not a JSON object")
	}
	return doc, nil
}

// Struct validates a typed plan through its serialized form, so the result is
// exactly what a consumer of the JSON would see.
func Struct(plan models.Plan) []string {
	data, err := json.Marshal(plan)
	if err != nil {
		return []string{fmt.Sprintf("Plan cannot be serialized: %v", err)}
	}
	issues, err := JSON(data)
	if err != nil {
		return []string{err.Error()}
	}
	return issues
}
