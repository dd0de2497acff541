package validate

import "github.com/claude/trackplan/internal/models"

// DefaultFillRecoverySeconds is the recovery given to sets that have none.
const DefaultFillRecoverySeconds = 60

// FixRecoveryTypes rewrites every set recoveryType and every present block
// afterRecoveryType that is not a known recovery type to "rest". Sets without
// a recoveryType are left for FillMissingFields. Returns the number of rewrites.
func FixRecoveryTypes(doc map[string]any) int {
	fixed := 0
	eachBlock(doc, func(block map[string]any) {
		if v, ok := block["afterRecoveryType"]; ok && !validRecoveryType(v) {
			block["afterRecoveryType"] = string(models.RecoveryRest)
			fixed++
		}
		eachSet(block, func(set map[string]any) {
			if v, ok := set["recoveryType"]; ok && !validRecoveryType(v) {
				set["recoveryType"] = string(models.RecoveryRest)
				fixed++
			}
		})
	})
	return fixed
}

// FillMissingFields adds recoveryType "rest" and recoverySeconds 60 to sets
// lacking them. Returns the number of fields added.
func FillMissingFields(doc map[string]any) int {
	filled := 0
	eachBlock(doc, func(block map[string]any) {
		eachSet(block, func(set map[string]any) {
			if _, ok := set["recoveryType"]; !ok {
				set["recoveryType"] = string(models.RecoveryRest)
				filled++
			}
			if _, ok := set["recoverySeconds"]; !ok {
				set["recoverySeconds"] = float64(DefaultFillRecoverySeconds)
				filled++
			}
		})
	})
	return filled
}

func validRecoveryType(v any) bool {
	s, ok := v.(string)
	return ok && models.RecoveryType(s).Valid()
}

func eachBlock(doc map[string]any, fn func(map[string]any)) {
	groups, _ := doc["groups"].([]any)
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		blocks, _ := group["blocks"].([]any)
		for _, b := range blocks {
			if block, ok := b.(map[string]any); ok {
				fn(block)
			}
		}
	}
}

func eachSet(block map[string]any, fn func(map[string]any)) {
	sets, _ := block["sets"].([]any)
	for _, s := range sets {
		if set, ok := s.(map[string]any); ok {
			fn(set)
		}
	}
}
