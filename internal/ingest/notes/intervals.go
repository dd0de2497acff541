package notes

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/trackplan/internal/models"
)

// intervalSetRe matches: 3x 1200 75%-80%-85%  |  3 x 800 90%
var intervalSetRe = regexp.MustCompile(`(\d+)\s*[xX×]\s*(\d+)\s+([\d%.,-]+)`)

// ParseIntervalSet turns one "repetitions x distance percentages" line into sets.
//
// A single percentage yields one set carrying the repetition count. A dash-joined
// ladder yields one set per entry with a single repetition each; the ladder length
// replaces the written count. Lines that do not match yield no sets.
// Recovery starts as 0s active and is filled in by the block extractor.
func ParseIntervalSet(line string) []models.IntervalSet {
	m := intervalSetRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	reps, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	distance, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}

	entries := strings.Split(m[3], "-")
	if len(entries) > 1 {
		var sets []models.IntervalSet
		for _, e := range entries {
			pct, ok := parsePercent(e)
			if !ok {
				continue
			}
			sets = append(sets, newSet(1, distance, pct))
		}
		return sets
	}

	pct, ok := parsePercent(entries[0])
	if !ok || reps < 1 {
		return nil
	}
	return []models.IntervalSet{newSet(reps, distance, pct)}
}

func newSet(reps, distance int, pct float64) models.IntervalSet {
	return models.IntervalSet{
		Repetitions:     reps,
		DistanceMeters:  distance,
		VMAPercent:      pct,
		RecoverySeconds: 0,
		RecoveryType:    models.RecoveryActive,
	}
}

// parsePercent reads "85%", "92,5%" or "85". Empty entries are skipped.
func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	s = strings.TrimRight(s, ".,")
	if s == "" {
		return 0, false
	}
	f, err := parseNumber(s)
	if err != nil {
		return 0, false
	}
	return f, true
}
