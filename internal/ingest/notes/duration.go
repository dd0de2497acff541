package notes

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatError reports a duration or number token that does not reduce to a number.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid duration %q: %v", e.Input, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// secondsMarkers end a token written in seconds: 30'' 30’’ 30" 30″.
var secondsMarkers = []string{"''", "’’", "″", "”", `"`}

// minuteMarks separates minutes from seconds: 2'30 2’30 2′30.
var minuteMarks = strings.NewReplacer("’", "'", "′", "'")

// ParseDuration converts a recovery duration token to seconds.
//
//	"2'30''" -> 150   "3'min" -> 180   "3 min" -> 180   "2" -> 120   "45''" -> 45
//
// A bare number counts as minutes. When more than one minute mark appears only
// the part before the first one is kept, as minutes.
func ParseDuration(text string) (float64, error) {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "min", "")
	s = strings.TrimSpace(s)

	secondsOnly := false
	for _, m := range secondsMarkers {
		if strings.HasSuffix(s, m) {
			s = strings.TrimSpace(strings.TrimSuffix(s, m))
			secondsOnly = true
			break
		}
	}
	s = strings.ReplaceAll(s, `"`, "")
	s = minuteMarks.Replace(s)

	parts := strings.Split(s, "'")
	switch {
	case len(parts) == 2:
		minutes, err := parseOptionalNumber(parts[0])
		if err != nil {
			return 0, &FormatError{Input: text, Err: err}
		}
		seconds, err := parseOptionalNumber(parts[1])
		if err != nil {
			return 0, &FormatError{Input: text, Err: err}
		}
		return minutes*60 + seconds, nil
	case len(parts) > 2:
		minutes, err := parseNumber(parts[0])
		if err != nil {
			return 0, &FormatError{Input: text, Err: err}
		}
		return minutes * 60, nil
	}

	n, err := parseNumber(s)
	if err != nil {
		return 0, &FormatError{Input: text, Err: err}
	}
	if secondsOnly {
		return n, nil
	}
	return n * 60, nil
}

// parseOptionalNumber treats an empty string as zero.
func parseOptionalNumber(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return parseNumber(s)
}

// parseNumber accepts French decimals ("1,5") and rejects negatives.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("out of range value %q", s)
	}
	return f, nil
}
