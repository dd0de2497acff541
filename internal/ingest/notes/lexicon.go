package notes

import (
	"strings"

	"github.com/claude/trackplan/internal/models"
)

// LexiconEntry maps a French recovery phrase to its recovery type.
type LexiconEntry struct {
	Phrase string              `json:"phrase"`
	Type   models.RecoveryType `json:"type"`
}

// recoveryLexicon is tested in order by substring containment; the first hit wins.
var recoveryLexicon = []LexiconEntry{
	{"actif", models.RecoveryActive},
	{"actif (pour les plus en forme)", models.RecoveryActive},
	{"marche", models.RecoveryWalk},
	{"trott", models.RecoveryJog},
	{"pause sèche", models.RecoveryRest},
}

// Lexicon returns a copy of the recovery phrase lexicon in match order.
func Lexicon() []LexiconEntry {
	out := make([]LexiconEntry, len(recoveryLexicon))
	copy(out, recoveryLexicon)
	return out
}

// NormalizeRecoveryType maps free text to a recovery type.
// Any text containing a lexicon phrase matches it, so "actif" anywhere wins over
// later entries. Text with no known phrase is a rest.
func NormalizeRecoveryType(text string) models.RecoveryType {
	lower := strings.ToLower(text)
	for _, e := range recoveryLexicon {
		if strings.Contains(lower, e.Phrase) {
			return e.Type
		}
	}
	return models.RecoveryRest
}
