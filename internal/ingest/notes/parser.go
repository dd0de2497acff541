package notes

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/claude/trackplan/internal/models"
	"golang.org/x/text/unicode/norm"
)

var (
	// groupHeadingRe matches: Bloc GROUPE 1  :
	groupHeadingRe = regexp.MustCompile(`Bloc\s+GROUPE\s*(\d+)\s*:`)

	// warmupRe matches the rest of the line after: Échauffement 15' boucle habituelle
	warmupRe = regexp.MustCompile(`Échauffement\s*(.+)`)

	// cooldownRe matches the rest of the line after: Retour au calme en footing lent
	cooldownRe = regexp.MustCompile(`Retour au calme\s*(.+)`)

	// remarksRe matches everything after: Remarques supplémentaires :
	remarksRe = regexp.MustCompile(`(?s)Remarques supplémentaires\s*:\s*(.+)`)
)

// Defaults are the literals used when a note leaves a field out.
type Defaults struct {
	Title                string
	Warmup               string
	Cooldown             string
	Remarks              string
	AfterRecoverySeconds float64
	AfterRecoveryType    models.RecoveryType
}

// StandardDefaults returns the defaults for the Wednesday track session notes.
func StandardDefaults() Defaults {
	return Defaults{
		Title:                "Mercredi (séance piste)",
		Warmup:               "Échauffement 15' boucle habituelle + 3 gammes",
		Cooldown:             "Retour au calme en footing lent autour de la piste dans le sens horlogique 5'",
		Remarks:              "Bien respecter les % de VMA très important.",
		AfterRecoverySeconds: 180,
		AfterRecoveryType:    models.RecoveryRest,
	}
}

// withFallback fills every zero field of d from StandardDefaults.
func (d Defaults) withFallback() Defaults {
	std := StandardDefaults()
	if d.Title == "" {
		d.Title = std.Title
	}
	if d.Warmup == "" {
		d.Warmup = std.Warmup
	}
	if d.Cooldown == "" {
		d.Cooldown = std.Cooldown
	}
	if d.Remarks == "" {
		d.Remarks = std.Remarks
	}
	if d.AfterRecoverySeconds <= 0 {
		d.AfterRecoverySeconds = std.AfterRecoverySeconds
	}
	if !d.AfterRecoveryType.Valid() {
		d.AfterRecoveryType = std.AfterRecoveryType
	}
	return d
}

// Parser converts track session notes into plans. It holds no mutable state and
// is safe for concurrent use.
type Parser struct {
	defaults Defaults
	log      *slog.Logger
}

// NewParser creates a Parser. Zero fields of d fall back to StandardDefaults.
func NewParser(d Defaults, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Parser{defaults: d.withFallback(), log: log}
}

// Defaults returns the effective defaults.
func (p *Parser) Defaults() Defaults {
	return p.defaults
}

// ParseReader reads a whole note and parses it. Only read errors are returned.
func (p *Parser) ParseReader(r io.Reader) (models.Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Plan{}, fmt.Errorf("reading notes: %w", err)
	}
	return p.Parse(string(data)), nil
}

// Parse converts a note into a plan. It never fails: unrecognised text is
// ignored, missing sections get their default and a note without any
// "Bloc GROUPE" heading yields a plan with no groups.
func (p *Parser) Parse(text string) models.Plan {
	text = norm.NFC.String(text)

	return models.Plan{
		Title:    p.defaults.Title,
		Warmup:   firstCapture(warmupRe, text, p.defaults.Warmup),
		Cooldown: firstCapture(cooldownRe, text, p.defaults.Cooldown),
		Remarks:  firstCapture(remarksRe, text, p.defaults.Remarks),
		Groups:   p.extractGroups(text),
	}
}

// extractGroups splits the note on "Bloc GROUPE N:" headings. Text before the
// first heading belongs to no group.
func (p *Parser) extractGroups(text string) []models.Group {
	locs := groupHeadingRe.FindAllStringSubmatchIndex(text, -1)
	groups := make([]models.Group, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		number := text[loc[2]:loc[3]]
		log := p.log.With("group", number)
		blocks := extractBlocks(text[loc[1]:end], p.defaults, log)
		groups = append(groups, models.Group{
			Title:  "Groupe " + number,
			Blocks: blocks,
		})
	}
	return groups
}

// firstCapture returns the trimmed first submatch of re in text, or fallback.
func firstCapture(re *regexp.Regexp, text, fallback string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	return strings.TrimSpace(m[1])
}
