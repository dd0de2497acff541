package notes

import (
	"log/slog"
	"regexp"

	"github.com/claude/trackplan/internal/models"
)

// recoveryDuration matches 2'30''  2’30  45''  2
// A "min" suffix is not accepted, so "3'min pause sèche" is never a per-set recovery.
const recoveryDuration = `(\d+(?:[.,]\d+)?(?:\s*['’′]\s*\d*)?(?:''|’’|["”″])?)`

// blockRestDuration also matches 3'min  3 min
const blockRestDuration = `(\d+(?:[.,]\d+)?(?:\s*['’′]\s*\d*)?(?:''|’’|["”″])?(?:\s*min)?)`

var (
	// blockHeadingRe matches: Bloc 1
	blockHeadingRe = regexp.MustCompile(`Bloc\s+(\d+)`)

	// intervalLineRe matches a dash-introduced interval line: -   3x 1200 75%-80%-85%
	intervalLineRe = regexp.MustCompile(`-\s*(\d+\s*[xX×]\s*\d+\s*[\d%.,-]+)`)

	// recoveryRe matches: 2'30'' actif  |  1' marche  |  3'min pause sèche
	recoveryRe = regexp.MustCompile(recoveryDuration + `\s*((?i:actif|pause\s+s[èe]che|marche|trott))`)

	// afterRecoveryRe matches the dry rest taken once the block is over: 3'min pause sèche
	afterRecoveryRe = regexp.MustCompile(blockRestDuration + `\s*((?i:pause\s+s[èe]che))`)
)

// extractBlocks splits one group's text on "Bloc N" headings and extracts each block.
func extractBlocks(content string, d Defaults, log *slog.Logger) []models.Block {
	locs := blockHeadingRe.FindAllStringSubmatchIndex(content, -1)
	blocks := make([]models.Block, 0, len(locs))
	for i, loc := range locs {
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		title := "Bloc " + content[loc[2]:loc[3]]
		blocks = append(blocks, extractBlock(title, content[loc[1]:end], d, log))
	}
	return blocks
}

// extractBlock builds one block from the text between its heading and the next.
//
// Recovery phrases are paired with sets by position: the k-th phrase in the text
// sets the recovery of the k-th set. Extra phrases are ignored and sets without a
// phrase keep their placeholder recovery.
func extractBlock(title, body string, d Defaults, log *slog.Logger) models.Block {
	sets := make([]models.IntervalSet, 0)
	lines := intervalLineRe.FindAllStringSubmatch(body, -1)
	for _, m := range lines {
		sets = append(sets, ParseIntervalSet(m[1])...)
	}

	recoveries := recoveryRe.FindAllStringSubmatch(body, -1)
	for k := range sets {
		if k >= len(recoveries) {
			break
		}
		secs, err := ParseDuration(recoveries[k][1])
		if err != nil {
			log.Debug("skipping recovery", "block", title, "set", k, "error", err)
			continue
		}
		sets[k].RecoverySeconds = secs
		sets[k].RecoveryType = NormalizeRecoveryType(recoveries[k][2])
	}

	block := models.Block{
		Title:                title,
		Sets:                 sets,
		AfterRecoverySeconds: d.AfterRecoverySeconds,
		AfterRecoveryType:    d.AfterRecoveryType,
	}
	if m := afterRecoveryRe.FindStringSubmatch(body); m != nil {
		secs, err := ParseDuration(m[1])
		switch {
		case err != nil:
			log.Debug("skipping after-recovery", "block", title, "error", err)
		case secs > 0:
			block.AfterRecoverySeconds = secs
			block.AfterRecoveryType = NormalizeRecoveryType(m[2])
		}
	}

	log.Debug("block extracted",
		"block", title,
		"interval_lines", len(lines),
		"sets", len(sets),
		"recoveries", len(recoveries),
	)
	return block
}
