package models

// RecoveryType is the activity performed during a rest interval.
type RecoveryType string

const (
	RecoveryActive RecoveryType = "active"
	RecoveryWalk   RecoveryType = "walk"
	RecoveryJog    RecoveryType = "jog"
	RecoveryRest   RecoveryType = "rest"
)

// RecoveryTypes lists every accepted recovery type.
var RecoveryTypes = []RecoveryType{RecoveryActive, RecoveryWalk, RecoveryJog, RecoveryRest}

// Valid reports whether r is one of the enumerated recovery types.
func (r RecoveryType) Valid() bool {
	switch r {
	case RecoveryActive, RecoveryWalk, RecoveryJog, RecoveryRest:
		return true
	}
	return false
}

// Plan is a structured track session converted from free-form notes.
// Field names are a compatibility contract with downstream consumers.
type Plan struct {
	Title    string  `json:"title" yaml:"title"`
	Warmup   string  `json:"warmup" yaml:"warmup"`
	Cooldown string  `json:"cooldown" yaml:"cooldown"`
	Remarks  string  `json:"remarks" yaml:"remarks"`
	Groups   []Group `json:"groups" yaml:"groups"`
}

// Group is one "Bloc GROUPE N" section of a session.
type Group struct {
	Title  string  `json:"title" yaml:"title"`
	Blocks []Block `json:"blocks" yaml:"blocks"`
}

// Block is a titled run of interval sets followed by a single rest period.
type Block struct {
	Title                string        `json:"title" yaml:"title"`
	Sets                 []IntervalSet `json:"sets" yaml:"sets"`
	AfterRecoverySeconds float64       `json:"afterRecoverySeconds" yaml:"afterRecoverySeconds"`
	AfterRecoveryType    RecoveryType  `json:"afterRecoveryType" yaml:"afterRecoveryType"`
}

// IntervalSet is one homogeneous repeated effort and the recovery between repetitions.
type IntervalSet struct {
	Repetitions     int          `json:"repetitions" yaml:"repetitions"`
	DistanceMeters  int          `json:"distanceMeters" yaml:"distanceMeters"`
	VMAPercent      float64      `json:"vmaPercent" yaml:"vmaPercent"`
	RecoverySeconds float64      `json:"recoverySeconds" yaml:"recoverySeconds"`
	RecoveryType    RecoveryType `json:"recoveryType" yaml:"recoveryType"`
}

// Counts returns the number of groups, blocks and sets in the plan.
func (p Plan) Counts() (groups, blocks, sets int) {
	groups = len(p.Groups)
	for _, g := range p.Groups {
		blocks += len(g.Blocks)
		for _, b := range g.Blocks {
			sets += len(b.Sets)
		}
	}
	return groups, blocks, sets
}
