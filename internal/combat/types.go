package combat

// Event is one entry of a recorded run. Only trace mode records events.
type Event struct {
	Turn    int            `json:"turn"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// AttackKind tells the resolver where an attack came from.
type AttackKind int

const (
	AttackBase AttackKind = iota
	AttackExtra
	AttackSupport
	AttackDud
)

func (k AttackKind) String() string {
	switch k {
	case AttackBase:
		return "base"
	case AttackExtra:
		return "extra"
	case AttackSupport:
		return "support"
	case AttackDud:
		return "dud"
	}
	return "unknown"
}

type Attack struct {
	Kind AttackKind
}

// Result is one damage sample. PerTurn has exactly one entry per turn and
// sums to Total. Raw is the damage before final scaling.
type Result struct {
	Total    float64   `json:"total"`
	Raw      float64   `json:"raw"`
	PerTurn  []float64 `json:"per_turn"`
	Attacks  int       `json:"attacks"`
	Unlocked []int     `json:"unlocked,omitempty"`
	Dropped  int       `json:"dropped,omitempty"`
	Events   []Event   `json:"events,omitempty"`
}
