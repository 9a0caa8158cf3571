package config

// Profile describes one character: its base coefficients plus the builds and
// supports it can be simulated with.
type Profile struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Note    string `yaml:"note"`
	Turns   int    `yaml:"turns"`
	Enemies int    `yaml:"enemies"`

	Primary         PrimaryDef   `yaml:"primary"`
	Stack           StackDef     `yaml:"stack"`
	ExtraAttack     float64      `yaml:"extra_attack"`
	Special         SpecialDef   `yaml:"special"`
	PursuitBonus    float64      `yaml:"pursuit_bonus"`
	TotalBonus      float64      `yaml:"total_bonus"`
	GrowthPerAttack float64      `yaml:"growth_per_attack"`
	InertDud        bool         `yaml:"inert_dud"` // dud attacks only register
	BonusPool       BonusPoolDef `yaml:"bonus_pool"`

	Builds   []BuildDef   `yaml:"builds"`
	Supports []SupportDef `yaml:"supports"`
}

type PrimaryDef struct {
	Rate        float64 `yaml:"rate"`
	RateBonus   float64 `yaml:"rate_bonus"`
	Coefficient float64 `yaml:"coefficient"`
	Targets     int     `yaml:"targets"`
	Pursuit     bool    `yaml:"pursuit"`
	Note        string  `yaml:"note"`
}

type StackDef struct {
	PerStack float64 `yaml:"per_stack"`
	Max      int     `yaml:"max"`
}

type SpecialDef struct {
	Rate   float64 `yaml:"rate"`
	Damage float64 `yaml:"damage"`
}

type BonusPoolDef struct {
	Size    int              `yaml:"size"`
	Effects []BonusEffectDef `yaml:"effects"`
}

// Bonus effect kinds. BonusSpecialRate is the chance-boost bonus: it raises
// the special-effect baseline for the rest of the run.
const (
	BonusSpecialRate   = "special_rate"
	BonusPursuit       = "pursuit"
	BonusPrimaryRate   = "primary_rate"
	BonusSpecialDamage = "special_damage"
)

type BonusEffectDef struct {
	ID    int     `yaml:"id"`
	Kind  string  `yaml:"kind"`
	Value float64 `yaml:"value"`
}

// Build kinds.
const (
	BuildSolo     = "solo"
	BuildFollowUp = "follow_up"
	BuildCharge   = "charge"
	BuildSteady   = "steady"
)

type BuildDef struct {
	Name        string  `yaml:"name"`
	Kind        string  `yaml:"kind"`
	Note        string  `yaml:"note"`
	Rate        float64 `yaml:"rate"`
	Coefficient float64 `yaml:"coefficient"`
	PerTurn     float64 `yaml:"per_turn"`
	Targets     int     `yaml:"targets"`

	// follow_up
	ExtraHit       float64        `yaml:"extra_hit"`
	ChainPrimary   bool           `yaml:"chain_primary"`
	RateThresholds []ThresholdDef `yaml:"rate_thresholds"`
	RateWindow     WindowDef      `yaml:"rate_window"`

	// charge
	SpecialRateBonus float64 `yaml:"special_rate_bonus"`
}

// ThresholdDef grants Bonus once at least Attacks attacks completed earlier in
// the run.
type ThresholdDef struct {
	Attacks int     `yaml:"attacks"`
	Bonus   float64 `yaml:"bonus"`
}

// WindowDef grants Bonus during turns 1..Turns.
type WindowDef struct {
	Turns int     `yaml:"turns"`
	Bonus float64 `yaml:"bonus"`
}

// Support kinds.
const (
	SupportNone              = "none"
	SupportWindowedPursuit   = "windowed_pursuit"
	SupportStacking          = "stacking"
	SupportGuaranteedSpecial = "guaranteed_special"
	SupportFlatBonus         = "flat_bonus"
	SupportSpecialBoost      = "special_boost"
)

type SupportDef struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	Note string `yaml:"note"`

	// windowed_pursuit
	Window       int     `yaml:"window"`
	PursuitBonus float64 `yaml:"pursuit_bonus"`
	ExtraAttack  float64 `yaml:"extra_attack"`

	// stacking
	GainRate       float64 `yaml:"gain_rate"`
	PerStack       float64 `yaml:"per_stack"`
	MaxStacks      int     `yaml:"max_stacks"`
	LockThreshold  int     `yaml:"lock_threshold"`
	Amplify        bool    `yaml:"amplify"`
	Coefficient    float64 `yaml:"coefficient"`
	CountsAsDamage bool    `yaml:"counts_as_damage"`

	// guaranteed_special
	Damage float64 `yaml:"damage"`

	// flat_bonus, special_boost
	TotalBonus    float64 `yaml:"total_bonus"`
	SpecialRate   float64 `yaml:"special_rate"`
	SpecialDamage float64 `yaml:"special_damage"`
}

func (p *Profile) FindBuild(name string) (BuildDef, bool) {
	for _, b := range p.Builds {
		if b.Name == name {
			return b, true
		}
	}
	return BuildDef{}, false
}

func (p *Profile) FindSupport(name string) (SupportDef, bool) {
	for _, s := range p.Supports {
		if s.Name == name {
			return s, true
		}
	}
	if name == SupportNone {
		return SupportDef{Name: SupportNone, Kind: SupportNone}, true
	}
	return SupportDef{}, false
}

// BuildNames lists build names in file order.
func (p *Profile) BuildNames() []string {
	out := make([]string, 0, len(p.Builds))
	for _, b := range p.Builds {
		out = append(out, b.Name)
	}
	return out
}

// SupportNames lists support names in file order, "none" first.
func (p *Profile) SupportNames() []string {
	out := []string{SupportNone}
	for _, s := range p.Supports {
		if s.Name == SupportNone {
			continue
		}
		out = append(out, s.Name)
	}
	return out
}
