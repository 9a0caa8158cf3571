package combat

import (
	"fmt"

	"xfactorlab/internal/config"
)

type Primary struct {
	Rate        float64
	Coefficient float64
	Targets     int
	Pursuit     bool
}

type BonusEffect struct {
	Kind  string
	Value float64
}

// Character is the immutable, validated form of a profile. One Character is
// shared read-only by every run of an experiment.
type Character struct {
	ID      string
	Name    string
	Turns   int
	Enemies int

	Primary         Primary
	StackPerStack   float64
	StackMax        int
	ExtraAttack     float64
	SpecialRate     float64
	SpecialDamage   float64
	PursuitBonus    float64
	TotalBonus      float64
	GrowthPerAttack float64
	InertDud        bool

	PoolSize int
	Bonuses  map[int]BonusEffect

	builds       map[string]Build
	buildNames   []string
	supports     map[string]Support
	supportNames []string
}

func NewCharacter(p *config.Profile) (*Character, error) {
	if p == nil {
		return nil, fmt.Errorf("nil profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := &Character{
		ID:      p.ID,
		Name:    p.Name,
		Turns:   p.Turns,
		Enemies: p.Enemies,
		Primary: Primary{
			Rate:        p.Primary.Rate + p.Primary.RateBonus,
			Coefficient: p.Primary.Coefficient,
			Targets:     p.Primary.Targets,
			Pursuit:     p.Primary.Pursuit,
		},
		StackPerStack:   p.Stack.PerStack,
		StackMax:        p.Stack.Max,
		ExtraAttack:     p.ExtraAttack,
		SpecialRate:     p.Special.Rate,
		SpecialDamage:   p.Special.Damage,
		PursuitBonus:    p.PursuitBonus,
		TotalBonus:      p.TotalBonus,
		GrowthPerAttack: p.GrowthPerAttack,
		InertDud:        p.InertDud,
		PoolSize:        p.BonusPool.Size,
		Bonuses:         map[int]BonusEffect{},
		builds:          map[string]Build{},
		supports:        map[string]Support{},
	}
	if c.Name == "" {
		c.Name = c.ID
	}
	for _, ef := range p.BonusPool.Effects {
		c.Bonuses[ef.ID] = BonusEffect{Kind: ef.Kind, Value: ef.Value}
	}
	for _, def := range p.Builds {
		b, err := newBuild(def, p.Enemies)
		if err != nil {
			return nil, err
		}
		c.builds[def.Name] = b
		c.buildNames = append(c.buildNames, def.Name)
	}
	for _, name := range p.SupportNames() {
		def, _ := p.FindSupport(name)
		s, err := newSupport(def)
		if err != nil {
			return nil, err
		}
		c.supports[name] = s
		c.supportNames = append(c.supportNames, name)
	}
	return c, nil
}

func (c *Character) Build(name string) (Build, error) {
	b, ok := c.builds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q for profile %q", config.ErrUnknownBuild, name, c.ID)
	}
	return b, nil
}

func (c *Character) Support(name string) (Support, error) {
	s, ok := c.supports[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q for profile %q", config.ErrUnknownSupport, name, c.ID)
	}
	return s, nil
}

func (c *Character) BuildNames() []string   { return append([]string(nil), c.buildNames...) }
func (c *Character) SupportNames() []string { return append([]string(nil), c.supportNames...) }

// WithTurns returns a copy that fights n turns instead of the profile value.
func (c *Character) WithTurns(n int) (*Character, error) {
	if n <= 0 {
		return nil, fmt.Errorf("turns must be positive (got %d)", n)
	}
	cp := *c
	cp.Turns = n
	return &cp, nil
}
