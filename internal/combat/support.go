package combat

import (
	"fmt"

	"xfactorlab/internal/config"
)

// Support is the closed set of support variants. Only the types in this file
// implement it.
type Support interface {
	Name() string
	isSupport()
}

// NoSupport is the solo baseline.
type NoSupport struct{ Label string }

// WindowedPursuit raises the pursuit bonus during turns 1..Window and may add
// one attack at the end of each of those turns.
type WindowedPursuit struct {
	Label        string
	Window       int
	PursuitBonus float64
	ExtraAttack  float64
}

// Stacking keeps its own stack counter, gaining one stack per registered
// attack with probability GainRate. Until LockThreshold is reached its end of
// turn attack is a dud.
type Stacking struct {
	Label          string
	GainRate       float64
	PerStack       float64
	MaxStacks      int
	LockThreshold  int
	Amplify        bool
	Coefficient    float64
	CountsAsDamage bool
}

// GuaranteedSpecial boosts every hit and guarantees one special effect per
// turn.
type GuaranteedSpecial struct {
	Label  string
	Damage float64
}

type FlatBonus struct {
	Label      string
	TotalBonus float64
}

type SpecialBoost struct {
	Label         string
	TotalBonus    float64
	SpecialRate   float64
	SpecialDamage float64
}

func (s NoSupport) Name() string         { return s.Label }
func (s WindowedPursuit) Name() string   { return s.Label }
func (s Stacking) Name() string          { return s.Label }
func (s GuaranteedSpecial) Name() string { return s.Label }
func (s FlatBonus) Name() string         { return s.Label }
func (s SpecialBoost) Name() string      { return s.Label }

func (NoSupport) isSupport()         {}
func (WindowedPursuit) isSupport()   {}
func (Stacking) isSupport()          {}
func (GuaranteedSpecial) isSupport() {}
func (FlatBonus) isSupport()         {}
func (SpecialBoost) isSupport()      {}

func newSupport(def config.SupportDef) (Support, error) {
	switch def.Kind {
	case config.SupportNone:
		return NoSupport{Label: def.Name}, nil
	case config.SupportWindowedPursuit:
		return WindowedPursuit{
			Label:        def.Name,
			Window:       def.Window,
			PursuitBonus: def.PursuitBonus,
			ExtraAttack:  def.ExtraAttack,
		}, nil
	case config.SupportStacking:
		return Stacking{
			Label:          def.Name,
			GainRate:       def.GainRate,
			PerStack:       def.PerStack,
			MaxStacks:      def.MaxStacks,
			LockThreshold:  def.LockThreshold,
			Amplify:        def.Amplify,
			Coefficient:    def.Coefficient,
			CountsAsDamage: def.CountsAsDamage,
		}, nil
	case config.SupportGuaranteedSpecial:
		return GuaranteedSpecial{Label: def.Name, Damage: def.Damage}, nil
	case config.SupportFlatBonus:
		return FlatBonus{Label: def.Name, TotalBonus: def.TotalBonus}, nil
	case config.SupportSpecialBoost:
		return SpecialBoost{
			Label:         def.Name,
			TotalBonus:    def.TotalBonus,
			SpecialRate:   def.SpecialRate,
			SpecialDamage: def.SpecialDamage,
		}, nil
	}
	return nil, fmt.Errorf("%w: support %q has kind %q", config.ErrUnknownSupport, def.Name, def.Kind)
}

func supportPursuit(s Support, turn int) float64 {
	if w, ok := s.(WindowedPursuit); ok && turn <= w.Window {
		return w.PursuitBonus
	}
	return 0
}

func supportTotal(s Support) float64 {
	switch s := s.(type) {
	case FlatBonus:
		return s.TotalBonus
	case SpecialBoost:
		return s.TotalBonus
	}
	return 0
}

func supportSpecialRate(s Support) float64 {
	if b, ok := s.(SpecialBoost); ok {
		return b.SpecialRate
	}
	return 0
}

func supportSpecialDamage(s Support) float64 {
	if b, ok := s.(SpecialBoost); ok {
		return b.SpecialDamage
	}
	return 0
}

func supportBoost(s Support) float64 {
	if g, ok := s.(GuaranteedSpecial); ok {
		return g.Damage
	}
	return 0
}

func guaranteesSpecial(s Support) bool {
	_, ok := s.(GuaranteedSpecial)
	return ok
}

func countsAsDamage(s Support) bool {
	st, ok := s.(Stacking)
	return ok && st.CountsAsDamage
}

// trailingAttacks returns the attacks the support adds once the turn's queue
// has drained.
func (r *run) trailingAttacks() []Attack {
	switch s := r.support.(type) {
	case WindowedPursuit:
		if r.turn <= s.Window && r.roll(s.ExtraAttack) {
			return []Attack{{Kind: AttackSupport}}
		}
	case Stacking:
		if r.state.SupportStacks < s.LockThreshold {
			return []Attack{{Kind: AttackDud}}
		}
		return []Attack{{Kind: AttackSupport}}
	}
	return nil
}
