package combat

import (
	"fmt"

	"xfactorlab/internal/config"
)

// Coefficient is a per-target damage coefficient that moves linearly with the
// turn number. It never goes below zero.
type Coefficient struct {
	Base    float64
	PerTurn float64
}

func (c Coefficient) At(turn int) float64 {
	return max(0, c.Base+c.PerTurn*float64(turn-1))
}

// Build is the closed set of secondary skill formulas. resolve rolls the
// skill for one attack and reports whether it dealt damage.
type Build interface {
	Name() string
	resolve(r *run) bool
}

// NoSecondary leaves the follow-up slot empty.
type NoSecondary struct{ Label string }

type Threshold struct {
	Attacks int
	Bonus   float64
}

// FollowUp hits every enemy once, then a second time with probability
// ExtraHit. Its coefficient grows each turn.
type FollowUp struct {
	Label        string
	Rate         float64
	Coeff        Coefficient
	Targets      int
	ExtraHit     float64
	ChainPrimary bool
	Thresholds   []Threshold
	WindowTurns  int
	WindowBonus  float64
}

// Charge is a single-target hit whose coefficient decays each turn. Its own
// hit gets a raised special-effect rate.
type Charge struct {
	Label            string
	Rate             float64
	Coeff            Coefficient
	Targets          int
	SpecialRateBonus float64
}

// Steady is a single hit with a constant coefficient.
type Steady struct {
	Label   string
	Rate    float64
	Coeff   Coefficient
	Targets int
}

func (b NoSecondary) Name() string { return b.Label }
func (b FollowUp) Name() string    { return b.Label }
func (b Charge) Name() string      { return b.Label }
func (b Steady) Name() string      { return b.Label }

func newBuild(def config.BuildDef, enemies int) (Build, error) {
	targets := def.Targets
	if targets == 0 {
		targets = enemies
	}
	switch def.Kind {
	case config.BuildSolo:
		return NoSecondary{Label: def.Name}, nil
	case config.BuildFollowUp:
		fu := FollowUp{
			Label:        def.Name,
			Rate:         def.Rate,
			Coeff:        Coefficient{Base: def.Coefficient, PerTurn: def.PerTurn},
			Targets:      targets,
			ExtraHit:     def.ExtraHit,
			ChainPrimary: def.ChainPrimary,
			WindowTurns:  def.RateWindow.Turns,
			WindowBonus:  def.RateWindow.Bonus,
		}
		for _, th := range def.RateThresholds {
			fu.Thresholds = append(fu.Thresholds, Threshold{Attacks: th.Attacks, Bonus: th.Bonus})
		}
		return fu, nil
	case config.BuildCharge:
		return Charge{
			Label:            def.Name,
			Rate:             def.Rate,
			Coeff:            Coefficient{Base: def.Coefficient, PerTurn: -def.PerTurn},
			Targets:          targets,
			SpecialRateBonus: def.SpecialRateBonus,
		}, nil
	case config.BuildSteady:
		return Steady{
			Label:   def.Name,
			Rate:    def.Rate,
			Coeff:   Coefficient{Base: def.Coefficient},
			Targets: targets,
		}, nil
	}
	return nil, fmt.Errorf("%w: build %q has kind %q", config.ErrUnknownBuild, def.Name, def.Kind)
}

func (NoSecondary) resolve(*run) bool { return false }

// rate adds the passive bonuses: thresholds on attacks completed before the
// current one, and the opening turn window.
func (b FollowUp) rate(before, turn int) float64 {
	rate := b.Rate
	for _, th := range b.Thresholds {
		if before >= th.Attacks {
			rate += th.Bonus
		}
	}
	if turn <= b.WindowTurns {
		rate += b.WindowBonus
	}
	return rate
}

func (b FollowUp) resolve(r *run) bool {
	if !r.roll(b.rate(r.state.Attacks-1, r.turn)) {
		return false
	}
	hits := 1
	if r.roll(b.ExtraHit) {
		hits++
	}
	coeff := b.Coeff.At(r.turn) * float64(b.Targets)
	for range hits {
		r.hit(b.Label, coeff, true, 0)
		if b.ChainPrimary && r.roll(r.state.PrimaryRate()) {
			r.hit("chain", r.char.Primary.Coefficient*float64(r.char.Primary.Targets), r.char.Primary.Pursuit, 0)
		}
	}
	return true
}

func (b Charge) resolve(r *run) bool {
	if !r.roll(b.Rate) {
		return false
	}
	r.hit(b.Label, b.Coeff.At(r.turn)*float64(b.Targets), true, b.SpecialRateBonus)
	return true
}

func (b Steady) resolve(r *run) bool {
	if !r.roll(b.Rate) {
		return false
	}
	r.hit(b.Label, b.Coeff.At(r.turn)*float64(b.Targets), true, 0)
	return true
}
