package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownProfile = errors.New("unknown profile")
	ErrUnknownSupport = errors.New("unknown support")
	ErrUnknownBuild   = errors.New("unknown build")
)

// ValidationError lists every problem found in a profile.
type ValidationError struct {
	Profile  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile %q: %s", e.Profile, strings.Join(e.Problems, "; "))
}

type problems struct {
	list []string
}

func (p *problems) addf(format string, args ...any) {
	p.list = append(p.list, fmt.Sprintf(format, args...))
}

func (p *problems) prob(field string, v float64) {
	if v < 0 || v > 1 {
		p.addf("%s: probability %v outside [0,1]", field, v)
	}
}

func (p *problems) nonNeg(field string, v float64) {
	if v < 0 {
		p.addf("%s: must not be negative (got %v)", field, v)
	}
}

// Validate checks the profile before any run executes.
func (p *Profile) Validate() error {
	var ps problems
	if p.ID == "" {
		ps.addf("id: required")
	}
	if p.Turns <= 0 {
		ps.addf("turns: must be positive (got %d)", p.Turns)
	}
	if p.Enemies <= 0 {
		ps.addf("enemies: must be positive (got %d)", p.Enemies)
	}

	ps.prob("primary.rate", p.Primary.Rate)
	ps.nonNeg("primary.rate_bonus", p.Primary.RateBonus)
	ps.prob("primary.rate+rate_bonus", p.Primary.Rate+p.Primary.RateBonus)
	ps.nonNeg("primary.coefficient", p.Primary.Coefficient)
	if p.Primary.Targets <= 0 {
		ps.addf("primary.targets: must be positive (got %d)", p.Primary.Targets)
	}
	ps.nonNeg("stack.per_stack", p.Stack.PerStack)
	if p.Stack.Max < 0 {
		ps.addf("stack.max: must not be negative (got %d)", p.Stack.Max)
	}
	ps.prob("extra_attack", p.ExtraAttack)
	ps.prob("special.rate", p.Special.Rate)
	ps.nonNeg("special.damage", p.Special.Damage)
	ps.nonNeg("pursuit_bonus", p.PursuitBonus)
	ps.nonNeg("total_bonus", p.TotalBonus)
	ps.nonNeg("growth_per_attack", p.GrowthPerAttack)

	if p.BonusPool.Size < 0 {
		ps.addf("bonus_pool.size: must not be negative (got %d)", p.BonusPool.Size)
	}
	seen := map[int]bool{}
	for i, ef := range p.BonusPool.Effects {
		field := fmt.Sprintf("bonus_pool.effects[%d]", i)
		if ef.ID < 1 || ef.ID > p.BonusPool.Size {
			ps.addf("%s: id %d outside pool 1..%d", field, ef.ID, p.BonusPool.Size)
		}
		if seen[ef.ID] {
			ps.addf("%s: duplicate id %d", field, ef.ID)
		}
		seen[ef.ID] = true
		switch ef.Kind {
		case BonusSpecialRate, BonusPursuit, BonusPrimaryRate, BonusSpecialDamage:
		default:
			ps.addf("%s: unknown kind %q", field, ef.Kind)
		}
		ps.nonNeg(field+".value", ef.Value)
	}

	if len(p.Builds) == 0 {
		ps.addf("builds: at least one build is required")
	}
	names := map[string]bool{}
	for i, b := range p.Builds {
		validateBuild(&ps, fmt.Sprintf("builds[%d]", i), b)
		if names[b.Name] {
			ps.addf("builds[%d]: duplicate name %q", i, b.Name)
		}
		names[b.Name] = true
	}
	names = map[string]bool{}
	for i, s := range p.Supports {
		validateSupport(&ps, fmt.Sprintf("supports[%d]", i), s)
		if names[s.Name] {
			ps.addf("supports[%d]: duplicate name %q", i, s.Name)
		}
		names[s.Name] = true
	}

	if len(ps.list) > 0 {
		return &ValidationError{Profile: p.ID, Problems: ps.list}
	}
	return nil
}

func validateBuild(ps *problems, field string, b BuildDef) {
	if b.Name == "" {
		ps.addf("%s.name: required", field)
	}
	switch b.Kind {
	case BuildSolo:
		return
	case BuildFollowUp, BuildCharge, BuildSteady:
	default:
		ps.addf("%s.kind: unknown build kind %q", field, b.Kind)
		return
	}
	ps.prob(field+".rate", b.Rate)
	ps.nonNeg(field+".coefficient", b.Coefficient)
	ps.nonNeg(field+".per_turn", b.PerTurn)
	if b.Targets < 0 {
		ps.addf("%s.targets: must not be negative (got %d)", field, b.Targets)
	}
	ps.prob(field+".extra_hit", b.ExtraHit)
	ps.nonNeg(field+".special_rate_bonus", b.SpecialRateBonus)
	for i, th := range b.RateThresholds {
		if th.Attacks < 0 {
			ps.addf("%s.rate_thresholds[%d].attacks: must not be negative", field, i)
		}
		ps.nonNeg(fmt.Sprintf("%s.rate_thresholds[%d].bonus", field, i), th.Bonus)
	}
	if b.RateWindow.Turns < 0 {
		ps.addf("%s.rate_window.turns: must not be negative", field)
	}
	ps.nonNeg(field+".rate_window.bonus", b.RateWindow.Bonus)
}

func validateSupport(ps *problems, field string, s SupportDef) {
	if s.Name == "" {
		ps.addf("%s.name: required", field)
	}
	switch s.Kind {
	case SupportNone:
	case SupportWindowedPursuit:
		if s.Window < 0 {
			ps.addf("%s.window: must not be negative", field)
		}
		ps.nonNeg(field+".pursuit_bonus", s.PursuitBonus)
		ps.prob(field+".extra_attack", s.ExtraAttack)
	case SupportStacking:
		ps.prob(field+".gain_rate", s.GainRate)
		ps.nonNeg(field+".per_stack", s.PerStack)
		ps.nonNeg(field+".coefficient", s.Coefficient)
		if s.MaxStacks < 0 {
			ps.addf("%s.max_stacks: must not be negative", field)
		}
		if s.LockThreshold < 0 || s.LockThreshold > s.MaxStacks {
			ps.addf("%s.lock_threshold: %d outside 0..max_stacks(%d)", field, s.LockThreshold, s.MaxStacks)
		}
	case SupportGuaranteedSpecial:
		ps.nonNeg(field+".damage", s.Damage)
	case SupportFlatBonus:
		ps.nonNeg(field+".total_bonus", s.TotalBonus)
	case SupportSpecialBoost:
		ps.nonNeg(field+".total_bonus", s.TotalBonus)
		ps.prob(field+".special_rate", s.SpecialRate)
		ps.nonNeg(field+".special_damage", s.SpecialDamage)
	default:
		ps.addf("%s.kind: unknown support kind %q", field, s.Kind)
	}
}
