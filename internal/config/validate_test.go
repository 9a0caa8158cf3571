package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() Profile {
	return Profile{
		ID:          "test",
		Turns:       4,
		Enemies:     3,
		Primary:     PrimaryDef{Rate: 0.5, Coefficient: 1, Targets: 2},
		Stack:       StackDef{PerStack: 0.1, Max: 5},
		ExtraAttack: 0.5,
		Special:     SpecialDef{Damage: 0.5},
		BonusPool: BonusPoolDef{Size: 4, Effects: []BonusEffectDef{
			{ID: 2, Kind: BonusSpecialRate, Value: 0.2},
		}},
		Builds: []BuildDef{
			{Name: "follow", Kind: BuildFollowUp, Rate: 0.75, Coefficient: 0.4, PerTurn: 0.1, ExtraHit: 0.5},
		},
		Supports: []SupportDef{
			{Name: "stack", Kind: SupportStacking, GainRate: 0.25, PerStack: 0.03, MaxStacks: 10, LockThreshold: 6},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(p *Profile) {},
		},
		{
			name:    "zero turns",
			mutate:  func(p *Profile) { p.Turns = 0 },
			wantErr: "turns: must be positive",
		},
		{
			name:    "probability above one",
			mutate:  func(p *Profile) { p.Primary.Rate = 1.2 },
			wantErr: "primary.rate: probability 1.2 outside [0,1]",
		},
		{
			name: "rate bonus pushes primary above one",
			mutate: func(p *Profile) {
				p.Primary.Rate = 0.95
				p.Primary.RateBonus = 0.1
			},
			wantErr: "primary.rate+rate_bonus: probability",
		},
		{
			name:    "negative extra attack",
			mutate:  func(p *Profile) { p.ExtraAttack = -0.1 },
			wantErr: "extra_attack: probability -0.1 outside [0,1]",
		},
		{
			name:    "unknown build kind",
			mutate:  func(p *Profile) { p.Builds[0].Kind = "ultimate" },
			wantErr: `unknown build kind "ultimate"`,
		},
		{
			name:    "no builds",
			mutate:  func(p *Profile) { p.Builds = nil },
			wantErr: "at least one build",
		},
		{
			name:    "lock threshold above cap",
			mutate:  func(p *Profile) { p.Supports[0].LockThreshold = 11 },
			wantErr: "lock_threshold: 11 outside 0..max_stacks(10)",
		},
		{
			name:    "bonus id outside pool",
			mutate:  func(p *Profile) { p.BonusPool.Effects[0].ID = 9 },
			wantErr: "id 9 outside pool 1..4",
		},
		{
			name: "duplicate support",
			mutate: func(p *Profile) {
				p.Supports = append(p.Supports, p.Supports[0])
			},
			wantErr: `duplicate name "stack"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	p := validProfile()
	p.Turns = -1
	p.Enemies = 0
	p.Special.Rate = 2

	err := p.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 3)
}

func TestFindSupport_NoneAlwaysAvailable(t *testing.T) {
	p := validProfile()
	def, ok := p.FindSupport(SupportNone)
	require.True(t, ok)
	assert.Equal(t, SupportNone, def.Kind)

	_, ok = p.FindSupport("missing")
	assert.False(t, ok)
}
