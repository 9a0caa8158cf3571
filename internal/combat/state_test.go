package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfactorlab/internal/config"
	"xfactorlab/internal/util"
)

// baseProfile is a deterministic profile: every roll succeeds and nothing
// scales unless a test turns it on.
func baseProfile() *config.Profile {
	return &config.Profile{
		ID:          "golden",
		Turns:       4,
		Enemies:     3,
		Primary:     config.PrimaryDef{Rate: 1, Coefficient: 1, Targets: 2},
		ExtraAttack: 1,
		Builds: []config.BuildDef{
			{Name: "solo", Kind: config.BuildSolo},
			{Name: "follow", Kind: config.BuildFollowUp, Rate: 1, Coefficient: 0.4, PerTurn: 0.1, Targets: 3, ExtraHit: 1},
		},
	}
}

func mustCharacter(t *testing.T, p *config.Profile) *Character {
	t.Helper()
	c, err := NewCharacter(p)
	require.NoError(t, err)
	return c
}

func TestRegisterAttackClampsStacks(t *testing.T) {
	p := baseProfile()
	p.Stack = config.StackDef{PerStack: 0.1, Max: 3}
	p.Supports = []config.SupportDef{
		{Name: "zcm", Kind: config.SupportStacking, GainRate: 1, PerStack: 0.03, MaxStacks: 4, LockThreshold: 2},
	}
	c := mustCharacter(t, p)
	sup, err := c.Support("zcm")
	require.NoError(t, err)

	rng := util.New(1)
	st := NewState(c, sup, rng)
	st.BeginTurn(1)
	for range 10 {
		st.RegisterAttack(rng)
	}
	assert.Equal(t, 10, st.Attacks)
	assert.Equal(t, 3, st.Stacks)
	assert.Equal(t, 4, st.SupportStacks)
	assert.InDelta(t, 1.3, st.Multiplier(MultStack), 1e-12)
}

func TestRegisterAttackOwnHitUsesStacksBeforeGain(t *testing.T) {
	p := baseProfile()
	p.Supports = []config.SupportDef{
		{Name: "zcm", Kind: config.SupportStacking, GainRate: 1, PerStack: 0.1, MaxStacks: 10, LockThreshold: 6, Coefficient: 2},
	}
	c := mustCharacter(t, p)
	sup, err := c.Support("zcm")
	require.NoError(t, err)

	rng := util.New(1)
	st := NewState(c, sup, rng)
	assert.InDelta(t, 2.0, st.RegisterAttack(rng), 1e-12)
	assert.InDelta(t, 2.2, st.RegisterAttack(rng), 1e-12)
	assert.Equal(t, 2, st.SupportStacks)
	// not amplifying: hits ignore the support counter
	assert.Equal(t, 1.0, st.Multiplier(MultSupportStack))
}

func TestUnlockBonus(t *testing.T) {
	p := baseProfile()
	p.Special = config.SpecialDef{Rate: 0.1, Damage: 0.5}
	p.BonusPool = config.BonusPoolDef{Size: 4, Effects: []config.BonusEffectDef{
		{ID: 1, Kind: config.BonusSpecialRate, Value: 0.2},
		{ID: 2, Kind: config.BonusPursuit, Value: 0.2},
		{ID: 3, Kind: config.BonusPrimaryRate, Value: 0.1},
		{ID: 4, Kind: config.BonusSpecialDamage, Value: 0.2},
	}}
	p.Primary.Rate = 0.5
	c := mustCharacter(t, p)
	sup, err := c.Support(config.SupportNone)
	require.NoError(t, err)

	st := NewState(c, sup, util.New(1))
	st.BeginTurn(1)

	assert.True(t, st.UnlockBonus(1))
	assert.False(t, st.UnlockBonus(1))
	assert.InDelta(t, 0.3, st.SpecialRate(), 1e-12)

	st.UnlockBonus(2)
	st.UnlockBonus(3)
	st.UnlockBonus(4)
	assert.InDelta(t, 1.2, st.Multiplier(MultPursuit), 1e-12)
	assert.InDelta(t, 0.6, st.PrimaryRate(), 1e-12)
	assert.InDelta(t, 1.7, st.Multiplier(MultSpecial), 1e-12)
	assert.Equal(t, []int{1, 2, 3, 4}, st.Unlocked())
}

func TestDrawBonusNeverRepeats(t *testing.T) {
	p := baseProfile()
	p.BonusPool = config.BonusPoolDef{Size: 8}
	c := mustCharacter(t, p)
	sup, err := c.Support(config.SupportNone)
	require.NoError(t, err)

	for seed := int64(1); seed <= 20; seed++ {
		st := NewState(c, sup, util.New(seed))
		seen := map[int]bool{}
		for {
			id, ok := st.DrawBonus()
			if !ok {
				break
			}
			require.GreaterOrEqual(t, id, 1)
			require.LessOrEqual(t, id, 8)
			require.False(t, seen[id], "id %d drawn twice", id)
			seen[id] = true
		}
		assert.Len(t, seen, 8)
		assert.Len(t, st.Unlocked(), 8)
	}
}

func TestWindowedPursuitMultiplier(t *testing.T) {
	p := baseProfile()
	p.PursuitBonus = 0.16
	p.Supports = []config.SupportDef{
		{Name: "mt", Kind: config.SupportWindowedPursuit, Window: 3, PursuitBonus: 0.3, ExtraAttack: 0.65},
	}
	c := mustCharacter(t, p)
	sup, err := c.Support("mt")
	require.NoError(t, err)

	st := NewState(c, sup, util.New(1))
	st.BeginTurn(3)
	assert.InDelta(t, 1.46, st.Multiplier(MultPursuit), 1e-12)
	st.BeginTurn(4)
	assert.InDelta(t, 1.16, st.Multiplier(MultPursuit), 1e-12)
}

func TestCoefficientAt(t *testing.T) {
	tests := []struct {
		name  string
		coeff Coefficient
		turn  int
		want  float64
	}{
		{name: "first turn", coeff: Coefficient{Base: 0.412, PerTurn: 0.123}, turn: 1, want: 0.412},
		{name: "growing", coeff: Coefficient{Base: 0.412, PerTurn: 0.123}, turn: 8, want: 0.412 + 7*0.123},
		{name: "decaying", coeff: Coefficient{Base: 4, PerTurn: -1}, turn: 3, want: 2},
		{name: "clamped", coeff: Coefficient{Base: 4, PerTurn: -1}, turn: 8, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.coeff.At(tt.turn), 1e-12)
		})
	}
}

func TestNewStateStartsOnFirstTurn(t *testing.T) {
	c := mustCharacter(t, baseProfile())
	sup, err := c.Support(config.SupportNone)
	require.NoError(t, err)

	st := NewState(c, sup, util.New(1))
	assert.Equal(t, 1, st.Turn)
	assert.NotPanics(t, func() { st.AddDamage(2.5) })
	assert.Equal(t, []float64{2.5, 0, 0, 0}, st.PerTurn())
}
