package combat

import (
	"math/rand/v2"

	"xfactorlab/internal/config"
)

// MultiplierKind names a multiplier derived from the combat state.
type MultiplierKind int

const (
	MultStack        MultiplierKind = iota // primary stack counter
	MultSupportStack                       // support stack counter, when it amplifies hits
	MultPursuit                            // pursuit hits only
	MultSpecial                            // applied when a special effect lands
	MultBoost                              // per-turn support damage boost
	MultTotal                              // flat total-damage multiplier
	MultGrowth                             // final attack-count growth
)

// State is the mutable record of a single run. It is owned by that run and
// discarded once the result is read.
type State struct {
	char     *Character
	support  Support
	stacking *Stacking

	Turn          int
	Stacks        int
	Attacks       int
	SupportStacks int

	specialRate float64
	pool        []int
	unlocked    []int
	acquired    map[int]bool
	perTurn     []float64
}

// NewState shuffles the bonus pool once; draws then consume it front to back.
func NewState(c *Character, s Support, rng *rand.Rand) *State {
	st := &State{
		char:        c,
		support:     s,
		Turn:        1,
		specialRate: c.SpecialRate + supportSpecialRate(s),
		acquired:    map[int]bool{},
		perTurn:     make([]float64, c.Turns),
	}
	if sk, ok := s.(Stacking); ok {
		st.stacking = &sk
	}
	if c.PoolSize > 0 {
		st.pool = rng.Perm(c.PoolSize)
		for i := range st.pool {
			st.pool[i]++
		}
	}
	return st
}

// BeginTurn selects the per-turn accumulator entry (turns are 1-based). A new
// State starts on turn 1.
func (s *State) BeginTurn(turn int) {
	s.Turn = turn
}

// RegisterAttack counts one attack and updates every stack counter. It
// returns the damage the support deals by itself on this attack, computed
// before the support's stack roll.
func (s *State) RegisterAttack(rng *rand.Rand) float64 {
	s.Attacks++
	s.Stacks = min(s.Stacks+1, s.char.StackMax)

	sk := s.stacking
	if sk == nil {
		return 0
	}
	var own float64
	if sk.Coefficient > 0 {
		own = sk.Coefficient * (1 + float64(s.SupportStacks)*sk.PerStack)
	}
	if rng.Float64() < sk.GainRate {
		s.SupportStacks = min(s.SupportStacks+1, sk.MaxStacks)
	}
	return own
}

func (s *State) Multiplier(kind MultiplierKind) float64 {
	switch kind {
	case MultStack:
		return 1 + float64(s.Stacks)*s.char.StackPerStack
	case MultSupportStack:
		if s.stacking != nil && s.stacking.Amplify {
			return 1 + float64(s.SupportStacks)*s.stacking.PerStack
		}
		return 1
	case MultPursuit:
		return 1 + s.char.PursuitBonus + s.bonusSum(config.BonusPursuit) + supportPursuit(s.support, s.Turn)
	case MultSpecial:
		return 1 + s.char.SpecialDamage + supportSpecialDamage(s.support) + s.bonusSum(config.BonusSpecialDamage)
	case MultBoost:
		return 1 + supportBoost(s.support)
	case MultTotal:
		return 1 + s.char.TotalBonus + supportTotal(s.support)
	case MultGrowth:
		return 1 + float64(s.Attacks)*s.char.GrowthPerAttack
	}
	return 1
}

func (s *State) PrimaryRate() float64 {
	return s.char.Primary.Rate + s.bonusSum(config.BonusPrimaryRate)
}

func (s *State) SpecialRate() float64 {
	return s.specialRate
}

// UnlockBonus grants id for the rest of the run. It reports false when id
// was already granted.
func (s *State) UnlockBonus(id int) bool {
	if s.acquired[id] {
		return false
	}
	s.acquired[id] = true
	s.unlocked = append(s.unlocked, id)
	if ef, ok := s.char.Bonuses[id]; ok && ef.Kind == config.BonusSpecialRate {
		s.specialRate += ef.Value
	}
	return true
}

// DrawBonus unlocks the next id of the shuffled pool.
func (s *State) DrawBonus() (int, bool) {
	if len(s.pool) == 0 {
		return 0, false
	}
	id := s.pool[0]
	s.pool = s.pool[1:]
	s.UnlockBonus(id)
	return id, true
}

func (s *State) Unlocked() []int {
	return append([]int(nil), s.unlocked...)
}

func (s *State) bonusSum(kind string) float64 {
	var sum float64
	for _, id := range s.unlocked {
		if ef, ok := s.char.Bonuses[id]; ok && ef.Kind == kind {
			sum += ef.Value
		}
	}
	return sum
}

func (s *State) AddDamage(amount float64) {
	s.perTurn[s.Turn-1] += amount
}

func (s *State) Raw() float64 {
	var sum float64
	for _, v := range s.perTurn {
		sum += v
	}
	return sum
}

func (s *State) PerTurn() []float64 {
	return append([]float64(nil), s.perTurn...)
}
