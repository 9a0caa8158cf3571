package combat

import (
	"encoding/json"
	"math/rand/v2"
)

const DefaultMaxQueue = 32

type Env struct {
	Rng      *rand.Rand
	MaxQueue int  // attacks enqueued per turn beyond the two base attacks
	Record   bool // keep the event log in the result
}

type run struct {
	env     *Env
	char    *Character
	support Support
	build   Build
	state   *State
	queue   *attackQueue

	turn       int
	closing    bool // draining the turn-end attacks
	extraFired bool
	guaranteed bool
	events     []Event
}

// RunSingle plays one battle and returns its damage sample. The character is
// only read; all mutable state lives in a fresh State owned by this call.
func RunSingle(env *Env, c *Character, sup Support, b Build) Result {
	limit := env.MaxQueue
	if limit <= 0 {
		limit = DefaultMaxQueue
	}
	r := &run{
		env:     env,
		char:    c,
		support: sup,
		build:   b,
		state:   NewState(c, sup, env.Rng),
		queue:   newAttackQueue(limit),
	}

	for turn := 1; turn <= c.Turns; turn++ {
		r.beginTurn(turn)
		r.queue.reset(Attack{Kind: AttackBase}, Attack{Kind: AttackBase})
		r.drain()
		r.closing = true
		for _, a := range r.trailingAttacks() {
			r.enqueue(a)
		}
		r.drain()
	}

	st := r.state
	scale := st.Multiplier(MultGrowth) * st.Multiplier(MultTotal)
	res := Result{
		Raw:      st.Raw(),
		PerTurn:  st.PerTurn(),
		Attacks:  st.Attacks,
		Unlocked: st.Unlocked(),
		Dropped:  r.queue.dropped,
	}
	for i := range res.PerTurn {
		res.PerTurn[i] *= scale
		res.Total += res.PerTurn[i]
	}
	r.emit("Final", map[string]any{"raw": res.Raw, "scale": scale, "total": res.Total, "attacks": res.Attacks})
	if env.Record {
		res.Events = r.events
	}
	return res
}

func (r *run) beginTurn(turn int) {
	r.turn = turn
	r.state.BeginTurn(turn)
	r.closing = false
	r.extraFired = false
	r.guaranteed = guaranteesSpecial(r.support)
	r.emit("TurnStart", nil)
}

func (r *run) drain() {
	for {
		a, ok := r.queue.pop()
		if !ok {
			return
		}
		r.process(a)
	}
}

func (r *run) enqueue(a Attack) {
	ok := r.queue.push(a)
	if !r.env.Record {
		return
	}
	if !ok {
		r.emit("Dropped", map[string]any{"kind": a.Kind.String()})
		return
	}
	r.emit("Enqueue", map[string]any{"kind": a.Kind.String()})
}

// grantExtra queues the extra attack. One granted by a turn-end attack
// comes too late to act and is discarded.
func (r *run) grantExtra() {
	if !r.closing {
		r.enqueue(Attack{Kind: AttackExtra})
		return
	}
	if r.env.Record {
		r.emit("ExtraLost", nil)
	}
}

// process resolves one attack. Draw order is fixed: primary proc, build
// formula, extra-attack trigger.
func (r *run) process(a Attack) {
	st := r.state
	own := st.RegisterAttack(r.env.Rng)
	if own > 0 {
		st.AddDamage(own)
	}
	if r.env.Record {
		r.emit("Attack", map[string]any{"kind": a.Kind.String(), "attacks": st.Attacks, "stacks": st.Stacks})
		if own > 0 {
			r.emit("Hit", map[string]any{"source": r.support.Name(), "damage": own})
		}
	}

	dud := a.Kind == AttackDud
	if dud && r.char.InertDud {
		return
	}

	dealt := false
	if r.roll(st.PrimaryRate()) {
		dealt = true
		r.hit("primary", r.char.Primary.Coefficient*float64(r.char.Primary.Targets), r.char.Primary.Pursuit, 0)
		if id, ok := st.DrawBonus(); ok && r.env.Record {
			r.emit("Bonus", map[string]any{"id": id})
		}
	}
	if !dud && r.build.resolve(r) {
		dealt = true
	}

	if (dealt || countsAsDamage(r.support)) && !r.extraFired {
		if r.roll(r.char.ExtraAttack) {
			r.extraFired = true
			r.grantExtra()
		}
	}
}

// hit adds one damage instance. The per-turn guaranteed special effect, when
// still available, replaces the random special roll and is consumed.
func (r *run) hit(source string, base float64, pursuit bool, specialBonus float64) {
	st := r.state
	dmg := base * st.Multiplier(MultStack) * st.Multiplier(MultSupportStack) * st.Multiplier(MultBoost)
	if pursuit {
		dmg *= st.Multiplier(MultPursuit)
	}
	special := r.guaranteed
	if special {
		r.guaranteed = false
	} else {
		special = r.roll(st.SpecialRate() + specialBonus)
	}
	if special {
		dmg *= st.Multiplier(MultSpecial)
	}
	st.AddDamage(dmg)
	if r.env.Record {
		r.emit("Hit", map[string]any{"source": source, "damage": dmg, "special": special})
	}
}

func (r *run) roll(p float64) bool {
	return r.env.Rng.Float64() < p
}

func (r *run) emit(typ string, payload map[string]any) {
	if !r.env.Record {
		return
	}
	r.events = append(r.events, Event{Turn: r.turn, Type: typ, Payload: payload})
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
