package combat

// attackQueue is the FIFO a turn drains. Attacks pushed while draining run
// later in the same turn. Pushes beyond limit are dropped and counted.
type attackQueue struct {
	items   []Attack
	head    int
	pushed  int
	limit   int
	dropped int
}

func newAttackQueue(limit int) *attackQueue {
	return &attackQueue{items: make([]Attack, 0, 8), limit: limit}
}

// reset starts a new turn with the given fixed attacks. They do not count
// toward the limit.
func (q *attackQueue) reset(base ...Attack) {
	q.items = append(q.items[:0], base...)
	q.head = 0
	q.pushed = 0
}

func (q *attackQueue) push(a Attack) bool {
	if q.pushed >= q.limit {
		q.dropped++
		return false
	}
	q.pushed++
	q.items = append(q.items, a)
	return true
}

func (q *attackQueue) pop() (Attack, bool) {
	if q.head >= len(q.items) {
		return Attack{}, false
	}
	a := q.items[q.head]
	q.head++
	return a, true
}
