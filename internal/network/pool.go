package network

import "math/rand/v2"

// pool is a set of cell indices supporting O(1) add, remove and uniform
// random pick.
type pool struct {
	items []int
	pos   []int // index into items, or -1
}

func newPool(n int) *pool {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}
	return &pool{pos: pos}
}

func (p *pool) len() int { return len(p.items) }

func (p *pool) has(i int) bool { return p.pos[i] >= 0 }

func (p *pool) add(i int) {
	if p.has(i) {
		return
	}
	p.pos[i] = len(p.items)
	p.items = append(p.items, i)
}

func (p *pool) remove(i int) {
	at := p.pos[i]
	if at < 0 {
		return
	}
	last := p.items[len(p.items)-1]
	p.items[at] = last
	p.pos[last] = at
	p.items = p.items[:len(p.items)-1]
	p.pos[i] = -1
}

func (p *pool) pick(rng *rand.Rand) int {
	return p.items[rng.IntN(len(p.items))]
}
