package network

import (
	"errors"
	"fmt"
)

// ErrDeadEnd reports that random edge placement reached a state where no
// valid edge remains: every candidate pair is already connected or has a
// saturated endpoint.
var ErrDeadEnd = errors.New("edge placement dead end")

// ConfigurationError reports parameters no network can satisfy. It is
// returned before any construction is attempted.
type ConfigurationError struct {
	Cells     int
	MaxDegree int
	Edges     int
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid network configuration (cells=%d, max_degree=%d, edges=%d): %s",
		e.Cells, e.MaxDegree, e.Edges, e.Reason)
}

// BuildError reports that every construction attempt dead-ended. Err is
// the failure of the last attempt.
type BuildError struct {
	Attempts int
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("network construction failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

func validate(cfg Config) error {
	bad := func(reason string) error {
		return &ConfigurationError{Cells: cfg.Cells, MaxDegree: cfg.MaxDegree, Edges: cfg.Edges, Reason: reason}
	}
	switch {
	case cfg.Cells < 0:
		return bad("number of cells must be non-negative")
	case cfg.MaxDegree < 0:
		return bad("maximum degree must be non-negative")
	case cfg.Edges < 0:
		return bad("number of edges must be non-negative")
	}
	if limit := Capacity(cfg.Cells, cfg.MaxDegree); cfg.Edges > limit {
		return bad(fmt.Sprintf("maximum number of edges for %d cells with maximum degree %d is %d",
			cfg.Cells, cfg.MaxDegree, limit))
	}
	return nil
}

// build grows the topology, restarting from fresh cells whenever an
// attempt dead-ends. A half-built graph is never patched.
func (n *Network) build() error {
	var last error
	for attempt := 1; attempt <= n.cfg.BuildAttempts; attempt++ {
		n.cells = n.allocate()
		n.edges = n.edges[:0]

		err := n.grow()
		if err == nil {
			return nil
		}
		last = err
		n.logger.Debug("network construction attempt failed",
			"attempt", attempt, "placed", len(n.edges), "target", n.cfg.Edges, "error", err)
	}
	n.cells = nil
	n.edges = nil
	return &BuildError{Attempts: n.cfg.BuildAttempts, Err: last}
}

// grow places edges by random attachment. Starting from one connected
// cell, each step either attaches an unconnected cell to a uniformly
// chosen connected cell with spare degree, or, once every cell is
// connected, joins two distinct non-adjacent connected cells with spare
// degree.
func (n *Network) grow() error {
	target := n.cfg.Edges
	if target == 0 || len(n.cells) == 0 {
		return nil
	}

	order := n.rng.Perm(len(n.cells))
	unconnected := order[1:]
	open := newPool(len(n.cells))
	n.admit(open, order[0])

	for len(n.edges) < target {
		var a, b int
		if len(unconnected) > 0 {
			a = unconnected[len(unconnected)-1]
			unconnected = unconnected[:len(unconnected)-1]
			if open.len() == 0 || n.cells[a].MaxDegree() == 0 {
				return n.deadEnd()
			}
			b = open.pick(n.rng)
		} else {
			var ok bool
			a, b, ok = n.pickPair(open)
			if !ok {
				return n.deadEnd()
			}
		}

		if err := n.connect(a, b); err != nil {
			return fmt.Errorf("place edge %d-%d: %w", a, b, err)
		}
		n.admit(open, a)
		n.admit(open, b)
	}
	return nil
}

func (n *Network) deadEnd() error {
	return fmt.Errorf("%w: placed %d of %d edges", ErrDeadEnd, len(n.edges), n.cfg.Edges)
}

// admit keeps the eligible pool in sync with cell i's degree.
func (n *Network) admit(open *pool, i int) {
	c := n.cells[i]
	if c.Degree() < c.MaxDegree() {
		open.add(i)
	} else {
		open.remove(i)
	}
}

// pickPair chooses two distinct, non-adjacent cells from the pool. It
// samples at random first and falls back to enumerating every valid pair
// when sampling keeps hitting existing edges.
func (n *Network) pickPair(open *pool) (int, int, bool) {
	size := open.len()
	if size < 2 {
		return 0, 0, false
	}

	for try := 0; try < 2*size+8; try++ {
		a := open.pick(n.rng)
		b := open.pick(n.rng)
		if a != b && !n.cells[a].IsAdjacent(n.cells[b]) {
			return a, b, true
		}
	}

	var pairs [][2]int
	for i, a := range open.items {
		for _, b := range open.items[i+1:] {
			if !n.cells[a].IsAdjacent(n.cells[b]) {
				pairs = append(pairs, [2]int{a, b})
			}
		}
	}
	if len(pairs) == 0 {
		return 0, 0, false
	}
	p := pairs[n.rng.IntN(len(pairs))]
	return p[0], p[1], true
}
