// Package cell implements the simulated cell: a graph node carrying a
// bioelectric potential that relaxes toward an equilibrium, exchanges
// ligands with its neighbors, and can morph into a different rule set.
//
// A cell is driven by the network engine through a fixed per-round
// lifecycle:
//
//	FireEvents -> Integrate -> ApplyGradient -> ClampChange -> Commit
//
// FireEvents runs for every cell before any cell integrates. Ligand
// delivery is immediate, so a cell fired earlier in a round can change the
// mailbox contents seen by a cell fired later in the same round.
package cell

import (
	"fmt"
	"math"
)

// Status labels a cell's role within a protocol (e.g. "competing").
// The domain is open: protocols define their own labels.
type Status string

// Ligand is the kind of chemical message exchanged between adjacent cells.
type Ligand string

// ChangeLimit selects how ClampChange bounds the pending potential change
// against the cell's Minimum.
type ChangeLimit int

const (
	// LimitCeiling caps the change from above: change = min(change, Minimum).
	LimitCeiling ChangeLimit = iota
	// LimitFloor caps the change from below: change = max(change, Minimum).
	LimitFloor
)

// String returns the limit name.
func (l ChangeLimit) String() string {
	switch l {
	case LimitCeiling:
		return "ceiling"
	case LimitFloor:
		return "floor"
	default:
		return fmt.Sprintf("ChangeLimit(%d)", int(l))
	}
}

// Dynamics holds the parameters that govern a cell's potential between
// ligand reactions.
type Dynamics struct {
	// Minimum bounds the per-round potential change (see ChangeLimit).
	Minimum float64
	// Equilibrium is the potential the cell relaxes toward.
	Equilibrium float64
	// Gradient is the maximum relaxation step per round. Non-negative.
	Gradient float64
}

// Phenotype is the bundle a morphic transform swaps in one operation.
type Phenotype struct {
	Dynamics Dynamics
	Events   []Event
	Sites    []*Site
	Status   Status
}

// Dormant returns the inert phenotype: zeroed dynamics, no events and no
// ligand sites. A dormant cell ignores every ligand and never fires.
func Dormant(status Status) Phenotype {
	return Phenotype{Status: status}
}

// Cell is a single simulated cell. It is not safe for concurrent use; a
// network drives all of its cells from one goroutine.
type Cell struct {
	id        int
	maxDegree int
	limit     ChangeLimit

	potential float64
	change    float64

	dynamics Dynamics
	status   Status
	events   []Event
	membrane *Membrane

	// generation increments on every morphic transform. FireEvents uses it
	// to stop evaluating an event set the cell has already shed.
	generation uint64

	edges []*Cell
}

// New creates a cell with the given identity, starting potential, degree
// cap and initial phenotype.
func New(id int, potential float64, maxDegree int, limit ChangeLimit, p Phenotype) *Cell {
	c := &Cell{
		id:        id,
		maxDegree: maxDegree,
		limit:     limit,
		potential: potential,
	}
	c.apply(p)
	return c
}

// ID returns the cell's stable identifier.
func (c *Cell) ID() int { return c.id }

// Status returns the cell's current status label.
func (c *Cell) Status() Status { return c.status }

// Potential returns the committed potential.
func (c *Cell) Potential() float64 { return c.potential }

// SetPotential overwrites the committed potential. Used to seed fixtures.
func (c *Cell) SetPotential(p float64) { c.potential = p }

// Change returns the pending potential change for the current round.
func (c *Cell) Change() float64 { return c.change }

// AddChange adds delta to the pending potential change.
func (c *Cell) AddChange(delta float64) { c.change += delta }

// Dynamics returns the current dynamics parameters.
func (c *Cell) Dynamics() Dynamics { return c.dynamics }

// MaxDegree returns the maximum number of edges the cell accepts.
func (c *Cell) MaxDegree() int { return c.maxDegree }

// Degree returns the current number of edges.
func (c *Cell) Degree() int { return len(c.edges) }

// Limit returns the cell's change limit mode.
func (c *Cell) Limit() ChangeLimit { return c.limit }

// Membrane returns the cell's current membrane.
func (c *Cell) Membrane() *Membrane { return c.membrane }

// Events returns the cell's current event set in firing order.
func (c *Cell) Events() []Event { return c.events }

// Neighbors returns the adjacent cells in edge insertion order. The slice
// must not be modified.
func (c *Cell) Neighbors() []*Cell { return c.edges }

// IsAdjacent reports whether other is a neighbor of c.
func (c *Cell) IsAdjacent(other *Cell) bool {
	for _, n := range c.edges {
		if n == other {
			return true
		}
	}
	return false
}

// AddEdge connects c and other. Edges are undirected, so both adjacency
// lists are updated or neither is.
func (c *Cell) AddEdge(other *Cell) error {
	if len(c.edges) >= c.maxDegree {
		return &DegreeExceededError{CellID: c.id, MaxDegree: c.maxDegree}
	}
	if len(other.edges) >= other.maxDegree {
		return &DegreeExceededError{CellID: other.id, MaxDegree: other.maxDegree}
	}
	if other == c || c.IsAdjacent(other) {
		return &DuplicateEdgeError{A: c.id, B: other.id}
	}
	c.edges = append(c.edges, other)
	other.edges = append(other.edges, c)
	return nil
}

// Receive binds one ligand of the given kind. Ligands arriving at a full
// mailbox, or with no matching site, are dropped.
func (c *Cell) Receive(l Ligand) {
	c.membrane.Bind(l)
}

// Broadcast delivers one ligand of the given kind to every neighbor.
func (c *Cell) Broadcast(l Ligand) {
	for _, n := range c.edges {
		n.Receive(l)
	}
}

// FireEvents evaluates every active event against the current potential,
// in order. If an event transforms the cell, the remaining events of the
// shed phenotype are skipped.
func (c *Cell) FireEvents() {
	events := c.events
	gen := c.generation
	for _, e := range events {
		e.Fire(c)
		if c.generation != gen {
			return
		}
	}
}

// Integrate applies the membrane to the bound ligands. A transform request
// wins over, and discards, the potential deltas of the same reaction.
// Mailboxes are always emptied.
func (c *Cell) Integrate() {
	r := c.membrane.React()
	if r.Transform != nil {
		c.MorphicTransform(*r.Transform)
		return
	}
	c.change += r.Delta
}

// ApplyGradient adds one bounded relaxation step toward equilibrium. The
// step is at most Gradient and never crosses the equilibrium.
func (c *Cell) ApplyGradient() {
	c.change += GradientStep(c.potential, c.dynamics.Equilibrium, c.dynamics.Gradient)
}

// GradientStep returns the relaxation contribution for a cell at potential
// p with equilibrium e and gradient g.
func GradientStep(p, e, g float64) float64 {
	z := p - e
	switch {
	case z == 0:
		return 0
	case math.Abs(z) >= g:
		if z > 0 {
			return -g
		}
		return g
	default:
		return -z
	}
}

// ClampChange bounds the pending change by Minimum according to the cell's
// ChangeLimit.
func (c *Cell) ClampChange() {
	switch c.limit {
	case LimitFloor:
		c.change = math.Max(c.change, c.dynamics.Minimum)
	default:
		c.change = math.Min(c.change, c.dynamics.Minimum)
	}
}

// Commit folds the pending change into the potential and resets it.
func (c *Cell) Commit() {
	c.potential += c.change
	c.change = 0
}

// MorphicTransform replaces the dynamics, events, ligand sites and status
// in a single step. Potential and edges are left untouched.
func (c *Cell) MorphicTransform(p Phenotype) {
	c.apply(p)
	c.generation++
}

func (c *Cell) apply(p Phenotype) {
	c.dynamics = p.Dynamics
	c.events = p.Events
	c.membrane = NewMembrane(p.Sites...)
	c.status = p.Status
}

// String implements fmt.Stringer.
func (c *Cell) String() string {
	return fmt.Sprintf("cell %d (%s, potential=%.3f, degree=%d/%d)",
		c.id, c.status, c.potential, len(c.edges), c.maxDegree)
}
