package simulation

import (
	"github.com/nvandessel/bionet/internal/cell"
	"github.com/nvandessel/bionet/internal/election"
	"github.com/nvandessel/bionet/internal/network"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name      string
	Cells     int
	MaxDegree int

	// Edges is an explicit topology. When nil, RandomEdges edges are placed
	// by the network's random builder.
	Edges       []EdgeSpec
	RandomEdges int

	Seed     uint64
	Election election.Config // zero value uses election.DefaultConfig()

	// Potentials overrides the initial potential of selected cells.
	Potentials map[int]float64

	// BeforeRound, when non-nil, is called before each round with the
	// number of rounds already executed.
	BeforeRound func(round int, n *network.Network)
}

// EdgeSpec defines an undirected edge of an explicit topology.
type EdgeSpec struct {
	A, B int
}

// ToEdge converts an EdgeSpec to a network.Edge.
func (e EdgeSpec) ToEdge() network.Edge {
	return network.Edge{A: e.A, B: e.B}
}

// RoundSnapshot captures every cell after one round.
type RoundSnapshot struct {
	Round      int
	Potentials []float64
	Statuses   []cell.Status
}

// SimulationResult captures all rounds and the final state of a run.
type SimulationResult struct {
	Name    string
	Rounds  []RoundSnapshot
	Outcome election.Outcome

	// Err is election.ErrRoundBudget when the budget ran out, nil otherwise.
	Err error

	Network *network.Network
	RunID   string // journal ID in the runner's store
}
