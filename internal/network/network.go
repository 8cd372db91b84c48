// Package network implements the round-based simulation engine that drives
// a population of cells over a fixed, bounded-degree topology.
//
// A round has two phases. In the fire phase every cell evaluates its
// events, in cell index order; ligands are delivered immediately, so a
// cell fired later in the round sees what earlier cells sent. In the
// integrate phase every cell reacts to its mailboxes, relaxes toward
// equilibrium, clamps its change and commits it. The integrate phase has
// no cross-cell effects.
//
// Iteration order is part of the contract: cells run in index order,
// events in slice order and broadcasts in edge insertion order. Together
// with the per-network seeded random source this makes a run fully
// reproducible from its Config. A Network holds no shared state, so
// independent networks may run on separate goroutines.
package network

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/nvandessel/bionet/internal/cell"
	"github.com/nvandessel/bionet/internal/logging"
)

// Protocol supplies the cells and stopping condition of a concrete
// simulation such as leader election.
type Protocol interface {
	// NewCell returns a fresh cell in the protocol's initial state.
	// rng is the network's random source and may be captured by events.
	NewCell(id, maxDegree int, rng *rand.Rand) *cell.Cell

	// Stopped reports whether the simulation is complete. It must be a
	// pure function of the cells' statuses.
	Stopped(cells []*cell.Cell) bool
}

// Config holds the parameters for constructing a network.
type Config struct {
	// Cells is the number of cells in the population.
	Cells int

	// MaxDegree is the maximum number of edges per cell.
	MaxDegree int

	// Edges is the exact number of edges to place.
	// Must not exceed floor(Cells*MaxDegree/2).
	Edges int

	// Seed initializes the network's random source. Default: 1.
	Seed uint64

	// BuildAttempts is how many times a dead-ended construction is
	// restarted from scratch before giving up. Default: 100.
	BuildAttempts int

	// Logger receives operational output. Nil discards it.
	Logger *slog.Logger

	// Tracer receives one JSONL entry per round. Nil disables tracing.
	Tracer *logging.Tracer
}

// DefaultConfig returns a small default configuration.
func DefaultConfig() Config {
	return Config{
		Cells:         10,
		MaxDegree:     3,
		Edges:         12,
		Seed:          1,
		BuildAttempts: 100,
	}
}

// Capacity returns the largest edge count a graph of cells nodes with the
// given maximum degree can hold.
func Capacity(cells, maxDegree int) int {
	return cells * maxDegree / 2
}

// State is the lifecycle state of a network.
type State int

const (
	StateBuilding State = iota
	StateRunning
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Edge is an undirected edge between two cell IDs, with A < B.
type Edge struct {
	A int `json:"a"`
	B int `json:"b"`
}

func newEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// CellStatus pairs a cell ID with its status label.
type CellStatus struct {
	ID     int         `json:"id"`
	Status cell.Status `json:"status"`
}

// Network owns a cell population, its topology and the round counter.
type Network struct {
	cfg      Config
	protocol Protocol
	rng      *rand.Rand
	logger   *slog.Logger
	tracer   *logging.Tracer

	state  State
	cells  []*cell.Cell
	edges  []Edge
	rounds int
}

func newNetwork(cfg Config, p Protocol) (*Network, error) {
	if cfg.BuildAttempts <= 0 {
		cfg.BuildAttempts = DefaultConfig().BuildAttempts
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Network{
		cfg:      cfg,
		protocol: p,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		logger:   logger,
		tracer:   cfg.Tracer,
		state:    StateBuilding,
	}, nil
}

// New validates cfg and builds a random topology of exactly cfg.Edges
// edges. Construction dead ends are retried from scratch up to
// cfg.BuildAttempts times.
func New(cfg Config, p Protocol) (*Network, error) {
	n, err := newNetwork(cfg, p)
	if err != nil {
		return nil, err
	}
	if err := n.build(); err != nil {
		return nil, err
	}
	n.state = StateRunning
	n.logger.Debug("network built",
		"cells", len(n.cells), "edges", len(n.edges), "max_degree", n.cfg.MaxDegree)
	return n, nil
}

// NewFromEdges builds a network with an explicit topology. cfg.Edges is
// ignored in favor of len(edges). Invalid edges surface as the cell
// package's edge errors.
func NewFromEdges(cfg Config, p Protocol, edges []Edge) (*Network, error) {
	cfg.Edges = len(edges)
	n, err := newNetwork(cfg, p)
	if err != nil {
		return nil, err
	}
	n.cells = n.allocate()
	for _, e := range edges {
		if e.A < 0 || e.A >= cfg.Cells || e.B < 0 || e.B >= cfg.Cells {
			return nil, &ConfigurationError{
				Cells: cfg.Cells, MaxDegree: cfg.MaxDegree, Edges: cfg.Edges,
				Reason: "edge endpoint out of range",
			}
		}
		if err := n.connect(e.A, e.B); err != nil {
			return nil, fmt.Errorf("place edge %d-%d: %w", e.A, e.B, err)
		}
	}
	n.state = StateRunning
	return n, nil
}

// State returns the lifecycle state.
func (n *Network) State() State { return n.state }

// Rounds returns the number of rounds executed so far.
func (n *Network) Rounds() int { return n.rounds }

// Config returns the configuration the network was built with.
func (n *Network) Config() Config { return n.cfg }

// Cells returns the cell population in iteration order. The slice must not
// be modified.
func (n *Network) Cells() []*cell.Cell { return n.cells }

// Cell returns the cell with the given ID, or nil.
func (n *Network) Cell(id int) *cell.Cell {
	if id < 0 || id >= len(n.cells) {
		return nil
	}
	return n.cells[id]
}

// Edges returns the topology in placement order.
func (n *Network) Edges() []Edge {
	out := make([]Edge, len(n.edges))
	copy(out, n.edges)
	return out
}

// EdgeCount returns the number of edges.
func (n *Network) EdgeCount() int { return len(n.edges) }

// Statuses returns every cell's ID and current status, in ID order.
func (n *Network) Statuses() []CellStatus {
	out := make([]CellStatus, len(n.cells))
	for i, c := range n.cells {
		out[i] = CellStatus{ID: c.ID(), Status: c.Status()}
	}
	return out
}

// StatusCounts returns the number of cells holding each status.
func (n *Network) StatusCounts() map[cell.Status]int {
	counts := make(map[cell.Status]int)
	for _, c := range n.cells {
		counts[c.Status()]++
	}
	return counts
}

// Stopped evaluates the protocol's stopping condition and moves the
// network to StateTerminated when it holds.
func (n *Network) Stopped() bool {
	if n.protocol.Stopped(n.cells) {
		if n.state != StateTerminated {
			n.state = StateTerminated
			n.logger.Debug("network terminated", "rounds", n.rounds)
			n.tracer.Log(map[string]any{"event": "terminated", "round": n.rounds})
		}
		return true
	}
	return false
}

// SimulateRound executes one fire phase and one integrate phase.
func (n *Network) SimulateRound() {
	for _, c := range n.cells {
		c.FireEvents()
	}
	for _, c := range n.cells {
		c.Integrate()
		c.ApplyGradient()
		c.ClampChange()
		c.Commit()
	}
	n.rounds++

	if n.tracer != nil {
		n.tracer.Log(map[string]any{
			"event":    "round",
			"round":    n.rounds,
			"statuses": n.StatusCounts(),
		})
	}
}

// Run executes rounds until the stopping condition holds and returns the
// total number of rounds executed. It returns immediately if the condition
// already holds. Run does not bound the number of rounds; a protocol that
// never stops makes Run loop forever.
func (n *Network) Run() int {
	for !n.Stopped() {
		n.SimulateRound()
	}
	return n.rounds
}

func (n *Network) allocate() []*cell.Cell {
	cells := make([]*cell.Cell, n.cfg.Cells)
	for i := range cells {
		cells[i] = n.protocol.NewCell(i, n.cfg.MaxDegree, n.rng)
	}
	return cells
}

func (n *Network) connect(a, b int) error {
	if err := n.cells[a].AddEdge(n.cells[b]); err != nil {
		return err
	}
	n.edges = append(n.edges, newEdge(a, b))
	return nil
}
