// Package election implements leader election on top of the network
// engine. Every cell starts out competing; a cell that climbs to the
// winning potential declares victory and turns its neighbors into losers.
//
// Competing cells relax toward an equilibrium above the winning threshold.
// Once a cell's potential enters the firing band it signals its neighbors
// with an "adj" ligand, pushing itself up and its neighbors down. Inside the
// band firing is a coin flip, which is what breaks the symmetry between
// identical neighbors over successive rounds.
package election

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/bionet/internal/cell"
	"github.com/nvandessel/bionet/internal/network"
)

// Statuses used by the protocol. "looser" is the established spelling in
// recorded results and is kept as is.
const (
	StatusCompeting cell.Status = "competing"
	StatusWinner    cell.Status = "winner"
	StatusLooser    cell.Status = "looser"
)

// Ligands exchanged by competing cells.
const (
	LigandAdjacent cell.Ligand = "adj"
	LigandVictory  cell.Ligand = "vic"
)

// Dynamics of a competing cell.
const (
	InitialPotential     = 0.0
	MinimumPotential     = -2.0
	EquilibriumPotential = 2.0
	EquilibriumGradient  = 0.5

	// FiringFloor and FiringCeiling bound the coin-flip band of the
	// competing event; at or above FiringCeiling it always fires.
	FiringFloor   = 0.5
	FiringCeiling = 1.0
	FiringOffset  = 0.5

	WinningPotential = 2.0
	AdjacentDelta    = -1.5
)

// ErrRoundBudget is returned by Run when MaxRounds elapse before every
// cell has become a winner or a looser.
var ErrRoundBudget = errors.New("round budget exhausted")

// Config holds the protocol parameters.
type Config struct {
	// AdjacentSites is the capacity of the "adj" mailbox. Default: 1.
	AdjacentSites int

	// MaxRounds bounds Run. Zero means unbounded.
	MaxRounds int
}

// DefaultConfig returns the default protocol configuration.
func DefaultConfig() Config {
	return Config{
		AdjacentSites: 1,
		MaxRounds:     10000,
	}
}

// Competing returns the initial phenotype of a competing cell.
func Competing(adjacentSites int, rng cell.Rand) cell.Phenotype {
	return cell.Phenotype{
		Dynamics: cell.Dynamics{
			Minimum:     MinimumPotential,
			Equilibrium: EquilibriumPotential,
			Gradient:    EquilibriumGradient,
		},
		Events: []cell.Event{
			cell.LigandEvent{
				Fires:  cell.CoinFlipBand(FiringFloor, FiringCeiling, rng),
				Ligand: LigandAdjacent,
				Offset: FiringOffset,
			},
			cell.TransformEvent{
				Fires:  cell.AtLeast(WinningPotential),
				Ligand: LigandVictory,
				Target: Winner,
			},
		},
		// vic reacts first so that a defeat always takes precedence.
		Sites: []*cell.Site{
			cell.NewSite(LigandVictory, 1, cell.TransformPolicy{Target: Looser}),
			cell.NewSite(LigandAdjacent, adjacentSites, cell.DeltaPolicy{PerLigand: AdjacentDelta}),
		},
		Status: StatusCompeting,
	}
}

// Winner returns the terminal phenotype of the elected cell.
func Winner() cell.Phenotype { return cell.Dormant(StatusWinner) }

// Looser returns the terminal phenotype of a defeated cell.
func Looser() cell.Phenotype { return cell.Dormant(StatusLooser) }

// Protocol implements network.Protocol for leader election.
type Protocol struct {
	adjacentSites int
}

// NewProtocol creates the protocol. A non-positive AdjacentSites falls
// back to the default.
func NewProtocol(cfg Config) *Protocol {
	sites := cfg.AdjacentSites
	if sites <= 0 {
		sites = DefaultConfig().AdjacentSites
	}
	return &Protocol{adjacentSites: sites}
}

// NewCell implements network.Protocol.
func (p *Protocol) NewCell(id, maxDegree int, rng *rand.Rand) *cell.Cell {
	return cell.New(id, InitialPotential, maxDegree, cell.LimitFloor, Competing(p.adjacentSites, rng))
}

// Stopped implements network.Protocol: the election is over once every
// cell is a winner or a looser.
func (p *Protocol) Stopped(cells []*cell.Cell) bool {
	for _, c := range cells {
		if s := c.Status(); s != StatusWinner && s != StatusLooser {
			return false
		}
	}
	return true
}

// Outcome summarizes the state of an election.
type Outcome struct {
	Rounds   int                  `json:"rounds"`
	Winners  int                  `json:"winners"`
	Losers   int                  `json:"losers"`
	Statuses []network.CellStatus `json:"statuses"`
}

// Election is a leader election over one network.
type Election struct {
	net *network.Network
	cfg Config
}

// New builds a random network running leader election.
func New(netCfg network.Config, cfg Config) (*Election, error) {
	n, err := network.New(netCfg, NewProtocol(cfg))
	if err != nil {
		return nil, fmt.Errorf("build election network: %w", err)
	}
	return &Election{net: n, cfg: cfg}, nil
}

// NewFromEdges builds an election over an explicit topology.
func NewFromEdges(netCfg network.Config, cfg Config, edges []network.Edge) (*Election, error) {
	n, err := network.NewFromEdges(netCfg, NewProtocol(cfg), edges)
	if err != nil {
		return nil, fmt.Errorf("build election network: %w", err)
	}
	return &Election{net: n, cfg: cfg}, nil
}

// Network returns the underlying network.
func (e *Election) Network() *network.Network { return e.net }

// Run simulates rounds until the election is decided or MaxRounds elapse.
// On ErrRoundBudget the returned outcome reflects the partial state.
func (e *Election) Run() (Outcome, error) {
	return e.RunContext(context.Background())
}

// RunContext is Run with cancellation checked between rounds.
func (e *Election) RunContext(ctx context.Context) (Outcome, error) {
	for !e.net.Stopped() {
		if e.cfg.MaxRounds > 0 && e.net.Rounds() >= e.cfg.MaxRounds {
			return e.Outcome(), fmt.Errorf("%w: undecided after %d rounds", ErrRoundBudget, e.net.Rounds())
		}
		if err := ctx.Err(); err != nil {
			return e.Outcome(), err
		}
		e.net.SimulateRound()
	}
	return e.Outcome(), nil
}

// Config returns the protocol configuration.
func (e *Election) Config() Config { return e.cfg }

// Outcome returns the current round count and per-cell statuses.
func (e *Election) Outcome() Outcome {
	out := Outcome{
		Rounds:   e.net.Rounds(),
		Statuses: e.net.Statuses(),
	}
	for _, s := range out.Statuses {
		switch s.Status {
		case StatusWinner:
			out.Winners++
		case StatusLooser:
			out.Losers++
		}
	}
	return out
}
