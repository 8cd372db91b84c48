package simulation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/bionet/internal/cell"
	"github.com/nvandessel/bionet/internal/election"
	"github.com/nvandessel/bionet/internal/network"
	"github.com/nvandessel/bionet/internal/store"
)

// Runner orchestrates election scenarios and journals them to a real run
// store.
type Runner struct {
	t     *testing.T
	store *store.SQLiteRunStore
}

// NewRunner creates a simulation runner with an isolated SQLite store
// and sandboxed HOME directory.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	s, err := store.NewSQLiteRunStore(filepath.Join(tmpDir, store.DBFile))
	if err != nil {
		t.Fatalf("NewRunner: failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return &Runner{t: t, store: s}
}

// Store returns the runner's run journal.
func (r *Runner) Store() *store.SQLiteRunStore { return r.store }

// Run executes the scenario and returns the collected results. Construction
// errors fail the test; an exhausted round budget is reported in Err.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()

	// Phase 1: Build the network.
	elCfg := scenario.Election
	if elCfg == (election.Config{}) {
		elCfg = election.DefaultConfig()
	}
	e := r.build(scenario, elCfg)
	n := e.Network()

	for id, p := range scenario.Potentials {
		c := n.Cell(id)
		if c == nil {
			r.t.Fatalf("scenario %s: potential for unknown cell %d", scenario.Name, id)
		}
		c.SetPotential(p)
	}

	// Phase 2: Step rounds.
	var rounds []RoundSnapshot
	var runErr error
	for !n.Stopped() {
		if elCfg.MaxRounds > 0 && n.Rounds() >= elCfg.MaxRounds {
			runErr = fmt.Errorf("%w: undecided after %d rounds", election.ErrRoundBudget, n.Rounds())
			break
		}
		if scenario.BeforeRound != nil {
			scenario.BeforeRound(n.Rounds(), n)
		}
		n.SimulateRound()
		rounds = append(rounds, snapshot(n))
	}

	// Phase 3: Journal the run.
	rec := store.NewElectionRecord(e, elCfg, runErr)
	id, err := r.store.SaveRun(context.Background(), rec)
	if err != nil {
		r.t.Fatalf("scenario %s: SaveRun: %v", scenario.Name, err)
	}

	return SimulationResult{
		Name:    scenario.Name,
		Rounds:  rounds,
		Outcome: e.Outcome(),
		Err:     runErr,
		Network: n,
		RunID:   id,
	}
}

func (r *Runner) build(scenario Scenario, elCfg election.Config) *election.Election {
	r.t.Helper()

	netCfg := network.Config{
		Cells:     scenario.Cells,
		MaxDegree: scenario.MaxDegree,
		Edges:     scenario.RandomEdges,
		Seed:      scenario.Seed,
	}

	var (
		e   *election.Election
		err error
	)
	if scenario.Edges != nil {
		edges := make([]network.Edge, len(scenario.Edges))
		for i, es := range scenario.Edges {
			edges[i] = es.ToEdge()
		}
		e, err = election.NewFromEdges(netCfg, elCfg, edges)
	} else {
		e, err = election.New(netCfg, elCfg)
	}
	if err != nil {
		r.t.Fatalf("scenario %s: build: %v", scenario.Name, err)
	}
	return e
}

func snapshot(n *network.Network) RoundSnapshot {
	cells := n.Cells()
	s := RoundSnapshot{
		Round:      n.Rounds(),
		Potentials: make([]float64, len(cells)),
		Statuses:   make([]cell.Status, len(cells)),
	}
	for i, c := range cells {
		s.Potentials[i] = c.Potential()
		s.Statuses[i] = c.Status()
	}
	return s
}

// FormatRoundDebug returns a debug string for a round snapshot.
func FormatRoundDebug(rs RoundSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d:\n", rs.Round)
	for i := range rs.Potentials {
		fmt.Fprintf(&b, "  cell %d: %-9s potential=%.4f\n", i, rs.Statuses[i], rs.Potentials[i])
	}
	return b.String()
}
