package simulation

import (
	"testing"

	"github.com/nvandessel/bionet/internal/cell"
	"github.com/nvandessel/bionet/internal/election"
)

// AssertDecided asserts that the run finished within its budget with every
// cell a winner or a looser.
func AssertDecided(t *testing.T, result SimulationResult) {
	t.Helper()
	if result.Err != nil {
		t.Errorf("AssertDecided: %s: %v", result.Name, result.Err)
		return
	}
	total := len(result.Outcome.Statuses)
	if result.Outcome.Winners+result.Outcome.Losers != total {
		t.Errorf("AssertDecided: %s: %d winners + %d losers of %d cells",
			result.Name, result.Outcome.Winners, result.Outcome.Losers, total)
	}
}

// AssertSingleWinner asserts that exactly one cell won.
func AssertSingleWinner(t *testing.T, result SimulationResult) {
	t.Helper()
	if result.Outcome.Winners != 1 {
		t.Errorf("AssertSingleWinner: %s: %d winners", result.Name, result.Outcome.Winners)
	}
}

// AssertWinner asserts that the given cell won.
func AssertWinner(t *testing.T, result SimulationResult, id int) {
	t.Helper()
	c := result.Network.Cell(id)
	if c == nil {
		t.Fatalf("AssertWinner: %s: no cell %d", result.Name, id)
	}
	if c.Status() != election.StatusWinner {
		t.Errorf("AssertWinner: %s: cell %d is %s", result.Name, id, c.Status())
	}
}

// AssertRoundsAtMost asserts that the run took no more than max rounds.
func AssertRoundsAtMost(t *testing.T, result SimulationResult, max int) {
	t.Helper()
	if result.Outcome.Rounds > max {
		t.Errorf("AssertRoundsAtMost: %s: %d rounds (max %d)", result.Name, result.Outcome.Rounds, max)
	}
}

// AssertNoAdjacentWinners asserts that no two neighbors both won.
func AssertNoAdjacentWinners(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, c := range result.Network.Cells() {
		if c.Status() != election.StatusWinner {
			continue
		}
		for _, nb := range c.Neighbors() {
			if nb.Status() == election.StatusWinner && c.ID() < nb.ID() {
				t.Errorf("AssertNoAdjacentWinners: %s: cells %d and %d both won", result.Name, c.ID(), nb.ID())
			}
		}
	}
}

// AssertLosersBorderWinners asserts that every looser has a winning
// neighbor, the cell whose victory ligand defeated it.
func AssertLosersBorderWinners(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, c := range result.Network.Cells() {
		if c.Status() != election.StatusLooser {
			continue
		}
		found := false
		for _, nb := range c.Neighbors() {
			if nb.Status() == election.StatusWinner {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("AssertLosersBorderWinners: %s: looser %d has no winning neighbor", result.Name, c.ID())
		}
	}
}

// AssertDecisionsFinal asserts that once a cell becomes a winner or a
// looser it keeps that status for every later round.
func AssertDecisionsFinal(t *testing.T, result SimulationResult) {
	t.Helper()
	decided := make(map[int]cell.Status)
	for _, rs := range result.Rounds {
		for id, st := range rs.Statuses {
			if prev, ok := decided[id]; ok && prev != st {
				t.Errorf("AssertDecisionsFinal: %s: round %d: cell %d changed from %s to %s",
					result.Name, rs.Round, id, prev, st)
			}
			if st == election.StatusWinner || st == election.StatusLooser {
				decided[id] = st
			}
		}
	}
}

// AssertValidElection runs every structural election assertion.
func AssertValidElection(t *testing.T, result SimulationResult) {
	t.Helper()
	AssertDecided(t, result)
	AssertNoAdjacentWinners(t, result)
	AssertLosersBorderWinners(t, result)
	AssertDecisionsFinal(t, result)
}
