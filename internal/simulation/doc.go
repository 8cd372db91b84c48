// Package simulation provides a test harness for validating the emergent
// dynamics of leader election on hand-built and random topologies.
//
// The harness exercises the real cell, network and election packages and
// journals every run to a SQLite run store, with no mocks. Scenarios
// describe a topology (explicit edges or a random build), optional seeded
// potentials and a round budget; the runner steps the election round by
// round and captures a snapshot of every cell after each round for
// property-based assertions.
//
// Each test gets an isolated SQLite database via t.TempDir() and a sandboxed
// HOME to prevent touching user data.
//
// Usage:
//
//	func TestPairElection(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:       "pair",
//	        Cells:      2,
//	        MaxDegree:  1,
//	        Edges:      simulation.Path(2),
//	        Potentials: map[int]float64{0: 1.9},
//	    })
//	    simulation.AssertSingleWinner(t, result)
//	    simulation.AssertWinner(t, result, 0)
//	}
package simulation
