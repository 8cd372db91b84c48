package cell

import "fmt"

// DegreeExceededError is returned by AddEdge when an endpoint already has
// its maximum number of edges.
type DegreeExceededError struct {
	CellID    int
	MaxDegree int
}

func (e *DegreeExceededError) Error() string {
	return fmt.Sprintf("cell %d already has the maximum number of edges (%d)", e.CellID, e.MaxDegree)
}

// DuplicateEdgeError is returned by AddEdge when the two cells are already
// adjacent, or when a cell is asked to connect to itself.
type DuplicateEdgeError struct {
	A, B int
}

func (e *DuplicateEdgeError) Error() string {
	if e.A == e.B {
		return fmt.Sprintf("cell %d cannot have an edge to itself", e.A)
	}
	return fmt.Sprintf("cell %d already has an edge to cell %d", e.A, e.B)
}
