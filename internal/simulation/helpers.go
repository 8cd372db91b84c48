package simulation

// Path returns the edges of a path 0-1-...-(n-1).
func Path(n int) []EdgeSpec {
	edges := make([]EdgeSpec, 0, max(n-1, 0))
	for i := 1; i < n; i++ {
		edges = append(edges, EdgeSpec{A: i - 1, B: i})
	}
	return edges
}

// Ring returns the edges of a cycle over n >= 3 cells.
func Ring(n int) []EdgeSpec {
	edges := Path(n)
	if n >= 3 {
		edges = append(edges, EdgeSpec{A: 0, B: n - 1})
	}
	return edges
}

// Star returns the edges of a star with cell 0 at the center.
func Star(n int) []EdgeSpec {
	edges := make([]EdgeSpec, 0, max(n-1, 0))
	for i := 1; i < n; i++ {
		edges = append(edges, EdgeSpec{A: 0, B: i})
	}
	return edges
}

// Complete returns the edges of the complete graph on n cells.
func Complete(n int) []EdgeSpec {
	var edges []EdgeSpec
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			edges = append(edges, EdgeSpec{A: a, B: b})
		}
	}
	return edges
}
