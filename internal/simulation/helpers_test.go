package simulation

import "testing"

func TestTopologyBuilders(t *testing.T) {
	tests := []struct {
		name  string
		edges []EdgeSpec
		want  int
	}{
		{"path 0", Path(0), 0},
		{"path 1", Path(1), 0},
		{"path 5", Path(5), 4},
		{"ring 2", Ring(2), 1},
		{"ring 5", Ring(5), 5},
		{"star 6", Star(6), 5},
		{"complete 5", Complete(5), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.edges) != tt.want {
				t.Errorf("got %d edges, want %d", len(tt.edges), tt.want)
			}
			seen := make(map[EdgeSpec]bool)
			for _, e := range tt.edges {
				if e.A == e.B {
					t.Errorf("self-loop %+v", e)
				}
				if seen[e] {
					t.Errorf("duplicate %+v", e)
				}
				seen[e] = true
			}
		})
	}
}
