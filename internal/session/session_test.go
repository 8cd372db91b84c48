package session

import (
	"context"
	"errors"
	"testing"

	"github.com/nvandessel/bionet/internal/config"
	"github.com/nvandessel/bionet/internal/election"
	"github.com/nvandessel/bionet/internal/network"
	"github.com/nvandessel/bionet/internal/store"
)

func TestElect_Journals(t *testing.T) {
	st := store.NewInMemoryRunStore()
	r := NewRunner(st, nil, nil)
	ctx := context.Background()

	rec, err := r.Elect(ctx, FromConfig(config.Default()))
	if err != nil {
		t.Fatalf("Elect() error = %v", err)
	}
	if rec.ID == "" {
		t.Fatal("record has no ID")
	}
	if !rec.Decided || rec.Winners == 0 {
		t.Errorf("decided=%v winners=%d", rec.Decided, rec.Winners)
	}
	if rec.Config.Cells != 10 || len(rec.Topology) != 12 {
		t.Errorf("cells=%d topology=%d", rec.Config.Cells, len(rec.Topology))
	}

	got, err := st.GetRun(ctx, rec.ID)
	if err != nil || got == nil {
		t.Fatalf("GetRun() = %v, %v", got, err)
	}
	if got.Rounds != rec.Rounds || !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("journaled %+v, returned %+v", got, rec)
	}
}

func TestElect_ExplicitTopology(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	rec, err := r.Elect(context.Background(), Request{
		Network:    network.Config{Cells: 2, MaxDegree: 1},
		Election:   election.DefaultConfig(),
		Edges:      []network.Edge{{A: 0, B: 1}},
		Potentials: map[int]float64{1: 1.9},
	})
	if err != nil {
		t.Fatalf("Elect() error = %v", err)
	}
	if rec.ID != "" {
		t.Errorf("ID = %q without a store", rec.ID)
	}
	if ids := WinnerIDs(rec); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("WinnerIDs() = %v, want [1]", ids)
	}
	if rec.Rounds != 2 {
		t.Errorf("rounds = %d, want 2", rec.Rounds)
	}
}

func TestElect_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"too many edges", Request{Network: network.Config{Cells: 3, MaxDegree: 2, Edges: 4}}},
		{"bad edge", Request{Network: network.Config{Cells: 2, MaxDegree: 1}, Edges: []network.Edge{{A: 0, B: 5}}}},
		{"unknown cell potential", Request{Network: network.Config{Cells: 2, MaxDegree: 1, Edges: 1}, Potentials: map[int]float64{9: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewInMemoryRunStore()
			if _, err := NewRunner(st, nil, nil).Elect(context.Background(), tt.req); err == nil {
				t.Fatal("expected error")
			}
			if runs, _ := st.ListRuns(context.Background(), 0); len(runs) != 0 {
				t.Errorf("failed run was journaled")
			}
		})
	}
}

func TestElect_RoundBudget(t *testing.T) {
	st := store.NewInMemoryRunStore()
	rec, err := NewRunner(st, nil, nil).Elect(context.Background(), Request{
		Network:  network.Config{Cells: 1},
		Election: election.Config{AdjacentSites: 1, MaxRounds: 1},
	})
	if !errors.Is(err, election.ErrRoundBudget) {
		t.Fatalf("expected ErrRoundBudget, got %v", err)
	}
	if rec.ID == "" || rec.Decided {
		t.Errorf("id=%q decided=%v", rec.ID, rec.Decided)
	}
	if got, _ := st.GetRun(context.Background(), rec.ID); got == nil {
		t.Error("budget-exhausted run was not journaled")
	}
}

func TestElect_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := store.NewInMemoryRunStore()
	_, err := NewRunner(st, nil, nil).Elect(ctx, FromConfig(config.Default()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
