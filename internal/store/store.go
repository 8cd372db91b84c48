// Package store defines the RunStore interface for journaling simulation
// runs, with in-memory and SQLite implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/bionet/internal/election"
	"github.com/nvandessel/bionet/internal/network"
)

// ProtocolElection identifies leader election runs.
const ProtocolElection = "election"

// RunConfig is the configuration a run was started with.
type RunConfig struct {
	Cells         int    `json:"cells"`
	MaxDegree     int    `json:"max_degree"`
	Edges         int    `json:"edges"`
	Seed          uint64 `json:"seed"`
	AdjacentSites int    `json:"adjacent_sites"`
	MaxRounds     int    `json:"max_rounds"`
}

// RunRecord is the journal entry of one completed (or budget-exhausted) run.
type RunRecord struct {
	ID        string    `json:"id"`
	Protocol  string    `json:"protocol"`
	CreatedAt time.Time `json:"created_at"`
	Config    RunConfig `json:"config"`

	Rounds  int  `json:"rounds"`
	Decided bool `json:"decided"` // false when the round budget ran out
	Winners int  `json:"winners"`
	Losers  int  `json:"losers"`

	Statuses []network.CellStatus `json:"statuses"`
	Topology []network.Edge       `json:"topology"`
}

// ErrNotFound is returned by DeleteRun for an unknown ID.
var ErrNotFound = errors.New("run not found")

// RunStore defines the interface for storing and querying run records.
type RunStore interface {
	// SaveRun stores the record and returns its ID. An empty ID is
	// assigned a fresh UUID and a zero CreatedAt is set to now.
	SaveRun(ctx context.Context, rec RunRecord) (string, error)

	// GetRun returns the record with the given ID, or nil if absent.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// ListRuns returns records newest first. limit <= 0 returns all.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	DeleteRun(ctx context.Context, id string) error

	Close() error
}

// NewElectionRecord captures the state of an election after Run.
func NewElectionRecord(e *election.Election, cfg election.Config, runErr error) RunRecord {
	net := e.Network()
	netCfg := net.Config()
	out := e.Outcome()
	return RunRecord{
		Protocol: ProtocolElection,
		Config: RunConfig{
			Cells:         netCfg.Cells,
			MaxDegree:     netCfg.MaxDegree,
			Edges:         netCfg.Edges,
			Seed:          netCfg.Seed,
			AdjacentSites: cfg.AdjacentSites,
			MaxRounds:     cfg.MaxRounds,
		},
		Rounds:   out.Rounds,
		Decided:  runErr == nil,
		Winners:  out.Winners,
		Losers:   out.Losers,
		Statuses: out.Statuses,
		Topology: net.Edges(),
	}
}

// prepare fills in the ID and timestamp of a record about to be saved.
func prepare(rec *RunRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}
