// Package session executes single election runs and journals them to a
// run store. It is the shared path behind the CLI and the MCP server.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/bionet/internal/config"
	"github.com/nvandessel/bionet/internal/election"
	"github.com/nvandessel/bionet/internal/logging"
	"github.com/nvandessel/bionet/internal/network"
	"github.com/nvandessel/bionet/internal/store"
)

// Request describes one run.
type Request struct {
	Network  network.Config
	Election election.Config

	// Edges is an explicit topology. Nil builds a random one.
	Edges []network.Edge

	// Potentials overrides the initial potential of selected cells.
	Potentials map[int]float64
}

// FromConfig builds a request from loaded configuration.
func FromConfig(c *config.BionetConfig) Request {
	return Request{
		Network:  c.NetworkConfig(),
		Election: c.ElectionConfig(),
	}
}

// Runner executes requests. It is safe for concurrent use when its store is.
type Runner struct {
	store  store.RunStore
	logger *slog.Logger
	tracer *logging.Tracer
}

// NewRunner creates a runner. A nil store disables journaling; a nil
// logger discards output.
func NewRunner(st store.RunStore, logger *slog.Logger, tracer *logging.Tracer) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{store: st, logger: logger, tracer: tracer}
}

// Elect builds and runs an election and journals the result.
//
// A run that exhausts its round budget is still journaled, with Decided
// false; the returned error then wraps election.ErrRoundBudget and the
// record is valid. Construction errors and cancellation return no record.
func (r *Runner) Elect(ctx context.Context, req Request) (store.RunRecord, error) {
	req.Network.Logger = r.logger
	req.Network.Tracer = r.tracer

	var (
		e   *election.Election
		err error
	)
	if req.Edges != nil {
		e, err = election.NewFromEdges(req.Network, req.Election, req.Edges)
	} else {
		e, err = election.New(req.Network, req.Election)
	}
	if err != nil {
		return store.RunRecord{}, err
	}

	for id, p := range req.Potentials {
		c := e.Network().Cell(id)
		if c == nil {
			return store.RunRecord{}, fmt.Errorf("potential for unknown cell %d", id)
		}
		c.SetPotential(p)
	}

	start := time.Now()
	out, runErr := e.RunContext(ctx)
	if runErr != nil && !errors.Is(runErr, election.ErrRoundBudget) {
		return store.RunRecord{}, runErr
	}

	r.logger.Info("election finished",
		"cells", len(out.Statuses), "rounds", out.Rounds,
		"winners", out.Winners, "losers", out.Losers,
		"decided", runErr == nil, "duration", time.Since(start))

	rec := store.NewElectionRecord(e, req.Election, runErr)
	rec.CreatedAt = time.Now().UTC()
	if r.store != nil {
		id, err := r.store.SaveRun(ctx, rec)
		if err != nil {
			return store.RunRecord{}, fmt.Errorf("journal run: %w", err)
		}
		rec.ID = id
		r.logger.Debug("run journaled", "id", id)
	}
	return rec, runErr
}

// WinnerIDs returns the IDs of the winning cells of a record, in ID order.
func WinnerIDs(rec store.RunRecord) []int {
	var ids []int
	for _, st := range rec.Statuses {
		if st.Status == election.StatusWinner {
			ids = append(ids, st.ID)
		}
	}
	return ids
}
