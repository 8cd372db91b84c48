package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/bionet/internal/election"
	"github.com/nvandessel/bionet/internal/network"
	"github.com/nvandessel/bionet/internal/session"
	"github.com/nvandessel/bionet/internal/store"
)

func newElectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elect",
		Short: "Run a leader election",
		Long: `Build a cell network and run the bioelectric leader election protocol
until every cell is a winner or a looser, then journal the run.

Flags override the configured defaults. With --edge the topology is given
explicitly and --edges is ignored.

Examples:
  bionet elect                                  # Configured defaults
  bionet elect --cells 50 --max-degree 4 --edges 80 --seed 7
  bionet elect --cells 3 --edge 0-1 --edge 1-2  # Path of three cells
  bionet elect --cells 2 --edge 0-1 --potential 0=1.9`,
		RunE: runElect,
	}

	cmd.Flags().Int("cells", 0, "Number of cells")
	cmd.Flags().Int("max-degree", 0, "Maximum neighbors per cell")
	cmd.Flags().Int("edges", 0, "Number of random edges")
	cmd.Flags().Uint64("seed", 0, "Random seed")
	cmd.Flags().Int("adjacent-sites", 0, "Capacity of each cell's adjacency mailbox")
	cmd.Flags().Int("max-rounds", 0, "Round budget (0 = unbounded)")
	cmd.Flags().StringArray("edge", nil, "Explicit edge as A-B (repeatable)")
	cmd.Flags().StringArray("potential", nil, "Initial potential as ID=VALUE (repeatable)")
	cmd.Flags().Bool("no-journal", false, "Do not record the run")

	return cmd
}

func runElect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req := session.FromConfig(cfg)

	flags := cmd.Flags()
	intFlags := map[string]*int{
		"cells":          &req.Network.Cells,
		"max-degree":     &req.Network.MaxDegree,
		"edges":          &req.Network.Edges,
		"adjacent-sites": &req.Election.AdjacentSites,
		"max-rounds":     &req.Election.MaxRounds,
	}
	for name, dst := range intFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	if flags.Changed("seed") {
		req.Network.Seed, _ = flags.GetUint64("seed")
	}
	if vals, _ := flags.GetStringArray("edge"); len(vals) > 0 {
		if req.Edges, err = parseEdges(vals); err != nil {
			return err
		}
	}
	if vals, _ := flags.GetStringArray("potential"); len(vals) > 0 {
		if req.Potentials, err = parsePotentials(vals); err != nil {
			return err
		}
	}

	logger, tracer := newLogging(cfg, cmd.ErrOrStderr())
	defer tracer.Close()

	var st store.RunStore
	if noJournal, _ := flags.GetBool("no-journal"); !noJournal {
		if st, err = openStore(cfg); err != nil {
			return err
		}
		defer st.Close()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	rec, runErr := session.NewRunner(st, logger, tracer).Elect(ctx, req)
	if runErr != nil && !errors.Is(runErr, election.ErrRoundBudget) {
		return runErr
	}

	jsonOut, _ := flags.GetBool("json")
	if jsonOut {
		json.NewEncoder(cmd.OutOrStdout()).Encode(rec)
	} else {
		printRun(cmd.OutOrStdout(), rec)
	}
	return runErr
}

// parseEdges parses "A-B" edge flags.
func parseEdges(args []string) ([]network.Edge, error) {
	edges := make([]network.Edge, 0, len(args))
	for _, arg := range args {
		a, b, ok := strings.Cut(arg, "-")
		if !ok {
			return nil, fmt.Errorf("invalid edge %q: want A-B", arg)
		}
		ai, errA := strconv.Atoi(strings.TrimSpace(a))
		bi, errB := strconv.Atoi(strings.TrimSpace(b))
		if errA != nil || errB != nil {
			return nil, fmt.Errorf("invalid edge %q: cell IDs must be integers", arg)
		}
		edges = append(edges, network.Edge{A: ai, B: bi})
	}
	return edges, nil
}

// parsePotentials parses "ID=VALUE" potential overrides.
func parsePotentials(args []string) (map[int]float64, error) {
	potentials := make(map[int]float64, len(args))
	for _, arg := range args {
		idStr, valStr, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid potential %q: want ID=VALUE", arg)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil {
			return nil, fmt.Errorf("invalid potential %q: %w", arg, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(valStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid potential %q: %w", arg, err)
		}
		potentials[id] = v
	}
	return potentials, nil
}

// printRun writes a human-readable summary of a run.
func printRun(w io.Writer, rec store.RunRecord) {
	if rec.ID != "" {
		fmt.Fprintf(w, "Run %s\n", rec.ID)
	}
	fmt.Fprintf(w, "  Network:  %d cells, %d edges (max degree %d, seed %d)\n",
		rec.Config.Cells, len(rec.Topology), rec.Config.MaxDegree, rec.Config.Seed)
	if rec.Decided {
		fmt.Fprintf(w, "  Result:   decided in %d rounds\n", rec.Rounds)
	} else {
		fmt.Fprintf(w, "  Result:   undecided after %d rounds\n", rec.Rounds)
	}
	fmt.Fprintf(w, "  Winners:  %d %v\n", rec.Winners, session.WinnerIDs(rec))
	fmt.Fprintf(w, "  Losers:   %d\n", rec.Losers)
}
