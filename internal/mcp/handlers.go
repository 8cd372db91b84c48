package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/bionet/internal/election"
	"github.com/nvandessel/bionet/internal/network"
	"github.com/nvandessel/bionet/internal/session"
	"github.com/nvandessel/bionet/internal/store"
)

// defaultRunsLimit caps bionet_runs when no limit is given.
const defaultRunsLimit = 20

// latestRunURI is the resource describing the most recent run.
const latestRunURI = "bionet://runs/latest"

// registerTools registers all bionet MCP tools with the server.
func (s *Server) registerTools() error {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "bionet_elect",
		Description: "Build a cell network and run bioelectric leader election until every cell is a winner or a looser",
	}, s.handleElect)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "bionet_runs",
		Description: "List journaled simulation runs, newest first",
	}, s.handleRuns)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "bionet_run",
		Description: "Get the full result of a journaled run: per-cell statuses and topology",
	}, s.handleRun)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "bionet_delete_run",
		Description: "Delete a journaled run",
	}, s.handleDeleteRun)

	return nil
}

func (s *Server) registerResources() error {
	s.server.AddResource(&sdk.Resource{
		URI:         latestRunURI,
		Name:        "bionet-latest-run",
		Description: "Summary of the most recent leader election run.",
		MIMEType:    "text/markdown",
	}, s.handleLatestRunResource)

	return nil
}

// handleLatestRunResource renders the newest journaled run as markdown.
func (s *Server) handleLatestRunResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	runs, err := s.store.ListRuns(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	text := "# Latest bionet run\n\nNo runs journaled yet.\n"
	if len(runs) > 0 {
		text = formatRunMarkdown(runs[0])
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{{
			URI:      latestRunURI,
			MIMEType: "text/markdown",
			Text:     text,
		}},
	}, nil
}

func (s *Server) handleElect(ctx context.Context, req *sdk.CallToolRequest, args ElectInput) (_ *sdk.CallToolResult, _ ElectOutput, retErr error) {
	start := time.Now()
	var runID string
	defer func() {
		s.auditTool("bionet_elect", start, retErr, runID, auditParams(map[string]any{
			"cells": args.Cells, "max_degree": args.MaxDegree, "edges": args.Edges,
			"seed": args.Seed, "adjacent_sites": args.AdjacentSites, "max_rounds": args.MaxRounds,
			"topology": len(args.Topology),
		}))
	}()

	r, err := s.electRequest(args)
	if err != nil {
		return nil, ElectOutput{}, err
	}
	if err := s.toolLimiters.CheckN("bionet_elect", electionCost(r.Network.Cells)); err != nil {
		return nil, ElectOutput{}, err
	}

	rec, err := s.runner.Elect(ctx, r)
	if err != nil && !errors.Is(err, election.ErrRoundBudget) {
		return nil, ElectOutput{}, fmt.Errorf("election failed: %w", err)
	}
	runID = rec.ID

	winners := session.WinnerIDs(rec)
	msg := fmt.Sprintf("Elected %d leader(s) among %d cells in %d rounds", rec.Winners, rec.Config.Cells, rec.Rounds)
	if !rec.Decided {
		msg = fmt.Sprintf("Undecided after %d rounds: %d winner(s), %d looser(s) of %d cells",
			rec.Rounds, rec.Winners, rec.Losers, rec.Config.Cells)
	}

	return nil, ElectOutput{
		RunID:     rec.ID,
		Rounds:    rec.Rounds,
		Decided:   rec.Decided,
		Winners:   rec.Winners,
		Losers:    rec.Losers,
		WinnerIDs: nonNil(winners),
		Cells:     cellResults(rec.Statuses),
		Topology:  edgeInputs(rec.Topology),
		Message:   msg,
	}, nil
}

// electRequest merges tool arguments over the server defaults.
func (s *Server) electRequest(args ElectInput) (session.Request, error) {
	r := session.FromConfig(s.defaults)
	if args.Cells != 0 {
		r.Network.Cells = args.Cells
	}
	if args.MaxDegree != 0 {
		r.Network.MaxDegree = args.MaxDegree
	}
	if args.Edges != 0 {
		r.Network.Edges = args.Edges
	}
	if args.Seed != nil {
		r.Network.Seed = *args.Seed
	}
	if args.AdjacentSites != 0 {
		r.Election.AdjacentSites = args.AdjacentSites
	}
	if args.MaxRounds != 0 {
		r.Election.MaxRounds = args.MaxRounds
	}
	if args.Topology != nil {
		r.Edges = make([]network.Edge, len(args.Topology))
		for i, e := range args.Topology {
			r.Edges[i] = network.Edge{A: e.A, B: e.B}
		}
	}

	if r.Network.Cells < 0 || r.Network.Cells > MaxCells {
		return session.Request{}, fmt.Errorf("cells must be between 0 and %d, got %d", MaxCells, r.Network.Cells)
	}
	return r, nil
}

// electionCost charges one rate limit token per thousand cells.
func electionCost(cells int) float64 {
	return float64(max(1, (cells+999)/1000))
}

func (s *Server) handleRuns(ctx context.Context, req *sdk.CallToolRequest, args RunsInput) (_ *sdk.CallToolResult, _ RunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("bionet_runs", start, retErr, "", auditParams(map[string]any{"limit": args.Limit}))
	}()

	if err := s.toolLimiters.Check("bionet_runs"); err != nil {
		return nil, RunsOutput{}, err
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	recs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, RunsOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]RunSummary, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, summarize(rec))
	}
	return nil, RunsOutput{Runs: runs, Count: len(runs)}, nil
}

func (s *Server) handleRun(ctx context.Context, req *sdk.CallToolRequest, args RunInput) (_ *sdk.CallToolResult, _ RunOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("bionet_run", start, retErr, args.ID, nil)
	}()

	if err := s.toolLimiters.Check("bionet_run"); err != nil {
		return nil, RunOutput{}, err
	}
	if args.ID == "" {
		return nil, RunOutput{}, errors.New("'id' parameter is required")
	}

	rec, err := s.store.GetRun(ctx, args.ID)
	if err != nil {
		return nil, RunOutput{}, fmt.Errorf("failed to get run: %w", err)
	}
	if rec == nil {
		return nil, RunOutput{}, fmt.Errorf("%w: %s", store.ErrNotFound, args.ID)
	}

	return nil, RunOutput{
		Run:       summarize(*rec),
		MaxDegree: rec.Config.MaxDegree,
		MaxRounds: rec.Config.MaxRounds,
		WinnerIDs: nonNil(session.WinnerIDs(*rec)),
		Cells:     cellResults(rec.Statuses),
		Topology:  edgeInputs(rec.Topology),
	}, nil
}

func (s *Server) handleDeleteRun(ctx context.Context, req *sdk.CallToolRequest, args DeleteRunInput) (_ *sdk.CallToolResult, _ DeleteRunOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("bionet_delete_run", start, retErr, args.ID, nil)
	}()

	if err := s.toolLimiters.Check("bionet_delete_run"); err != nil {
		return nil, DeleteRunOutput{}, err
	}
	if args.ID == "" {
		return nil, DeleteRunOutput{}, errors.New("'id' parameter is required")
	}

	if err := s.store.DeleteRun(ctx, args.ID); err != nil {
		return nil, DeleteRunOutput{}, err
	}
	return nil, DeleteRunOutput{Deleted: true, Message: fmt.Sprintf("Deleted run %s", args.ID)}, nil
}

func summarize(rec store.RunRecord) RunSummary {
	return RunSummary{
		ID:        rec.ID,
		Protocol:  rec.Protocol,
		CreatedAt: rec.CreatedAt,
		Cells:     rec.Config.Cells,
		Edges:     rec.Config.Edges,
		Seed:      rec.Config.Seed,
		Rounds:    rec.Rounds,
		Decided:   rec.Decided,
		Winners:   rec.Winners,
	}
}

func cellResults(statuses []network.CellStatus) []CellResult {
	out := make([]CellResult, len(statuses))
	for i, st := range statuses {
		out[i] = CellResult{ID: st.ID, Status: string(st.Status)}
	}
	return out
}

func edgeInputs(edges []network.Edge) []EdgeInput {
	out := make([]EdgeInput, len(edges))
	for i, e := range edges {
		out[i] = EdgeInput{A: e.A, B: e.B}
	}
	return out
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

// formatRunMarkdown renders a run for context injection.
func formatRunMarkdown(rec store.RunRecord) string {
	var b strings.Builder
	b.WriteString("# Latest bionet run\n\n")
	fmt.Fprintf(&b, "- **ID**: %s\n", rec.ID)
	fmt.Fprintf(&b, "- **Protocol**: %s\n", rec.Protocol)
	fmt.Fprintf(&b, "- **Created**: %s\n", rec.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Network**: %d cells, %d edges, max degree %d, seed %d\n",
		rec.Config.Cells, len(rec.Topology), rec.Config.MaxDegree, rec.Config.Seed)
	if rec.Decided {
		fmt.Fprintf(&b, "- **Result**: decided in %d rounds\n", rec.Rounds)
	} else {
		fmt.Fprintf(&b, "- **Result**: undecided after %d rounds\n", rec.Rounds)
	}
	fmt.Fprintf(&b, "- **Winners**: %d\n", rec.Winners)
	fmt.Fprintf(&b, "- **Losers**: %d\n", rec.Losers)

	if ids := session.WinnerIDs(rec); len(ids) > 0 {
		strs := make([]string, len(ids))
		for i, id := range ids {
			strs[i] = fmt.Sprintf("%d", id)
		}
		fmt.Fprintf(&b, "\nWinning cells: %s\n", strings.Join(strs, ", "))
	}
	return b.String()
}
