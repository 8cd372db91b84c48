package mcp

import "time"

// EdgeInput is an undirected edge between two cell IDs.
type EdgeInput struct {
	A int `json:"a" jsonschema:"First cell ID"`
	B int `json:"b" jsonschema:"Second cell ID"`
}

// ElectInput defines the input for the bionet_elect tool. Omitted fields
// take the server's configured defaults.
type ElectInput struct {
	Cells         int         `json:"cells,omitempty" jsonschema:"Number of cells in the network"`
	MaxDegree     int         `json:"max_degree,omitempty" jsonschema:"Maximum number of neighbors per cell"`
	Edges         int         `json:"edges,omitempty" jsonschema:"Number of random edges to place (ignored when topology is given)"`
	Seed          *uint64     `json:"seed,omitempty" jsonschema:"Random seed; the same seed reproduces the same run"`
	AdjacentSites int         `json:"adjacent_sites,omitempty" jsonschema:"Capacity of each cell's adjacency mailbox"`
	MaxRounds     int         `json:"max_rounds,omitempty" jsonschema:"Round budget; the run is reported undecided when it runs out"`
	Topology      []EdgeInput `json:"topology,omitempty" jsonschema:"Explicit edge list replacing the random topology"`
}

// CellResult is the final status of one cell.
type CellResult struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

// ElectOutput defines the output for the bionet_elect tool.
type ElectOutput struct {
	RunID     string       `json:"run_id" jsonschema:"ID of the journaled run"`
	Rounds    int          `json:"rounds" jsonschema:"Rounds executed"`
	Decided   bool         `json:"decided" jsonschema:"Whether every cell reached winner or looser within the budget"`
	Winners   int          `json:"winners" jsonschema:"Number of winning cells"`
	Losers    int          `json:"losers" jsonschema:"Number of losing cells"`
	WinnerIDs []int        `json:"winner_ids" jsonschema:"IDs of the winning cells"`
	Cells     []CellResult `json:"cells" jsonschema:"Final status of every cell"`
	Topology  []EdgeInput  `json:"topology" jsonschema:"Edges of the network"`
	Message   string       `json:"message" jsonschema:"Human-readable result message"`
}

// RunsInput defines the input for the bionet_runs tool.
type RunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs to return (default 20)"`
}

// RunSummary is a one-line view of a journaled run.
type RunSummary struct {
	ID        string    `json:"id"`
	Protocol  string    `json:"protocol"`
	CreatedAt time.Time `json:"created_at"`
	Cells     int       `json:"cells"`
	Edges     int       `json:"edges"`
	Seed      uint64    `json:"seed"`
	Rounds    int       `json:"rounds"`
	Decided   bool      `json:"decided"`
	Winners   int       `json:"winners"`
}

// RunsOutput defines the output for the bionet_runs tool.
type RunsOutput struct {
	Runs  []RunSummary `json:"runs" jsonschema:"Journaled runs, newest first"`
	Count int          `json:"count" jsonschema:"Number of runs returned"`
}

// RunInput defines the input for the bionet_run tool.
type RunInput struct {
	ID string `json:"id" jsonschema:"Run ID"`
}

// RunOutput defines the output for the bionet_run tool.
type RunOutput struct {
	Run       RunSummary   `json:"run" jsonschema:"Run summary"`
	MaxDegree int          `json:"max_degree"`
	MaxRounds int          `json:"max_rounds"`
	WinnerIDs []int        `json:"winner_ids"`
	Cells     []CellResult `json:"cells"`
	Topology  []EdgeInput  `json:"topology"`
}

// DeleteRunInput defines the input for the bionet_delete_run tool.
type DeleteRunInput struct {
	ID string `json:"id" jsonschema:"Run ID"`
}

// DeleteRunOutput defines the output for the bionet_delete_run tool.
type DeleteRunOutput struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
}
