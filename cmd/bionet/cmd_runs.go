package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/bionet/internal/store"
	"github.com/nvandessel/bionet/internal/visualization"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect journaled runs",
		Long: `List, show and delete runs recorded by 'bionet elect'.

Examples:
  bionet runs list --limit 5
  bionet runs show <id>
  bionet runs delete <id>`,
	}

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsDeleteCmd(),
	)

	return cmd
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			st, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if runs == nil {
					runs = []store.RunRecord{}
				}
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tCELLS\tEDGES\tSEED\tROUNDS\tWINNERS\tDECIDED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%v\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Config.Cells, len(r.Topology),
					r.Config.Seed, r.Rounds, r.Winners, r.Decided)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs (0 = all)")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a run",
		Long: `Show a run's result and per-cell statuses.

With --graph the final topology is rendered instead, as Graphviz DOT or as
node-link JSON:
  bionet runs show <id> --graph dot | dot -Tsvg > run.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			graph, _ := cmd.Flags().GetString("graph")
			var format visualization.Format
			if graph != "" {
				var err error
				if format, err = visualization.ParseFormat(graph); err != nil {
					return err
				}
			}

			st, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}
			if rec == nil {
				return fmt.Errorf("%w: %s", store.ErrNotFound, args[0])
			}

			out := cmd.OutOrStdout()
			switch {
			case format == visualization.FormatDOT:
				_, err := fmt.Fprint(out, visualization.RenderDOT(*rec))
				return err
			case format == visualization.FormatJSON:
				return json.NewEncoder(out).Encode(visualization.RenderJSON(*rec))
			case jsonOut:
				return json.NewEncoder(out).Encode(rec)
			}
			printRun(out, *rec)
			fmt.Fprintf(out, "  Created:  %s\n", rec.CreatedAt.Local().Format(time.DateTime))
			fmt.Fprintln(out, "  Cells:")
			for _, c := range rec.Statuses {
				fmt.Fprintf(out, "    %4d  %s\n", c.ID, c.Status)
			}
			return nil
		},
	}

	cmd.Flags().String("graph", "", "Render the topology as dot or json")
	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			st, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "deleted",
					"id":     args[0],
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}
}

func openRunStore(cmd *cobra.Command) (store.RunStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}
