package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Create or update agents from a YAML roster",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		f, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "roster: open %s", path)
		}
		defer f.Close()

		entries, err := parseRoster(f)
		if err != nil {
			return err
		}
		if dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%d agents parsed, nothing written\n", len(entries))
			return nil
		}

		res, err := applyRoster(cmd.Context(), directoryService(), entries, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		log.Info("agent roster imported", "file", path, "upserted", res.Upserted, "failed", len(res.Failed))
		if len(res.Failed) > 0 {
			return eris.Errorf("roster: %d of %d agents failed", len(res.Failed), len(entries))
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the agent directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		activeOnly, _ := cmd.Flags().GetBool("active")

		agents, err := directoryService().List(cmd.Context(), activeOnly)
		if err != nil {
			return eris.Wrap(err, "list agents")
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tEMAIL\tACTIVE\tOPEN")
		for _, a := range agents {
			fmt.Fprintf(tw, "%s\t%s\t%t\t%d\n", a.Name, a.Email, a.Active, a.OpenLeadCount)
		}
		return tw.Flush()
	},
}

func init() {
	importCmd.Flags().StringP("file", "f", "agents.yaml", "roster file")
	importCmd.Flags().Bool("dry-run", false, "parse and validate without writing")
	listCmd.Flags().Bool("active", false, "only agents receiving new leads")
}
