package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect a project's UI-state graph",
}

var graphExportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Dump pages, UI states, edges and labels as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphExport,
}

var graphStatesCmd = &cobra.Command{
	Use:   "states <project-id>",
	Short: "List UI states with their outgoing edges",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphStates,
}

var (
	exportPath     string
	exportWithHTML bool
)

func init() {
	graphExportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "output file (default stdout)")
	graphExportCmd.Flags().BoolVar(&exportWithHTML, "html", false, "include stored UI state markup")
	graphCmd.AddCommand(graphExportCmd, graphStatesCmd)
}

func runGraphExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	export, err := a.services.Export(cmd.Context(), args[0], exportWithHTML)
	if err != nil {
		return err
	}
	if exportPath == "" {
		return printJSON(cmd.OutOrStdout(), export)
	}

	f, err := os.Create(exportPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportPath, err)
	}
	if err := printJSON(f, export); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runGraphStates(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	export, err := a.services.Export(ctx, args[0], false)
	if err != nil {
		return err
	}
	titles := make(map[string]string, len(export.UiStates))
	for _, st := range export.UiStates {
		titles[st.ID] = st.Title
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tPAGE\tDEFAULT\tEDGES")
	for _, st := range export.UiStates {
		edges, err := a.services.Edges.FindByUIState(ctx, st.ID)
		if err != nil {
			return err
		}
		def := ""
		if st.IsDefault {
			def = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d out, %d in\n", st.Title, st.PageURL, def, len(edges.Outgoing), len(edges.Incoming))
		for _, e := range edges.Outgoing {
			fmt.Fprintf(w, "  → %s\t%s\t\t\n", titles[e.ToUIStateID], e.Description)
		}
	}
	return w.Flush()
}
