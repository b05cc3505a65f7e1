package main

import (
	"github.com/spf13/cobra"

	"github.com/tsurutan/e2e-generator-sub000/pkg/mcpserver"
	"github.com/tsurutan/e2e-generator-sub000/pkg/tools/browser"
	"github.com/tsurutan/e2e-generator-sub000/pkg/tools/graphtools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve a project's graph tools over MCP on stdio",
	Long: `Mcp exposes get_pages, get_labels, get_edges, get_ui_states and the save_*
tools for one project to any MCP client, so an external agent can build or
read the graph.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

var (
	mcpProject       string
	mcpReferenceOnly bool
)

func init() {
	mcpCmd.Flags().StringVarP(&mcpProject, "project", "p", "", "project id")
	mcpCmd.Flags().BoolVar(&mcpReferenceOnly, "reference-only", false, "expose only the read tools")
	_ = mcpCmd.MarkFlagRequired("project")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := a.services.Projects.Get(ctx, mcpProject)
	if err != nil {
		return err
	}

	opts := []graphtools.Option{graphtools.WithHTMLCleaner(browser.CleanMarkup)}
	if mcpReferenceOnly {
		opts = append(opts, graphtools.ReferenceOnly())
	}
	return mcpserver.Serve(ctx, graphtools.New(a.services, project.ID, opts...), version)
}
