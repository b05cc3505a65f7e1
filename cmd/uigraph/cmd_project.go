package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <url>",
	Short: "Create a project for a web application",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectRemoveCmd = &cobra.Command{
	Use:   "remove <project-id>",
	Short: "Delete a project and its whole graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectRemove,
}

var projectName string

func init() {
	projectCreateCmd.Flags().StringVar(&projectName, "name", "", "project name (default the URL host)")
	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectRemoveCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.services.Projects.Create(cmd.Context(), projectName, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s) %s\n", p.ID, p.Name, p.URL)
	return nil
}

func runProjectList(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	projects, err := a.services.Projects.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No projects. Create one with: uigraph project create <url>")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tURL\tCREATED")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.URL, p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runProjectRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.services.Projects.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed project %s\n", args[0])
	return nil
}
