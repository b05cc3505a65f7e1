package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent"
	"github.com/tsurutan/e2e-generator-sub000/pkg/explorer"
	"github.com/tsurutan/e2e-generator-sub000/pkg/tools/browser"
)

var exploreCmd = &cobra.Command{
	Use:   "explore <project-id>",
	Short: "Let the agent browse the project's site and record its graph",
	Long: `Explore starts a browser at the project URL and lets the model record
pages, UI states, edges and labels. The run ends when the model stops calling
tools or a budget (turns, timeout, context tokens) runs out; whatever was
recorded until then is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplore,
}

var (
	exploreFlags   runFlags
	exploreVerbose bool
)

func init() {
	f := exploreCmd.Flags()
	f.IntVar(&exploreFlags.maxTurns, "max-turns", 0, "turn budget (default from config)")
	f.StringVar(&exploreFlags.timeout, "timeout", "", "wall-clock budget, e.g. 10m (default from config)")
	f.StringVar(&exploreFlags.instructions, "instructions", "", "extra instructions for the agent")
	f.BoolVar(&exploreFlags.xmlTools, "xml-tools", false, "describe tools in the prompt for models without function calling")
	f.BoolVar(&exploreFlags.noBrowser, "no-browser", false, "run with the graph tools only")
	f.BoolVarP(&exploreFlags.quiet, "quiet", "q", false, "only print the final report")
	f.BoolVarP(&exploreVerbose, "verbose", "v", false, "print model messages and tool results")
}

func runExplore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := a.services.Projects.Get(ctx, args[0])
	if err != nil {
		return err
	}
	provider, err := buildProvider()
	if err != nil {
		return err
	}
	budget, settings, err := exploreFlags.budget()
	if err != nil {
		return err
	}

	opts := []explorer.Option{
		explorer.WithBudget(budget),
		explorer.WithMaxRepeatedErrors(settings.MaxRepeatedErrors),
		explorer.WithTokenizer(newTokenizer()),
		explorer.WithHTMLCleaner(browser.CleanMarkup),
		explorer.WithInstructions(exploreFlags.instructions),
	}
	if exploreFlags.xmlTools {
		opts = append(opts, explorer.WithXMLTools())
	}
	if !exploreFlags.quiet {
		opts = append(opts, explorer.WithObserver(eventPrinter(cmd.ErrOrStderr(), exploreVerbose)))
	}

	var ex *explorer.Explorer
	if exploreFlags.noBrowser {
		ex = explorer.New(provider, a.services, nil, opts...)
	} else {
		ts, release, err := browserTools(ctx, project)
		if err != nil {
			return err
		}
		defer release()
		ex = explorer.New(provider, a.services, ts, opts...)
	}

	result, err := ex.Explore(ctx, project.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.String())
	if result.Summary != "" {
		fmt.Fprintf(out, "\n%s\n", result.Summary)
	}
	if result.Status == agent.StatusFailed {
		if result.Err == nil {
			return fmt.Errorf("exploration failed: %s", result.Reason)
		}
		return fmt.Errorf("exploration failed: %w", result.Err)
	}
	return nil
}
