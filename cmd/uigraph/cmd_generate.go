package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsurutan/e2e-generator-sub000/pkg/codegen"
	"github.com/tsurutan/e2e-generator-sub000/pkg/config"
	"github.com/tsurutan/e2e-generator-sub000/pkg/runner"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a Playwright test for a scenario and repair it until it passes",
	Long: `Generate reads a YAML scenario, asks the model for a Playwright test using
the project's labels, runs it with the configured runner command and feeds
failures back to the model, up to --max-attempts executions.

Scenario file:

  project_id: <project id>
  feature: Authentication
  title: Successful login
  given: [a registered user]
  when: [the user logs in with valid credentials]
  then: [the dashboard is shown]`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	generateFlags runFlags
	scenarioPath  string
	outputPath    string
	maxAttempts   int
	runnerCommand string
	runnerDir     string
	showOutput    bool
)

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&scenarioPath, "scenario", "s", "", "scenario YAML file")
	f.StringVarP(&outputPath, "out", "o", "", "write the passing test to this file (default stdout)")
	f.IntVar(&maxAttempts, "max-attempts", 0, "maximum executions (default from config)")
	f.StringVar(&runnerCommand, "runner-command", "", "command that runs the test; {file} is replaced by its path")
	f.StringVar(&runnerDir, "runner-dir", "", "directory the test is written to and run from, e.g. a Playwright project")
	f.BoolVar(&showOutput, "show-output", false, "stream the runner's output")
	f.IntVar(&generateFlags.maxTurns, "max-turns", 0, "turn budget per model run (default from config)")
	f.StringVar(&generateFlags.timeout, "timeout", "", "wall-clock budget per model run (default from config)")
	f.StringVar(&generateFlags.instructions, "instructions", "", "extra instructions for the agent")
	f.BoolVar(&generateFlags.xmlTools, "xml-tools", false, "describe tools in the prompt for models without function calling")
	f.BoolVar(&generateFlags.noBrowser, "no-browser", false, "do not give the model a browser")
	f.BoolVarP(&generateFlags.quiet, "quiet", "q", false, "only print the result")
	_ = generateCmd.MarkFlagRequired("scenario")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	scenario, err := codegen.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := a.services.Projects.Get(ctx, scenario.ProjectID)
	if err != nil {
		return err
	}
	provider, err := buildProvider()
	if err != nil {
		return err
	}
	budget, settings, err := generateFlags.budget()
	if err != nil {
		return err
	}

	command := runnerCommand
	if command == "" {
		command = config.GetBrowser().Snapshot().RunnerCommand
	}
	r := runner.NewCommandRunner(command)
	r.WorkDir = runnerDir
	if showOutput {
		errOut := cmd.ErrOrStderr()
		r.OnOutput = func(stream, line string) {
			fmt.Fprintf(errOut, "  %s| %s\n", stream, line)
		}
	}

	attempts := settings.MaxRepairAttempts
	if maxAttempts > 0 {
		attempts = maxAttempts
	}
	opts := []codegen.Option{
		codegen.WithMaxAttempts(attempts),
		codegen.WithBudget(budget),
		codegen.WithMaxRepeatedErrors(settings.MaxRepeatedErrors),
		codegen.WithTokenizer(newTokenizer()),
		codegen.WithInstructions(generateFlags.instructions),
	}
	if generateFlags.xmlTools {
		opts = append(opts, codegen.WithXMLTools())
	}
	if !generateFlags.quiet {
		opts = append(opts, codegen.WithObserver(eventPrinter(cmd.ErrOrStderr(), false)))
	}
	if !generateFlags.noBrowser {
		ts, release, err := browserTools(ctx, project)
		if err != nil {
			return err
		}
		defer release()
		opts = append(opts, codegen.WithBrowser(ts))
	}

	result, err := codegen.New(provider, a.services, r, opts...).Generate(ctx, scenario)
	if err != nil {
		var execErr *codegen.ExecutionError
		if errors.As(err, &execErr) && execErr.Code != "" {
			if writeErr := writeCode(cmd, execErr.Code); writeErr != nil {
				return errors.Join(err, writeErr)
			}
		}
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%q passed after %d attempt(s)\n", scenario.Title, len(result.Attempts))
	return writeCode(cmd, result.Code)
}

func writeCode(cmd *cobra.Command, code string) error {
	if outputPath == "" {
		fmt.Fprintln(cmd.OutOrStdout(), code)
		return nil
	}
	if err := os.WriteFile(outputPath, []byte(code+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outputPath)
	return nil
}
