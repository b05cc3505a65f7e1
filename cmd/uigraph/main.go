// Command uigraph explores web applications into a UI-state graph and
// generates Playwright tests from that graph.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsurutan/e2e-generator-sub000/pkg/config"
	"github.com/tsurutan/e2e-generator-sub000/pkg/logging"
)

var version = "0.1.0"

const defaultModel = "gpt-4o"

var (
	configPath string
	dbPath     string
	modelFlag  string
	baseURL    string
	apiKey     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "uigraph",
	Short: "Map web applications into a UI-state graph and generate tests from it",
	Long: `uigraph drives a browser with an LLM agent to discover the pages of a web
application, the UI states each page can be in and the transitions between
them. The resulting graph is stored in SQLite and used to write Playwright
tests for Given/When/Then scenarios, repairing them until they pass.

Settings are read from ~/.uigraph/config.json; flags override environment
variables, which override the file.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.uigraph/config.json)")
	flags.StringVar(&dbPath, "db", "", "graph database (default ~/.uigraph/graph.db)")
	flags.StringVar(&modelFlag, "model", "", "LLM model (default "+defaultModel+")")
	flags.StringVar(&baseURL, "base-url", "", "OpenAI-compatible API base URL")
	flags.StringVar(&apiKey, "api-key", "", "API key (default $OPENAI_API_KEY)")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(projectCmd, exploreCmd, generateCmd, mcpCmd, graphCmd, sessionCmd, configCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	logging.SetMinLevel(logging.ParseLevel(logLevel))
	if err := config.Initialize(configPath); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
