package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsurutan/e2e-generator-sub000/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the settings file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every settings section",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings, defaults included, to the settings file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := make(map[string]map[string]interface{})
	for _, section := range config.Global().GetSections() {
		data := section.Data()
		if key, ok := data["api_key"].(string); ok && key != "" {
			data["api_key"] = "********"
		}
		out[section.ID()] = data
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	manager := config.Global()
	if err := manager.SaveAll(); err != nil {
		return err
	}
	path := configPath
	if fs, ok := manager.Store().(*config.FileStore); ok {
		path = fs.Path()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
