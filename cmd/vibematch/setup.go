// ABOUTME: Cobra command for interactive embedding provider setup.
// ABOUTME: Launches a bubbletea TUI wizard to choose, validate, and save a provider.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/vibematch/internal/config"
	"github.com/2389-research/vibematch/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the embedding provider",
	Long:  "Interactive wizard to choose an embedding provider, model and API key.",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg := globalConfig

	model := tui.NewSetupModel(cfg.Embedding)

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup cancelled.")
		return nil
	}

	cfg.Embedding = final.Result()

	path := configPath
	if path == "" {
		path, err = config.GetConfigPath()
		if err != nil {
			return err
		}
	} else if path, err = config.ExpandPath(path); err != nil {
		return err
	}
	if err := cfg.SaveFile(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("Config saved to %s\n", path)
	return nil
}
