package commands

import (
	"fmt"
	"regexp"

	"github.com/bryanchriswhite/EyeFocus/internal/config"
	"github.com/spf13/cobra"
)

var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Manage window watch patterns",
	Long: `Add or remove regex patterns selecting which windows the x11 backend
treats as watchable.

Patterns are matched against both window class and window title. With no
patterns every window is watchable.`,
}

var patternAddCmd = &cobra.Command{
	Use:   "add PATTERN",
	Short: "Add a watch pattern",
	Long:  `Add a regex pattern selecting watchable windows.`,
	Example: `  # Match all terminal applications
  eyefocus pattern add ".*[Tt]erminal.*"

  # Match Firefox specifically
  eyefocus pattern add "^firefox$"`,
	Args: cobra.ExactArgs(1),
	RunE: runPatternAdd,
}

var patternRemoveCmd = &cobra.Command{
	Use:   "remove PATTERN",
	Short: "Remove a watch pattern",
	Long:  `Remove a regex pattern from the watch patterns.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternRemove,
}

var patternListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watch patterns",
	Long:  `Display all configured watch patterns.`,
	RunE:  runPatternList,
}

func init() {
	rootCmd.AddCommand(patternCmd)
	patternCmd.AddCommand(patternAddCmd)
	patternCmd.AddCommand(patternRemoveCmd)
	patternCmd.AddCommand(patternListCmd)
}

func runPatternAdd(cmd *cobra.Command, args []string) error {
	pattern := args[0]

	// Validate regex
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}

	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := configMgr.AddPattern(pattern); err != nil {
		return fmt.Errorf("failed to add pattern: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Added pattern: %s\n", pattern)
	return nil
}

func runPatternRemove(cmd *cobra.Command, args []string) error {
	pattern := args[0]

	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := configMgr.RemovePattern(pattern); err != nil {
		return fmt.Errorf("failed to remove pattern: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Removed pattern: %s\n", pattern)
	return nil
}

func runPatternList(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg := configMgr.Get()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Watch Patterns:")
	if len(cfg.WatchPatterns) == 0 {
		fmt.Fprintln(out, "  (none, every window is watchable)")
		return nil
	}
	for i, pattern := range cfg.WatchPatterns {
		fmt.Fprintf(out, "  %d. %s\n", i+1, pattern)
	}
	return nil
}
