package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/editor"
	"github.com/mark3labs/signup/internal/config"
	"github.com/spf13/cobra"
)

var setupFlags struct {
	project  bool
	force    bool
	endpoint string
	edit     bool
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create signup configuration file",
	Long: `Create a signup configuration file with sensible defaults.

By default, creates a global config at ~/.config/signup/signup.yml.
Use --project to create a project-local config in the current directory.
Use --edit to open the written file in $EDITOR.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
	setupCmd.Flags().StringVar(&setupFlags.endpoint, "endpoint", "", "Registration endpoint to store (default: "+config.DefaultEndpoint+")")
	setupCmd.Flags().BoolVarP(&setupFlags.edit, "edit", "e", false, "Open the config file in $EDITOR after writing it")
}

func runSetup(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	c := config.Default()
	if setupFlags.endpoint != "" {
		c.Endpoint = setupFlags.endpoint
	}
	if err := c.Validate(); err != nil {
		return err
	}

	var err error
	if setupFlags.project {
		err = config.WriteProject(c)
	} else {
		err = config.WriteGlobal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config written to: %s\n\n", targetPath)

	if setupFlags.edit {
		if err := openInEditor(cmd, targetPath); err != nil {
			return err
		}
		if _, err := config.Load(); err != nil {
			return fmt.Errorf("edited config is invalid: %w", err)
		}
	}

	fmt.Fprintln(out, "Run 'signup register' to get started.")
	return nil
}

// openInEditor runs $EDITOR (falling back to the platform default) on path.
func openInEditor(cmd *cobra.Command, path string) error {
	c, err := editor.Command("signup", path)
	if err != nil {
		return fmt.Errorf("failed to prepare editor: %w", err)
	}
	c.Stdin = cmd.InOrStdin()
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	if err := c.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
