package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/dqcheck-cli/internal/artifact"
	cfgpkg "github.com/KaramelBytes/dqcheck-cli/internal/config"
	"github.com/KaramelBytes/dqcheck-cli/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initDescription string

// projectMarker is the content of the project marker file.
type projectMarker struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	CreatedAt   string `yaml:"created_at"`
}

// rawDirs hold datasets before validation.
var rawDirs = []string{
	filepath.Join("01_raw", "011_external"),
	filepath.Join("01_raw", "012_internal"),
	filepath.Join("01_raw", "013_synthetic"),
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a data project with the standard directory layout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		marker := filepath.Join(abs, utils.ProjectMarker)
		// Refuse to overwrite an existing project.
		if _, err := os.Stat(marker); err == nil {
			return fmt.Errorf("project already exists at %s", abs)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat project marker: %w", err)
		}
		layout := artifact.DefaultLayout(abs)
		dirs := append([]string{}, rawDirs...)
		for i := range dirs {
			dirs[i] = filepath.Join(abs, dirs[i])
		}
		dirs = append(dirs, layout.ValidationDir, layout.ProfileDir, layout.SchemaDir, layout.ReportDir)
		for _, d := range dirs {
			if err := utils.EnsureDir(d); err != nil {
				return fmt.Errorf("create %s: %w", d, err)
			}
		}
		b, err := yaml.Marshal(projectMarker{
			Name:        filepath.Base(abs),
			Description: initDescription,
			CreatedAt:   time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		if err := utils.SafeWriteFile(marker, b); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Project initialized: %s\n", abs)
		return nil
	},
}

// outputRoot returns the artifact root: the configured output_dir, or the
// enclosing project when output_dir is left at its default.
func outputRoot(c *cfgpkg.Global) string {
	if c.OutputDir != "" && c.OutputDir != "." {
		return c.OutputDir
	}
	if root, err := utils.FindProjectRoot(""); err == nil {
		return root
	}
	return "."
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "project description")
}
