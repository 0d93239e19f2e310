package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new flux project",
	Long: `Initialize a new flux project by creating a project manifest (flux.toml)
and a starter circuit (main.flx). If [path|name] is omitted, initializes
the current directory. If a non-existing name is provided, a directory will
be created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "flux-project"
	}

	manifestPath := filepath.Join(target, "flux.toml")
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}

	if err := os.WriteFile(manifestPath, []byte(buildDefaultManifest(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	mainPath := filepath.Join(target, "main.flx")
	createdMain := false
	if _, err := os.Stat(mainPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(mainPath, []byte(defaultMainFlx()), 0o600); err != nil {
			return fmt.Errorf("failed to write main.flx: %w", err)
		}
		createdMain = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", filepath.Join(rel, "flux.toml"))
	if createdMain {
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", filepath.Join(rel, "main.flx"))
	}
	return nil
}

func buildDefaultManifest(name string) string {
	return fmt.Sprintf(`[package]
name = %q

[build]
main = "main.flx"
target = "low"
passes = []
out = "out"
`, name)
}

// defaultMainFlx returns a starter circuit: one register between input
// and output, something every lowering pass has work to do on.
func defaultMainFlx() string {
	return `circuit Main :
  module Main :
    input clk : Clock
    input in : UInt<8>
    output out : UInt<8>
    reg r : UInt<8>, clk
    r <= in
    out <= r
`
}
