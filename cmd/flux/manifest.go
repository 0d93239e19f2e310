package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const noFluxTomlMessage = "no flux.toml found\nplease specify the circuit explicitly, e.g.:\n  flux build path/to/main.flx"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Package packageConfig `toml:"package"`
	Build   buildConfig   `toml:"build"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type buildConfig struct {
	// Main is the entry circuit, a .flx file or a directory of them,
	// relative to the manifest.
	Main string `toml:"main"`
	// Target is the form to lower to (source|high|mid|low). Empty
	// means low.
	Target string `toml:"target"`
	// Passes names extra passes to merge into the schedule.
	Passes []string `toml:"passes"`
	// Out is the artifact directory, relative to the manifest. Empty
	// means "out".
	Out string `toml:"out"`
}

func findFluxToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "flux.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findFluxToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return projectConfig{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if !meta.IsDefined("build") {
		return projectConfig{}, fmt.Errorf("%s: missing [build]", path)
	}
	if !meta.IsDefined("build", "main") || strings.TrimSpace(cfg.Build.Main) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [build].main", path)
	}
	return cfg, nil
}

// resolveBuildTarget turns the manifest's [build].main into an absolute
// path and reports whether it is a directory.
func resolveBuildTarget(manifest *projectManifest) (string, bool, error) {
	if manifest == nil {
		return "", false, fmt.Errorf("missing project manifest")
	}
	mainRel := strings.TrimSpace(manifest.Config.Build.Main)
	mainPath := filepath.Join(manifest.Root, filepath.FromSlash(mainRel))
	info, err := os.Stat(mainPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("%s: [build].main path does not exist: %s", manifest.Path, mainPath)
		}
		return "", false, fmt.Errorf("%s: failed to stat [build].main: %w", manifest.Path, err)
	}
	if info.IsDir() {
		return mainPath, true, nil
	}
	if filepath.Ext(mainPath) != ".flx" {
		return "", false, fmt.Errorf("%s: [build].main must be a .flx file or directory", manifest.Path)
	}
	return mainPath, false, nil
}
