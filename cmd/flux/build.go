// Package main implements the flux CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"flux/internal/anno"
	"flux/internal/driver"
	"flux/internal/form"
	"flux/internal/observ"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path]",
	Short: "Build a flux project",
	Long: "Build a flux project using flux.toml as the entrypoint definition, " +
		"or compile the named .flx file or directory directly.",
	Args: cobra.MaximumNArgs(1),
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().String("target", "", "form to lower to (source|high|mid|low)")
	buildCmd.Flags().StringSlice("pass", nil, "extra pass to merge into the schedule (repeatable)")
	buildCmd.Flags().String("out", "", "artifact directory")
	buildCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	buildCmd.Flags().Bool("no-cache", false, "bypass the artifact cache")
	buildCmd.Flags().Int("jobs", 0, "max parallel workers for directory builds (0=auto)")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	targetValue, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	passNames, err := cmd.Flags().GetStringSlice("pass")
	if err != nil {
		return err
	}
	outValue, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	// An explicit path builds without a manifest; otherwise flux.toml
	// names the entry point and the defaults.
	var (
		targetPath string
		isDir      bool
		outDir     string
		targetName string
	)
	if len(args) > 0 && filepath.Clean(args[0]) != "." {
		targetPath = args[0]
		st, statErr := os.Stat(targetPath)
		if statErr != nil {
			return statErr
		}
		isDir = st.IsDir()
		if !isDir && filepath.Ext(targetPath) != ".flx" {
			return fmt.Errorf("%s is not a .flx file", targetPath)
		}
		outDir = "out"
	} else {
		manifest, manifestFound, manErr := loadProjectManifest(".")
		if manErr != nil {
			return manErr
		}
		if !manifestFound {
			return errors.New(noFluxTomlMessage)
		}
		targetPath, isDir, err = resolveBuildTarget(manifest)
		if err != nil {
			return err
		}
		targetName = manifest.Config.Build.Target
		passNames = append(manifest.Config.Build.Passes, passNames...)
		outDir = manifest.Config.Build.Out
		if outDir == "" {
			outDir = "out"
		}
		outDir = filepath.Join(manifest.Root, filepath.FromSlash(outDir))
	}
	if targetValue != "" {
		targetName = targetValue
	}
	if targetName == "" {
		targetName = "low"
	}
	if outValue != "" {
		outDir = outValue
	}

	target, err := form.Parse(targetName)
	if err != nil {
		return err
	}
	extra, err := driver.DefaultRegistry().LookupAll(passNames)
	if err != nil {
		return err
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	ctx := cmd.Context()

	var cache *driver.ArtifactCache
	if !noCache {
		cache, err = driver.OpenArtifactCache("flux")
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: artifact cache unavailable: %v\n", err)
			cache = nil
		}
	}

	useTUI := shouldUseTUI(uiModeValue) && !quiet

	if isDir {
		req := driver.BuildDirRequest{
			Dir:    targetPath,
			Target: target,
			Extra:  extra,
			Jobs:   jobs,
			Cache:  cache,
		}
		var results []driver.FileResult
		if useTUI {
			results, err = runBuildDirWithUI(ctx, "flux build", req)
		} else {
			results, err = driver.BuildDir(ctx, req)
		}
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no .flx files under %s", targetPath)
		}
		built := 0
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", r.Err)
				continue
			}
			if _, werr := writeArtifact(outDir, r.Path, target, r.Result.Artifact); werr != nil {
				return werr
			}
			built++
		}
		if failed := driver.Errors(results); failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(results))
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "built %d circuits -> %s\n", built, outDir)
		}
		return nil
	}

	var timer *observ.Timer
	if timings {
		timer = observ.NewTimer()
	}
	req := driver.CompileRequest{
		Path:   targetPath,
		Target: target,
		Extra:  extra,
		Cache:  cache,
		Timer:  timer,
	}
	var res *driver.CompileResult
	if useTUI {
		res, err = runCompileWithUI(ctx, "flux build "+filepath.Base(targetPath), req)
	} else {
		res, err = driver.Compile(ctx, req)
	}
	if err != nil {
		return err
	}

	outPath, err := writeArtifact(outDir, targetPath, target, res.Artifact)
	if err != nil {
		return err
	}
	if !quiet {
		printStageTimings(cmd.OutOrStdout(), res.Timings)
		suffix := ""
		if res.Cached {
			suffix = " (cached)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "built %s%s\n", outPath, suffix)
	}
	if timings && timer != nil {
		fmt.Fprint(cmd.OutOrStdout(), timer.Summary())
	}
	return nil
}

// writeArtifact stores one emitted circuit under the artifact directory,
// named after the source file and the target form: adder.flx lowered to
// low form lands in <out>/adder.low.flx.
func writeArtifact(outDir, srcPath string, target form.Form, art anno.EmittedCircuit) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(srcPath), ".flx")
	outPath := filepath.Join(outDir, fmt.Sprintf("%s.%s.flx", base, target))
	if err := os.WriteFile(outPath, []byte(art.Text), 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}
