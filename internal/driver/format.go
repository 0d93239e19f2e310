package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"flux/internal/parser"
)

// FormatOptions configures circuit formatting.
type FormatOptions struct {
	// Check leaves files untouched and only reports whether they would
	// change.
	Check bool
	// Stdout returns the canonical text in the results without touching
	// files on disk.
	Stdout bool
}

// FormatResult captures the result of formatting a single file.
type FormatResult struct {
	Path      string
	Changed   bool
	Err       error
	Formatted []byte
}

// FormatPaths rewrites the provided files or directories (recursively
// collecting .flx files) into canonical form: parse, then print. Comments
// and blank lines are not part of the circuit and do not survive.
// When opts.Check is true, files are not modified; Changed indicates
// whether formatting would update the file contents.
func FormatPaths(ctx context.Context, paths []string, opts FormatOptions) ([]FormatResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := collectFluxFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("format: no .flx files found")
	}

	results := make([]FormatResult, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := FormatResult{Path: path}
		formatted, changed, err := formatSingleFile(path)
		if err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}

		if opts.Check {
			result.Changed = changed
			results = append(results, result)
			continue
		}

		if opts.Stdout {
			result.Formatted = formatted
			result.Changed = changed
			results = append(results, result)
			continue
		}

		if changed {
			// Сохраняем права исходного файла, если смогли их прочитать.
			mode := os.FileMode(0o644)
			if info, statErr := os.Stat(path); statErr == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(path, formatted, mode.Perm()); err != nil {
				result.Err = err
			} else {
				result.Changed = true
			}
		}
		results = append(results, result)
	}

	return results, nil
}

func formatSingleFile(path string) (formatted []byte, changed bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	c, err := parser.Parse(data, parser.Options{Path: path})
	if err != nil {
		return nil, false, err
	}

	formatted = []byte(c.String())
	changed = !bytes.Equal(data, formatted)
	return formatted, changed, nil
}

func collectFluxFiles(ctx context.Context, paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	addFile := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			listed, err := ListFiles(p)
			if err != nil {
				return nil, err
			}
			for _, path := range listed {
				addFile(path)
			}
			continue
		}

		if filepath.Ext(p) == ".flx" {
			addFile(p)
		}
	}

	sort.Strings(files)
	return files, nil
}
