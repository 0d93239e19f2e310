package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"flux/internal/form"
	"flux/internal/pass"
)

// ListFiles возвращает отсортированный список всех *.flx файлов в директории.
func ListFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".flx") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// BuildDirRequest describes a directory build.
type BuildDirRequest struct {
	// Dir is walked recursively for .flx files.
	Dir string
	// Target is the form to lower every file to. Unknown means low form.
	Target form.Form
	// Extra passes are merged into every file's schedule. Passes are
	// stateless values, so sharing them across workers is fine.
	Extra []pass.Pass
	// Jobs bounds worker parallelism. Non-positive means GOMAXPROCS.
	Jobs int
	// Cache is shared by the workers; it locks internally.
	Cache *ArtifactCache
	// Sink receives every file's progress events, stamped with the file
	// path. It is called from multiple goroutines.
	Sink ProgressSink
}

// FileResult is the outcome of one file in a directory build.
type FileResult struct {
	Path   string
	Result *CompileResult
	Err    error
}

// Errors counts the failed files in a result set.
func Errors(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// BuildDir compiles every .flx file under a directory in parallel. A
// failing file is reported in its FileResult and does not stop the
// others; BuildDir itself errors only on walk failure or cancellation.
func BuildDir(ctx context.Context, req BuildDirRequest) ([]FileResult, error) {
	files, err := ListFiles(req.Dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	for _, path := range files {
		emitEvent(req.Sink, Event{File: path, Stage: StageParse, Status: StatusQueued})
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, err := Compile(gctx, CompileRequest{
				Path:   path,
				Target: req.Target,
				Extra:  req.Extra,
				Cache:  req.Cache,
				Sink:   fileSink{file: path, next: req.Sink},
			})
			results[i] = FileResult{Path: path, Result: res, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// fileSink stamps every event with the file a worker is compiling.
type fileSink struct {
	file string
	next ProgressSink
}

func (s fileSink) OnEvent(evt Event) {
	if s.next == nil {
		return
	}
	evt.File = s.file
	s.next.OnEvent(evt)
}
