package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"flux/internal/driver"
	"flux/internal/ui"
)

type compileOutcome struct {
	result *driver.CompileResult
	err    error
}

type buildDirOutcome struct {
	results []driver.FileResult
	err     error
}

// runCompileWithUI runs one compile behind the progress TUI. The pass
// rows appear as the schedule queues them.
func runCompileWithUI(ctx context.Context, title string, req driver.CompileRequest) (*driver.CompileResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan compileOutcome, 1)

	go func() {
		req.Sink = driver.ChannelSink{Ch: events}
		res, err := driver.Compile(ctx, req)
		outcomeCh <- compileOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, nil, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

// runBuildDirWithUI runs a directory build behind the progress TUI, one
// row per file.
func runBuildDirWithUI(ctx context.Context, title string, req driver.BuildDirRequest) ([]driver.FileResult, error) {
	files, err := driver.ListFiles(req.Dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .flx files under %s", req.Dir)
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan buildDirOutcome, 1)

	go func() {
		req.Sink = driver.ChannelSink{Ch: events}
		results, err := driver.BuildDir(ctx, req)
		outcomeCh <- buildDirOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
