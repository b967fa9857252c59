package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"mender/internal/config"
	"mender/internal/docgen"
	"mender/internal/pipeline"
)

// debounce is how long watch waits after the last event before re-running
// the pipeline, so one save burst triggers one run.
const debounce = 300 * time.Millisecond

func runWatchCmd(args []string) error {
	return runWatch(rootArg(args), nil)
}

// runWatch re-runs the maintenance pipeline whenever files under root
// change. stop, when non-nil, ends the loop (used by tests).
func runWatch(root string, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	var timer *time.Timer
	trigger := func() {
		sum, err := pipeline.Run(context.Background(), root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mender: %v\n", err)
			return
		}
		printSummary(os.Stdout, sum)
	}

	fmt.Printf("watching %s\n", root)
	for {
		select {
		case <-stop:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignoredEvent(root, ev.Name) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "mender: watch error: %v\n", err)
		}
	}
}

// addWatchRecursive registers root and every directory beneath it, except
// mender's own output directory and other dot directories.
func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			name := info.Name()
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}

// ignoredEvent filters events the pipeline itself produces, which would
// otherwise re-trigger it forever.
func ignoredEvent(root, name string) bool {
	sep := string(filepath.Separator)
	if strings.Contains(name, sep+config.OutputDir+sep) ||
		strings.HasSuffix(name, sep+config.OutputDir) {
		return true
	}
	return filepath.Base(name) == docgen.DocFile
}
