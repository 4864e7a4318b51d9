// FILE: state.go
// Package main – operational state-snapshot persistence and the startup
// persistence-volume guard.
//
// This is not trade-history persistence: the snapshot carries only
// last-known equity and a last_fit_time stamp (main writes the shutdown
// time into it), an operational restart hint. Order/Position/GainLoss state stays in-memory for the life
// of one run.
package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// botState is the entrypoint's tiny restart-hint snapshot.
type botState struct {
	EquityUSD   float64   `json:"equity_usd"`
	LastFitTime time.Time `json:"last_fit_time"`
}

// saveState writes st to path using a temp-file-then-rename so a crash
// mid-write never leaves a truncated snapshot.
func saveState(path string, st botState) error {
	if path == "" {
		return nil
	}
	bs, err := json.MarshalIndent(st, "", " ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, bs, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// loadState reads a prior snapshot, if any.
func loadState(path string) (botState, error) {
	var st botState
	if path == "" {
		return st, os.ErrNotExist
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(bs, &st); err != nil {
		return st, err
	}
	return st, nil
}

// shouldFatalNoStateMount reports whether persistence is expected but the
// state file's parent directory isn't a mounted, writable volume — guarding
// against accidental flat-boot trading after a container restart onto an
// unmounted host volume.
func shouldFatalNoStateMount(stateFile string) bool {
	stateFile = strings.TrimSpace(stateFile)
	if stateFile == "" {
		return false
	}
	dir := filepath.Dir(stateFile)

	if _, err := os.Stat(stateFile); err == nil {
		return false
	}

	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return true
	}

	if f, err := os.CreateTemp(dir, "wtest-*.tmp"); err == nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
	} else {
		return true
	}

	isMount, err := isMounted(dir)
	if err == nil && !isMount {
		return true
	}
	return false
}

// isMounted checks /proc/self/mountinfo to see if dir is itself a mount point.
func isMounted(dir string) (bool, error) {
	bs, err := os.ReadFile("/proc/self/mountinfo")
	if err != nil {
		return false, err
	}
	dir = filepath.Clean(dir)
	for _, ln := range strings.Split(string(bs), "\n") {
		parts := strings.Split(ln, " ")
		if len(parts) < 5 {
			continue
		}
		if filepath.Clean(parts[4]) == dir {
			return true, nil
		}
	}
	return false, nil
}
