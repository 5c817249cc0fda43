// Copyright 2026 © The Cabildo Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherReload(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: \"info\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	w, err := NewWatcher([]string{path}, WithWatchInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	var notified atomic.Int32
	w.OnChange(func(cfg *Config) {
		if cfg.Log.Level == "debug" {
			notified.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	// mtime resolution on some filesystems is coarse; nudge it forward
	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(path, []byte("log:\n  level: \"debug\"\n"), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	_ = os.Chtimes(path, future, future)

	deadline := time.After(2 * time.Second)
	for notified.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("watcher did not observe config change")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if w.Config().Log.Level != "debug" {
		t.Errorf("expected reloaded level debug, got %s", w.Config().Log.Level)
	}
}
