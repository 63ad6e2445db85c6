package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsSettledImportFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, nil)
	if err != nil {
		t.Skipf("file watching unavailable: %v", err)
	}
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	csvPath := filepath.Join(dir, "today.csv")
	if err := os.WriteFile(csvPath, []byte("Standup,2024-03-01 09:00,2024-03-01 09:15\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Ready:
		if got != csvPath {
			t.Fatalf("ready = %s, want %s", got, csvPath)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for file")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	for got := range w.Ready {
		if got != csvPath {
			t.Fatalf("unexpected file reported: %s", got)
		}
	}
}
