package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nvandessel/bionet/internal/ratelimit"
	"github.com/nvandessel/bionet/internal/store"
)

func readAuditEntries(t *testing.T, dir string) []AuditEntry {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("opening audit log: %v", err)
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("parsing audit entry %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestAuditLogger_NilSafety(t *testing.T) {
	var logger *AuditLogger
	logger.Log(AuditEntry{Tool: "test"})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nil logger returned error: %v", err)
	}
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	logger.Log(AuditEntry{Timestamp: time.Now(), Tool: "bionet_elect", DurationMs: 42, Status: "success"})
	logger.Log(AuditEntry{Timestamp: time.Now(), Tool: "bionet_run", Status: "error", Error: "boom"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	logger.Log(AuditEntry{Tool: "after-close"})

	entries := readAuditEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Tool != "bionet_elect" || entries[0].DurationMs != 42 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Errorf("entry 1 = %+v", entries[1])
	}

	info, err := os.Stat(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("audit log mode = %o, want 600", perm)
	}
}

func TestAuditLogger_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(AuditEntry{Tool: "bionet_runs", Status: "success"})
		}()
	}
	wg.Wait()

	if got := len(readAuditEntries(t, dir)); got != 50 {
		t.Errorf("got %d entries, want 50", got)
	}
}

func TestAuditParams(t *testing.T) {
	got := auditParams(map[string]any{
		"cells": 5, "edges": 0, "seed": seed(9), "max_rounds": 0, "id": "", "none": (*uint64)(nil),
	})
	want := map[string]string{"cells": "5", "seed": "9", "_param_count": "2"}
	if len(got) != len(want) {
		t.Fatalf("auditParams() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("auditParams()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestServer_AuditsToolCalls(t *testing.T) {
	dir := t.TempDir()
	server, err := NewServer(&Config{Name: "test", Version: "v0", Store: store.NewInMemoryRunStore(), AuditDir: dir})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	server.toolLimiters = ratelimit.Tools{}
	ctx := context.Background()

	_, out, err := server.handleElect(ctx, nil, ElectInput{Cells: 4, Edges: 3, Seed: seed(2)})
	if err != nil {
		t.Fatalf("handleElect failed: %v", err)
	}
	if _, _, err := server.handleRun(ctx, nil, RunInput{ID: "missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("handleRun error = %v", err)
	}
	server.Close()

	entries := readAuditEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if e := entries[0]; e.Tool != "bionet_elect" || e.Status != "success" || e.RunID != out.RunID || e.Params["cells"] != "4" {
		t.Errorf("elect entry = %+v", e)
	}
	if e := entries[1]; e.Tool != "bionet_run" || e.Status != "error" || e.RunID != "missing" {
		t.Errorf("run entry = %+v", e)
	}
}
