package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// setupTestDir points the package globals at a temp directory and returns a
// cleanup that restores them.
func setupTestDir(t *testing.T) func() {
	t.Helper()

	tempDir := t.TempDir()

	origLogDir := logDir
	origLogDirErr := logDirErr
	origRunID := runID

	logDir = tempDir
	logDirErr = nil
	logDirOnce = sync.Once{}
	logDirOnce.Do(func() {}) // mark initialized so initLogDir keeps tempDir
	runID = ""
	runIDOnce = sync.Once{}

	return func() {
		logDir = origLogDir
		logDirErr = origLogDirErr
		logDirOnce = sync.Once{}
		if origLogDir != "" || origLogDirErr != nil {
			logDirOnce.Do(func() {}) // original had already initialized
		}
		runID = origRunID
		runIDOnce = sync.Once{}
		if origRunID != "" {
			runIDOnce.Do(func() {}) // original had already generated an ID
		}
	}
}

func TestNewWritesToSharedSessionFile(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	first, err := New("tracker")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer first.Close()

	second, err := New("executor")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer second.Close()

	if first.Path() != second.Path() {
		t.Fatalf("components must share one file, got %q and %q", first.Path(), second.Path())
	}

	first.Infof("poll budget %d", 10)
	second.Errorf("click failed: %v", "timeout")

	raw, err := os.ReadFile(first.Path())
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(raw)

	if !strings.Contains(content, "[tracker] [INFO] poll budget 10") {
		t.Errorf("missing tracker entry in: %s", content)
	}
	if !strings.Contains(content, "[executor] [ERROR] click failed: timeout") {
		t.Errorf("missing executor entry in: %s", content)
	}
}

func TestLogFileNameUsesRunID(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := New("surf")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Close()

	want := filepath.Join(logDir, RunID()+"-surf.log")
	if logger.Path() != want {
		t.Errorf("Path() = %q, want %q", logger.Path(), want)
	}
}

func TestRunIDIsStable(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	if RunID() != RunID() {
		t.Error("RunID must not change within a process")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := New("surf")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestDiscardDropsEverything(t *testing.T) {
	logger := Discard()
	logger.Debugf("should go nowhere")
	logger.Errorf("also nowhere")

	if logger.Path() != "" {
		t.Errorf("discard logger must not have a file path")
	}
}
