// Package logging writes session-scoped debug logs for surf components.
// Every component in one process appends to the same file under
// ~/.surf/logs/, named after a per-process session ID, so a whole run can
// be replayed from a single file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	runID     string
	runIDOnce sync.Once

	logDir     string
	logDirOnce sync.Once
	logDirErr  error
)

// RunID returns the process-wide session identifier. It is generated once
// and shared by every logger in the process.
func RunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

func initLogDir() error {
	logDirOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			logDirErr = fmt.Errorf("resolving home directory: %w", err)
			return
		}
		logDir = filepath.Join(home, ".surf", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			logDirErr = fmt.Errorf("creating log directory: %w", err)
		}
	})
	return logDirErr
}

// LogDirectory returns the directory log files are written to.
func LogDirectory() (string, error) {
	if err := initLogDir(); err != nil {
		return "", err
	}
	return logDir, nil
}

// Logger appends structured entries for one component to the shared
// session log file. All levels write unconditionally; there is no
// level filtering.
type Logger struct {
	component string
	file      *os.File
	out       *log.Logger
	path      string

	mu        sync.Mutex
	closeOnce sync.Once
}

// New creates a logger for the named component, writing to
// ~/.surf/logs/<run-id>-surf.log. When the file cannot be opened the
// returned logger falls back to stderr and the error reports why.
func New(component string) (*Logger, error) {
	if err := initLogDir(); err != nil {
		return fallback(component, err), err
	}

	path := filepath.Join(logDir, fmt.Sprintf("%s-surf.log", RunID()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("opening log file: %w", err)
		return fallback(component, err), err
	}

	return &Logger{
		component: component,
		file:      file,
		out:       log.New(file, "", 0),
		path:      path,
	}, nil
}

func fallback(component string, cause error) *Logger {
	out := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags)
	out.Printf("file logging unavailable (%v), writing to stderr", cause)
	return &Logger{component: component, out: out}
}

// Discard returns a logger that drops everything. Useful as a default when
// the caller did not wire one up.
func Discard() *Logger {
	return &Logger{component: "discard", out: log.New(io.Discard, "", 0)}
}

func (l *Logger) emit(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Format("2006-01-02 15:04:05.000")
	l.out.Printf("[%s] [%s] [%s] %s", ts, l.component, level, fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...interface{}) { l.emit("DEBUG", format, v...) }
func (l *Logger) Infof(format string, v ...interface{})  { l.emit("INFO", format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.emit("WARN", format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.emit("ERROR", format, v...) }

// Writer exposes the underlying sink for libraries that want an io.Writer.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

// Path returns the log file path, empty when logging to stderr.
func (l *Logger) Path() string { return l.path }

// Close closes the log file. Safe to call more than once.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
