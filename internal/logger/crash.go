// Package logger configures structured logging and records crash reports
// for the clarity CLI.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/utils"
)

const (
	// CrashLogDir is the directory for crash logs relative to the state dir.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs to keep
	MaxCrashLogs = 10

	maxInputExcerpt  = 500
	maxPromptExcerpt = 2000
)

// CrashContext stores context for crash logging.
type CrashContext struct {
	mu         sync.RWMutex
	lastInput  string
	lastPrompt string
	auditID    string
	command    string
	version    string
	basePath   string
}

var (
	globalContext = &CrashContext{}

	// fs is swapped for an in-memory filesystem in tests.
	fs afero.Fs = afero.NewOsFs()

	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// SetBasePath sets the state directory crash logs are written under.
func SetBasePath(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.basePath = path
}

// SetVersion sets the application version for crash logs.
func SetVersion(version string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.version = version
}

// SetCommand sets the current command being executed.
func SetCommand(cmd string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.command = cmd
}

// SetAuditID records the audit in flight.
func SetAuditID(id string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.auditID = id
}

// SetLastInput keeps an excerpt of the requirement being audited.
func SetLastInput(input string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastInput = utils.Truncate(strings.TrimSpace(input), maxInputExcerpt)
}

// SetLastPrompt keeps an excerpt of the last prompt sent to the model.
func SetLastPrompt(prompt string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastPrompt = utils.Truncate(prompt, maxPromptExcerpt)
}

// CrashLog represents a crash log entry.
type CrashLog struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Command    string    `json:"command"`
	AuditID    string    `json:"audit_id,omitempty"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
	LastInput  string    `json:"last_input,omitempty"`
	LastPrompt string    `json:"last_prompt,omitempty"`
	GoVersion  string    `json:"go_version"`
	OS         string    `json:"os"`
	Arch       string    `json:"arch"`
}

// HandlePanic is a deferred function that recovers from panics and logs them.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	log := createCrashLog(r)
	path, err := writeCrashLog(log)
	if err != nil {
		fmt.Fprintf(stderr, "\n[CRASH] Failed to write crash log: %v\n", err)
		fmt.Fprintf(stderr, "[CRASH] Panic: %v\n%s\n", r, log.StackTrace)
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "╭──────────────────────────────────────────────────────╮\n")
	fmt.Fprintf(stderr, "│ 🔴 clarity encountered an unexpected error           │\n")
	fmt.Fprintf(stderr, "╰──────────────────────────────────────────────────────╯\n")
	if path != "" {
		fmt.Fprintf(stderr, "\nA crash log has been saved to:\n  %s\n", path)
	}
	fmt.Fprintf(stderr, "\n")

	exit(1)
}

// createCrashLog creates a CrashLog from a panic value.
func createCrashLog(panicValue any) CrashLog {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	return CrashLog{
		Timestamp:  time.Now().UTC(),
		Version:    globalContext.version,
		Command:    globalContext.command,
		AuditID:    globalContext.auditID,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		LastInput:  globalContext.lastInput,
		LastPrompt: globalContext.lastPrompt,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

// writeCrashLog writes log as indented JSON and returns its path.
func writeCrashLog(log CrashLog) (string, error) {
	dir := crashLogDir()
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode crash log: %w", err)
	}

	path := filepath.Join(dir, crashLogName(log.Timestamp))
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}

	if err := cleanOldCrashLogs(dir); err != nil {
		fmt.Fprintf(stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}
	return path, nil
}

func crashLogDir() string {
	globalContext.mu.RLock()
	basePath := globalContext.basePath
	globalContext.mu.RUnlock()

	if basePath == "" {
		basePath = ".clarity"
	}
	return filepath.Join(basePath, CrashLogDir)
}

// crashLogName sorts lexically in time order.
func crashLogName(t time.Time) string {
	return fmt.Sprintf("crash_%s.json", t.Format("20060102_150405.000000000"))
}

func isCrashLog(name string) bool {
	return strings.HasPrefix(name, "crash_") && strings.HasSuffix(name, ".json")
}

// cleanOldCrashLogs removes old crash logs, keeping only MaxCrashLogs most recent.
func cleanOldCrashLogs(dir string) error {
	logs, err := listCrashLogs(dir)
	if err != nil || len(logs) <= MaxCrashLogs {
		return err
	}

	for _, path := range logs[:len(logs)-MaxCrashLogs] {
		if err := fs.Remove(path); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func listCrashLogs(dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var logs []string
	for _, e := range entries {
		if !e.IsDir() && isCrashLog(e.Name()) {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(logs)
	return logs, nil
}

// ListCrashLogs returns crash log paths, oldest first.
func ListCrashLogs() ([]string, error) {
	return listCrashLogs(crashLogDir())
}

// ReadCrashLog reads and decodes a crash log file.
func ReadCrashLog(path string) (CrashLog, error) {
	var log CrashLog
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return log, err
	}
	if err := json.Unmarshal(data, &log); err != nil {
		return log, fmt.Errorf("decode crash log %s: %w", path, err)
	}
	return log, nil
}
