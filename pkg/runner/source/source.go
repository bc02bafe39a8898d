// Package source loads payloads and override files for the CLI runners.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/planner"
	"tableflip.dev/taskcal/pkg/task"
)

// Stdin is the path that reads from standard input.
const Stdin = "-"

// Logger returns l, or a no-op logger when l is nil.
func Logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// ReadAll reads path, or stdin when path is empty or "-".
func ReadAll(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == Stdin {
		if stdin == nil {
			stdin = os.Stdin
		}
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// LoadPayload reads a payload and brings it to the latest schema in memory.
// The file itself is left alone.
func LoadPayload(path string, stdin io.Reader, log *zap.Logger) (*payload.Payload, error) {
	log = Logger(log)
	b, err := ReadAll(path, stdin)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	p, err := payload.Decode(b)
	if err != nil {
		return nil, err
	}
	up, err := payload.Upgrade(p, payload.LatestVersion)
	if err != nil {
		return nil, err
	}
	if up.SchemaVersion != p.SchemaVersion {
		log.Debug("payload upgraded in memory",
			zap.String("path", path),
			zap.Int("from", p.SchemaVersion),
			zap.Int("to", up.SchemaVersion))
	}
	if dropped := len(p.Tasks) - len(up.Tasks); dropped > 0 {
		log.Debug("tasks without a unique uuid dropped", zap.String("path", path), zap.Int("dropped", dropped))
	}
	log.Debug("payload loaded", zap.String("path", path), zap.Int("tasks", len(up.Tasks)))
	return up, nil
}

// DecodeRecords parses a task-manager export: a JSON array of objects.
func DecodeRecords(b []byte) ([]task.Record, error) {
	var records []task.Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("%w: task export: %v", payload.ErrMalformed, err)
	}
	return records, nil
}

// LoadOverrides reads a JSON object mapping uuid to override. An empty path
// yields no overrides.
func LoadOverrides(path string) (planner.Overrides, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	var o planner.Overrides
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("decode overrides %s: %w", path, err)
	}
	return o, nil
}

// WriteFile atomically replaces path with data. An empty path or "-" writes
// to stdout instead.
func WriteFile(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == Stdin {
		if stdout == nil {
			stdout = os.Stdout
		}
		_, err := stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	// atomic.WriteFile does not set permissions on new files.
	return os.Chmod(path, 0o644)
}
