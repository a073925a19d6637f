// Package record persists room event streams to disk, one JSON-lines file
// per game. The files are append-only while a game runs and are read back by
// the analyze command.
package record

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/game/events"
)

var ErrRecordNotFound = errors.New("game record not found")

const recordExtension = ".jsonl"

// FileRecorder implements events.Recorder using one append-only file per
// game id. Write failures are logged and the event dropped; the tick loop
// must never stall on disk.
type FileRecorder struct {
	dir string
	log *zap.Logger

	mu    sync.Mutex
	files map[string]*os.File
}

// NewFileRecorder creates the records directory if needed.
func NewFileRecorder(dir string, log *zap.Logger) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}
	return &FileRecorder{
		dir:   dir,
		log:   log.Named("record"),
		files: make(map[string]*os.File),
	}, nil
}

// Record appends the event to its game's log file.
func (r *FileRecorder) Record(e events.Event) {
	line, err := json.Marshal(e)
	if err != nil {
		r.log.Warn("unencodable event", zap.String("game_id", e.GameID), zap.Error(err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.fileLocked(e.GameID)
	if err != nil {
		r.log.Warn("cannot open record file", zap.String("game_id", e.GameID), zap.Error(err))
		return
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		r.log.Warn("record write failed", zap.String("game_id", e.GameID), zap.Error(err))
	}
}

func (r *FileRecorder) fileLocked(gameID string) (*os.File, error) {
	if f, ok := r.files[gameID]; ok {
		return f, nil
	}
	f, err := os.OpenFile(r.path(gameID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	r.files[gameID] = f
	return f, nil
}

func (r *FileRecorder) path(gameID string) string {
	return filepath.Join(r.dir, gameID+recordExtension)
}

// CloseGame flushes and closes one game's log. Later events reopen it.
func (r *FileRecorder) CloseGame(gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[gameID]
	if !ok {
		return nil
	}
	delete(r.files, gameID)
	return f.Close()
}

// Close closes every open log file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for id, f := range r.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.files, id)
	}
	return firstErr
}

// ReadLog loads a game's full event log, oldest first.
func ReadLog(path string) ([]events.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to open record: %w", err)
	}
	defer f.Close()

	var out []events.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e events.Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("corrupt record line: %w", err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return out, nil
}

// ListLogs returns the record files under dir, sorted by name.
func ListLogs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExtension) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
