// Package logger owns the process-wide zap logger.
//
// Call Init once from main; components grab the shared logger with Get and
// derive their own with With fields (e.g. a per-room logger).
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.Mutex
	global *zap.Logger
)

// Init builds the global logger. Debug enables development encoding and
// debug-level output. Safe to call more than once; the last call wins.
func Init(debug bool) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	mu.Lock()
	global = log
	mu.Unlock()
	return log, nil
}

// Get returns the global logger, initializing a no-op logger if Init was
// never called (keeps library code usable from tests without setup).
func Get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = zap.NewNop()
	}
	return global
}

// Sync flushes buffered log entries. Intended for deferred use in main.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		_ = global.Sync()
	}
}
