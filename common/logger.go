package common

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger *zap.SugaredLogger
)

// Log returns the package-wide structured logger used for buffer pool
// eviction/flush tracing and B+ tree structural-change tracing (splits,
// merges, root swaps). It is built lazily so importing this package never
// pays zap's construction cost unless something actually logs.
func Log() *zap.SugaredLogger {
	once.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l.Sugar()
	})
	return logger
}

// SetLogger overrides the package-wide logger, e.g. to silence logging in
// tests or to inject a zap.NewNop() logger.
func SetLogger(l *zap.SugaredLogger) {
	// Consume the lazy initialization so a later first Log() call does not
	// replace l with the default logger.
	once.Do(func() {})
	logger = l
}
