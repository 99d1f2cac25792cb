package encio

import (
	"sync"

	"go.uber.org/zap"
)

// In many cases packing will continue to operate with e.g. incorrectly implemented io.Writers or duplicate map keys,
// however it shouldn't silently put up with things that seem worrying. Those are logged here.
var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
)

// Logger returns the logger warnings are sent to.
// It is a no-op logger until SetLogger is called.
func Logger() *zap.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// SetLogger sets the logger warnings are sent to. A nil logger restores the no-op default.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}
