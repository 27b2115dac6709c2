// Package logging sets up the process logger: zap underneath, logr on top.
package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sys/unix"
)

type loggerContextKey struct{}

var (
	once sync.Once

	// globalZap is kept for Sync.
	globalZap  *zap.Logger
	globalLogr *logr.Logger

	discard = logr.Discard()
)

// Options configures Setup.
type Options struct {
	// Verbosity enables logr V-levels up to this value. 0 logs info and errors.
	Verbosity int
	// JSON switches from the console encoder to JSON lines.
	JSON bool
}

// Setup initializes the global logger. Only the first call has an effect.
func Setup(opts Options) logr.Logger {
	once.Do(func() {
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderCfg.TimeKey = "timestamp"
		encoderCfg.MessageKey = "message"

		var encoder zapcore.Encoder
		if opts.JSON {
			encoder = zapcore.NewJSONEncoder(encoderCfg)
		} else {
			encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
			encoder = zapcore.NewConsoleEncoder(encoderCfg)
		}

		// logr V(n) maps to zap level -n.
		level := zapcore.Level(-int8(max(opts.Verbosity, 0)))
		core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(level))

		globalZap = zap.New(core, zap.AddStacktrace(zap.ErrorLevel))
		l := zapr.NewLogger(globalZap)
		globalLogr = &l
	})
	if globalLogr == nil {
		return discard
	}
	return *globalLogr
}

// Global returns the logger set up by Setup, or a no-op logger.
func Global() logr.Logger {
	if globalLogr != nil {
		return *globalLogr
	}
	return discard
}

// WithLogger attaches log to ctx.
func WithLogger(ctx context.Context, log logr.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger attached to ctx, falling back to Global.
func FromContext(ctx context.Context) logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(logr.Logger); ok {
		return log
	}
	return Global()
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync() {
	if globalZap == nil {
		return
	}
	if err := globalZap.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to sync logger: %v\n", err)
	}
}

// Syncing a terminal or pipe fails with one of these on Linux and macOS.
func isIgnorableSyncError(err error) bool {
	return errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EINVAL) || errors.Is(err, unix.EBADF)
}
