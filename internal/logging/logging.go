// Package logging builds the structured go-kit loggers used by the API server and the CLI.
package logging

import (
	"fmt"
	"io"
	"time"

	gokitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New creates a logger writing to w in the given format ("logfmt" or "json").
// Every line carries a UTC timestamp and the caller. Debug lines are dropped
// unless verbose is set.
func New(w io.Writer, format string, verbose bool) (gokitlog.Logger, error) {
	var logger gokitlog.Logger
	switch format {
	case "", "logfmt":
		logger = gokitlog.NewLogfmtLogger(gokitlog.NewSyncWriter(w))
	case "json":
		logger = gokitlog.NewJSONLogger(gokitlog.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	if verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	// The caller valuer must be bound last so its stack depth is correct.
	logger = gokitlog.With(logger, "ts", gokitlog.DefaultTimestampUTC, "caller", gokitlog.DefaultCaller)
	return logger, nil
}

// Nop returns a logger that discards everything.
func Nop() gokitlog.Logger {
	return gokitlog.NewNopLogger()
}

// TimeFunction wraps fn with start and completion log lines carrying the elapsed time.
func TimeFunction(logger gokitlog.Logger, name string, fn func() error) error {
	start := time.Now()
	level.Debug(logger).Log("msg", "starting", "op", name)

	err := fn()

	elapsed := time.Since(start)
	if err != nil {
		level.Error(logger).Log("msg", "failed", "op", name, "err", err, "took", elapsed)
	} else {
		level.Info(logger).Log("msg", "completed", "op", name, "took", elapsed)
	}
	return err
}
