// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSize    = 10 // MB
	logMaxBackups = 5
	logMaxAge     = 28 // days
)

// Options configure New.
type Options struct {
	Level string
	// File, when set, receives a copy of every line through a rotating writer.
	File   string
	Output io.Writer
}

// New returns a logger and installs it as the package default so components
// built without an explicit logger share it.
func New(opts Options) (*log.Logger, error) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var w io.Writer = os.Stderr
	if opts.Output != nil {
		w = opts.Output
	}
	if opts.File != "" {
		w = io.MultiWriter(w, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAge,
		})
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	log.SetDefault(logger)
	return logger, nil
}
