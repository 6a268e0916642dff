package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/kilianp07/leafdash/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger tagged with the given component.
//
//	APP_ENV=dev      console output instead of JSON
//	LOG_LEVEL        debug, info, warn or error
//	LOG_FILE         also append JSON lines to this file, rotated at 20 MB
func New(component string) Logger {
	return NewZerologLogger(component)
}

var (
	outOnce sync.Once
	out     io.Writer
)

// output is shared by every component so LOG_FILE is opened once.
func output() io.Writer {
	outOnce.Do(func() {
		out = outputFor(os.Getenv("APP_ENV"), os.Getenv("LOG_FILE"))
	})
	return out
}

func outputFor(env, file string) io.Writer {
	var console io.Writer = os.Stdout
	if strings.ToLower(env) == "dev" {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	if file == "" {
		return console
	}
	return zerolog.MultiLevelWriter(console, &lumberjack.Logger{
		Filename:   file,
		MaxSize:    20,
		MaxBackups: 3,
	})
}
