package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// DefaultLogger writes leveled, colored lines to a single writer (stderr by default).
// Standard output is left untouched because the CLI prints its result document there.
//
//	Debug -> gray
//	Info  -> plain
//	Warn  -> yellow
//	Error -> red
//	Fatal -> bold red, then exit(1)
type DefaultLogger struct {
	out       *log.Logger
	mu        *sync.RWMutex
	level     *Level
	fields    Fields
	useColors bool
	exit      func(int)
}

// NewDefaultLogger creates a logger writing to stderr, colored when stderr is a terminal
func NewDefaultLogger() *DefaultLogger {
	return NewWriterLogger(os.Stderr, isTerminal(os.Stderr))
}

// NewWriterLogger creates a logger that writes to w.
func NewWriterLogger(w io.Writer, useColors bool) *DefaultLogger {
	level := InfoLevel
	return &DefaultLogger{
		out:       log.New(w, "", log.LstdFlags),
		mu:        &sync.RWMutex{},
		level:     &level,
		fields:    make(Fields),
		useColors: useColors,
		exit:      os.Exit,
	}
}

// isTerminal reports whether f is attached to a terminal that can render colors
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (d *DefaultLogger) formatMessage(level Level, err error, msg string, fields ...Fields) string {
	allFields := make(Fields)
	maps.Copy(allFields, d.fields)
	for _, f := range fields {
		maps.Copy(allFields, f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level.String(), msg)

	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}

	// sorted so lines are stable across runs
	if len(allFields) > 0 {
		keys := slices.Sorted(maps.Keys(allFields))
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, allFields[k])
		}
		b.WriteString("}")
	}

	logMsg := b.String()
	if d.useColors {
		switch level {
		case DebugLevel:
			logMsg = ColorGray + logMsg + ColorReset
		case WarnLevel:
			logMsg = ColorYellow + logMsg + ColorReset
		case ErrorLevel:
			logMsg = ColorRed + logMsg + ColorReset
		case FatalLevel:
			logMsg = ColorBold + ColorRed + logMsg + ColorReset
		}
	}

	return logMsg
}

func (d *DefaultLogger) enabled(level Level) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return level >= *d.level
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields ...Fields) {
	if !d.enabled(level) {
		return
	}

	d.out.Println(d.formatMessage(level, err, msg, fields...))

	if level == FatalLevel {
		d.exit(1)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields...)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.log(FatalLevel, err, msg, fields...)
}

// WithFields returns a child logger. Children share the parent's level, so a
// SetLevel on the root after children were created still applies to them.
func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields, len(d.fields)+len(fields))
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		out:       d.out,
		mu:        d.mu,
		level:     d.level,
		fields:    newFields,
		useColors: d.useColors,
		exit:      d.exit,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.mu.Lock()
	defer d.mu.Unlock()
	*d.level = level
}

// NoOpLogger discards everything. Tests and library callers that bring no logger use it.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
