package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Basic writes `level msg key=value ...` lines to an io.Writer.
type Basic struct {
	mu     *sync.Mutex
	out    io.Writer
	fields []Field
}

var _ Logger = (*Basic)(nil)

// New returns a basic logger writing to stdout.
func New() *Basic {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter returns a basic logger writing to the given writer.
func NewWithWriter(out io.Writer) *Basic {
	return &Basic{mu: &sync.Mutex{}, out: out}
}

func (l *Basic) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	next := &Basic{mu: l.mu, out: l.out}
	next.fields = append(next.fields, l.fields...)
	next.fields = append(next.fields, fields...)
	return next
}

func (l *Basic) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields) }
func (l *Basic) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields) }
func (l *Basic) Warn(msg string, fields ...Field)  { l.log("WARN", msg, fields) }
func (l *Basic) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields) }

func (l *Basic) log(level, msg string, fields []Field) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", level, msg)
	for _, f := range l.fields {
		fmt.Fprintf(&sb, " %s=%v", f.Key, f.Value)
	}
	for _, f := range fields {
		fmt.Fprintf(&sb, " %s=%v", f.Key, f.Value)
	}
	sb.WriteByte('\n')
	l.mu.Lock()
	_, _ = io.WriteString(l.out, sb.String())
	l.mu.Unlock()
}
