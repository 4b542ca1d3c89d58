package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	off
)

var levelNames = [...]string{Debug: "debug", Info: "info", Warn: "warn", Error: "error"}

func (l Level) String() string {
	if l < Debug || l > Error {
		return "info"
	}
	return levelNames[l]
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger writes one logfmt line per call: ts, level, msg, then inherited and call fields.
// The interactive viewer owns the terminal, so its logger points at a file.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Enabled(level Level) bool
}

type Option func(*sink)

// WithClock stamps lines with clock instead of time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *sink) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// sink is shared by a logger and everything derived from it with With.
type sink struct {
	mu    sync.Mutex
	w     io.Writer
	clock func() time.Time
}

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(line)
}

type lineLogger struct {
	sink   *sink
	min    Level
	fields []Field
}

func New(out io.Writer, level Level, opts ...Option) Logger {
	if out == nil {
		out = os.Stderr
	}
	s := &sink{w: out, clock: time.Now}
	for _, o := range opts {
		o(s)
	}
	return &lineLogger{sink: s, min: level}
}

func Nop() Logger {
	return New(io.Discard, off)
}

// OpenFile appends to the log file at path, creating parent dirs. An empty path yields a
// silent logger. The closer must be called on shutdown.
func OpenFile(path string, level Level, opts ...Option) (Logger, io.Closer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Nop(), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return New(f, level, opts...), f, nil
}

func (l *lineLogger) Enabled(level Level) bool {
	return l != nil && level >= l.min
}

func (l *lineLogger) With(fields ...Field) Logger {
	if l == nil {
		return Nop()
	}
	return &lineLogger{
		sink:   l.sink,
		min:    l.min,
		fields: append(l.fields[:len(l.fields):len(l.fields)], fields...),
	}
}

func (l *lineLogger) Debug(msg string, fields ...Field) { l.emit(Debug, msg, fields) }
func (l *lineLogger) Info(msg string, fields ...Field)  { l.emit(Info, msg, fields) }
func (l *lineLogger) Warn(msg string, fields ...Field)  { l.emit(Warn, msg, fields) }
func (l *lineLogger) Error(msg string, fields ...Field) { l.emit(Error, msg, fields) }

func (l *lineLogger) emit(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}
	b := make([]byte, 0, 128)
	b = append(b, "ts="...)
	b = l.sink.clock().UTC().AppendFormat(b, time.RFC3339Nano)
	b = append(b, " level="...)
	b = append(b, level.String()...)
	b = append(b, " msg="...)
	b = appendText(b, msg)
	for _, group := range [2][]Field{l.fields, fields} {
		for _, f := range group {
			b = append(b, ' ')
			b = append(b, f.Key...)
			b = append(b, '=')
			b = appendValue(b, f.Value)
		}
	}
	b = append(b, '\n')
	l.sink.write(b)
}

func appendValue(b []byte, v any) []byte {
	switch v := v.(type) {
	case nil:
		return append(b, "null"...)
	case string:
		return appendText(b, v)
	case error:
		return appendText(b, v.Error())
	case fmt.Stringer:
		return appendText(b, v.String())
	case bool:
		return strconv.AppendBool(b, v)
	case int:
		return strconv.AppendInt(b, int64(v), 10)
	case int64:
		return strconv.AppendInt(b, v, 10)
	case float64:
		return strconv.AppendFloat(b, v, 'g', -1, 64)
	default:
		return appendText(b, fmt.Sprint(v))
	}
}

// appendText quotes values that would otherwise break logfmt tokenising.
func appendText(b []byte, s string) []byte {
	if s == "" {
		return append(b, `""`...)
	}
	if strings.ContainsAny(s, " \t\n\r\"=") {
		return strconv.AppendQuote(b, s)
	}
	return append(b, s...)
}
