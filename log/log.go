// Package log is a small leveled logger in the call style the rest of
// this module uses throughout: log.Info().Msgf("...", v...). It was
// trimmed down from a larger pluggable-backend logger to the single
// concrete implementation this server actually drives — one writer, one
// level, one line format — since nothing here ever swaps loggers at
// runtime.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is the severity of a log line. Lines below the logger's
// configured level are dropped before any formatting work happens.
type Level int8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
	FatalLevel: "FATAL",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", l)
}

// Logger writes leveled, timestamped lines to a single writer.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
	level  Level
	buf    []byte
}

// New creates a Logger writing to writer at the given level. A nil
// writer defaults to os.Stdout.
func New(writer io.Writer, level Level) *Logger {
	if writer == nil {
		writer = os.Stdout
	}
	return &Logger{writer: writer, level: level, buf: make([]byte, 0, 256)}
}

func (l *Logger) SetLevel(level Level) { l.level = level }
func (l *Logger) SetOutput(w io.Writer) { l.writer = w }

// Event is an in-progress log line. A nil *Event (returned when the
// line's level is filtered out) absorbs every call and writes nothing,
// so call sites never need to guard log.Debug() behind a level check.
type Event struct {
	logger *Logger
	level  Level
	err    error
}

func (l *Logger) eventAt(level Level) *Event {
	if level < l.level {
		return nil
	}
	return &Event{logger: l, level: level}
}

func (l *Logger) Debug() *Event { return l.eventAt(DebugLevel) }
func (l *Logger) Info() *Event  { return l.eventAt(InfoLevel) }
func (l *Logger) Warn() *Event  { return l.eventAt(WarnLevel) }
func (l *Logger) Error() *Event { return l.eventAt(ErrorLevel) }
func (l *Logger) Fatal() *Event { return &Event{logger: l, level: FatalLevel} }

// Err attaches an error to the event; it is appended after the message.
func (e *Event) Err(err error) *Event {
	if e == nil {
		return nil
	}
	e.err = err
	return e
}

func (e *Event) Msg(msg string) {
	if e == nil {
		return
	}
	l := e.logger
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = appendPrefix(l.buf[:0], e.level)
	l.buf = append(l.buf, msg...)
	l.buf = e.appendErr(l.buf)
	l.buf = append(l.buf, '\n')
	l.writer.Write(l.buf)
}

func (e *Event) Msgf(format string, v ...interface{}) {
	if e == nil {
		return
	}
	l := e.logger
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = appendPrefix(l.buf[:0], e.level)
	l.buf = appendFormatted(l.buf, format, v)
	l.buf = e.appendErr(l.buf)
	l.buf = append(l.buf, '\n')
	l.writer.Write(l.buf)
}

func (e *Event) appendErr(buf []byte) []byte {
	if e.err == nil {
		return buf
	}
	buf = append(buf, ": "...)
	return append(buf, e.err.Error()...)
}

// appendPrefix writes "2006-01-02 15:04:05 | LEVEL | " straight into buf
// without going through time.Format or fmt, since this runs on every
// log call on the hot path of every accepted connection.
func appendPrefix(buf []byte, level Level) []byte {
	now := time.Now()
	year, month, day := now.Date()
	hour, min, sec := now.Clock()

	buf = appendPadded4(buf, year)
	buf = append(buf, '-')
	buf = appendPadded2(buf, int(month))
	buf = append(buf, '-')
	buf = appendPadded2(buf, day)
	buf = append(buf, ' ')
	buf = appendPadded2(buf, hour)
	buf = append(buf, ':')
	buf = appendPadded2(buf, min)
	buf = append(buf, ':')
	buf = appendPadded2(buf, sec)
	buf = append(buf, " | "...)
	buf = append(buf, coloredLevelTag(level)...)
	buf = append(buf, " | "...)
	return buf
}

func appendPadded2(buf []byte, n int) []byte {
	if n < 10 {
		return append(buf, '0', byte('0'+n))
	}
	return append(buf, byte('0'+n/10), byte('0'+n%10))
}

func appendPadded4(buf []byte, n int) []byte {
	return append(buf,
		byte('0'+n/1000%10), byte('0'+n/100%10), byte('0'+n/10%10), byte('0'+n%10))
}

// appendFormatted supports the small set of verbs this server's log
// call sites actually use (%s, %d, %v); anything else falls back to
// fmt.Sprint so no call site silently loses data.
func appendFormatted(buf []byte, format string, v []interface{}) []byte {
	argIndex := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			buf = append(buf, format[i])
			continue
		}
		if argIndex >= len(v) {
			buf = append(buf, format[i])
			continue
		}
		switch format[i+1] {
		case 's':
			if s, ok := v[argIndex].(string); ok {
				buf = append(buf, s...)
			} else {
				buf = append(buf, fmt.Sprint(v[argIndex])...)
			}
			argIndex++
			i++
		case 'd':
			buf = appendInt(buf, v[argIndex])
			argIndex++
			i++
		case 'v':
			buf = append(buf, fmt.Sprint(v[argIndex])...)
			argIndex++
			i++
		default:
			buf = append(buf, fmt.Sprint(v[argIndex])...)
			argIndex++
			i++
		}
	}
	return buf
}

func appendInt(buf []byte, v interface{}) []byte {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case uint8:
		n = int64(x)
	default:
		return append(buf, fmt.Sprint(v)...)
	}
	return strconvAppendInt(buf, n)
}

func strconvAppendInt(buf []byte, n int64) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	if n < 0 {
		buf = append(buf, '-')
		n = -n
	}
	var tmp [20]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
	}
	return append(buf, tmp[i:]...)
}

var defaultLogger = New(os.Stdout, InfoLevel)

func Debug() *Event { return defaultLogger.Debug() }
func Info() *Event  { return defaultLogger.Info() }
func Warn() *Event  { return defaultLogger.Warn() }
func Error() *Event { return defaultLogger.Error() }
func Fatal() *Event { return defaultLogger.Fatal() }

func SetLevel(level Level) { defaultLogger.SetLevel(level) }
func SetOutput(w io.Writer) { defaultLogger.SetOutput(w) }
