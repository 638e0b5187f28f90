package trust

import (
	"fmt"
	"io"
	"os"
)

type MaskLevel int

const (
	Nothing   MaskLevel = 0x0
	ErrorMask MaskLevel = 0x1
	WarnMask  MaskLevel = 0x2
	InfoMask  MaskLevel = 0x4
	DebugMask MaskLevel = 0x8
	StatsMask MaskLevel = 0x10
	fatalMask MaskLevel = 0x80

	All = ErrorMask | WarnMask | InfoMask | DebugMask | StatsMask
)

// Logger writes levelled, line oriented messages to an io.Writer. On the
// board the writer is the UART console; Fatalf ends in the exit hook, which
// the runtime points at its halt.
type Logger struct {
	out   io.Writer
	level MaskLevel
	exit  func(code int)
}

func NewLogger(out io.Writer) *Logger {
	return &Logger{out: out, level: fatalMask | All, exit: os.Exit}
}

// Default backs the package level functions.
var Default = NewLogger(os.Stdout)

func (l *Logger) SetOutput(w io.Writer) {
	l.out = w
}

// SetExit replaces what Fatalf calls after printing.
func (l *Logger) SetExit(exit func(code int)) {
	l.exit = exit
}

// SetLevel lets you set an error mask directly. You can pass in something like
// ErrorMask | DebugMask to control exactly what gets printed.  It returns the
// previous mask.
func (l *Logger) SetLevel(mask MaskLevel) MaskLevel {
	if mask&All == 0 {
		fmt.Fprintf(l.out, " WARN: trust.SetLevel is turning off log messages\n")
	}
	r := l.level & All
	l.level = mask&All | fatalMask
	return r
}

func (l *Logger) Level() MaskLevel {
	return l.level & All
}

func (l *Logger) LevelToString() string {
	result := ""
	for _, n := range []struct {
		m    MaskLevel
		name string
	}{{ErrorMask, "error"}, {WarnMask, "warn"}, {InfoMask, "info"}, {DebugMask, "debug"}, {StatsMask, "stats"}} {
		if l.level&n.m == 0 {
			continue
		}
		if result != "" {
			result += " "
		}
		result += n.name
	}
	return result
}

func (l *Logger) logf(m MaskLevel, format string, params ...interface{}) {
	if l.level&m == 0 {
		return
	}
	switch {
	case m&fatalMask > 0:
		fmt.Fprint(l.out, "FATAL:")
	case m&ErrorMask > 0:
		fmt.Fprint(l.out, "ERROR:")
	case m&WarnMask > 0:
		fmt.Fprint(l.out, " WARN:")
	case m&InfoMask > 0:
		fmt.Fprint(l.out, " INFO:")
	case m&DebugMask > 0:
		fmt.Fprint(l.out, "DEBUG:")
	case m&StatsMask > 0:
		s, ok := params[0].(string)
		if !ok {
			s = "unknown"
		}
		fmt.Fprintf(l.out, "STATS[%s]:", s)
		params = params[1:]
	}
	if len(format) == 0 {
		format = "\n"
	} else if format[len(format)-1] != '\n' {
		format += "\n"
	}
	fmt.Fprintf(l.out, format, params...)
}

//Fatalf prints the given log message (format + params) and then calls the
//exit hook with the exitCode provided.  Fatalf is not maskable.
func (l *Logger) Fatalf(exitCode int, format string, params ...interface{}) {
	l.logf(fatalMask, format, params...)
	l.exit(exitCode)
}

//Errorf prints the given log message (format + params) using the ErrorMask level.
func (l *Logger) Errorf(format string, params ...interface{}) {
	l.logf(ErrorMask, format, params...)
}

//Warnf prints the given log message (format + params) using the WarnMask level.
func (l *Logger) Warnf(format string, params ...interface{}) {
	l.logf(WarnMask, format, params...)
}

//Infof prints the given log message (format + params) using the InfoMask level.
func (l *Logger) Infof(format string, params ...interface{}) {
	l.logf(InfoMask, format, params...)
}

//Debugf prints the given log message (format + params) using the DebugMask level.
func (l *Logger) Debugf(format string, params ...interface{}) {
	l.logf(DebugMask, format, params...)
}

//Statsf prints the given log message (format + params) using the StatsMask level and
//takes an extra parameter that will be visible in the log message as the category
//of stats that is reported.
func (l *Logger) Statsf(category string, format string, params ...interface{}) {
	l.logf(StatsMask, format, append([]interface{}{category}, params...)...)
}

func SetLevel(mask MaskLevel) MaskLevel { return Default.SetLevel(mask) }
func Level() MaskLevel { return Default.Level() }
func LevelToString() string { return Default.LevelToString() }

func Fatalf(exitCode int, format string, params ...interface{}) {
	Default.Fatalf(exitCode, format, params...)
}
func Errorf(format string, params ...interface{}) { Default.Errorf(format, params...) }
func Warnf(format string, params ...interface{}) { Default.Warnf(format, params...) }
func Infof(format string, params ...interface{}) { Default.Infof(format, params...) }
func Debugf(format string, params ...interface{}) { Default.Debugf(format, params...) }
func Statsf(category string, format string, params ...interface{}) {
	Default.Statsf(category, format, params...)
}
