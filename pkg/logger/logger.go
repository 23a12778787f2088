// Package logger wrapper for zerolog
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Config logger settings
type Config struct {
	Level           string
	TimeFieldFormat string
	PrettyPrint     bool
	ErrorStack      bool
	ShowCaller      bool
	FileName        string
}

// Logger object capable of interacting with Logger
type Logger struct {
	zero    zerolog.Logger
	zeroErr zerolog.Logger
}

var defaultConfig = Config{
	Level:           "debug",
	TimeFieldFormat: time.RFC3339,
	PrettyPrint:     true,
}

// NewDefault creates Logger with default settings
func NewDefault() *Logger {
	l, _ := New(defaultConfig)
	return l
}

// New creates a new Logger. Records of level warn and above go to stderr,
// the rest to stdout; both are copied to FileName when set.
func New(config Config) (*Logger, error) {
	zerolog.SetGlobalLevel(getZerologLevel(config.Level))
	if config.TimeFieldFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFieldFormat
	}
	if config.ErrorStack {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	}

	var out, errOut io.Writer = os.Stdout, os.Stderr
	if config.PrettyPrint {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
		errOut = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	if config.FileName != "" {
		f, err := os.OpenFile(prepareLogFileName(config.FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = zerolog.MultiLevelWriter(out, f)
		errOut = zerolog.MultiLevelWriter(errOut, f)
	}

	l := &Logger{
		zero:    zerolog.New(out).With().Timestamp().Logger(),
		zeroErr: zerolog.New(errOut).With().Timestamp().Logger(),
	}
	if config.ShowCaller {
		l.zero = l.zero.With().Caller().Logger()
		l.zeroErr = l.zeroErr.With().Caller().Logger()
	}
	return l, nil
}

// NewWriter creates a Logger writing JSON records of every level to w.
func NewWriter(w io.Writer) *Logger {
	zero := zerolog.New(w).With().Timestamp().Logger()
	return &Logger{zero: zero, zeroErr: zero}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zero: zerolog.Nop(), zeroErr: zerolog.Nop()}
}

// Debug starts a new message with debug level
func (l *Logger) Debug() *zerolog.Event {
	return l.zero.Debug()
}

// Info starts a new message with info level
func (l *Logger) Info() *zerolog.Event {
	return l.zero.Info()
}

// Warn starts a new message with warn level
func (l *Logger) Warn() *zerolog.Event {
	return l.zeroErr.Warn()
}

// Error starts a new message with error level
func (l *Logger) Error() *zerolog.Event {
	return l.zeroErr.Error()
}

// Fatalf sends the event with formatted msg with fatal level
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.zeroErr.Fatal().Msgf(format, v...)
}

// Printf sends the event with formatted msg with debug level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.zero.Debug().Msgf(format, v...)
}

// With returns a child logger carrying key=value on every record.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{
		zero:    l.zero.With().Str(key, value).Logger(),
		zeroErr: l.zeroErr.With().Str(key, value).Logger(),
	}
}

func getZerologLevel(lvl string) zerolog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled":
		return zerolog.Disabled
	}
	return zerolog.NoLevel
}

// prepareLogFileName expands %Y, %M, %D and %H in pattern.
func prepareLogFileName(pattern string) string {
	cur := time.Now()
	pattern = strings.ReplaceAll(pattern, "%Y", cur.Format("2006"))
	pattern = strings.ReplaceAll(pattern, "%M", cur.Format("01"))
	pattern = strings.ReplaceAll(pattern, "%D", cur.Format("02"))
	pattern = strings.ReplaceAll(pattern, "%H", cur.Format("15"))
	return pattern
}
