// Package stdlogger adapts the global zerolog logger to printf style logger
// interfaces such as gorm's logger.Writer.
package stdlogger

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger forwards printf style calls to the global zerolog logger.
type Logger struct {
	// PrintLevel is the level used by Printf.
	PrintLevel zerolog.Level
	component  string
}

// New creates a Logger whose Printf logs at debug level.
func New() *Logger {
	return &Logger{PrintLevel: zerolog.DebugLevel}
}

// NewComponent creates a Logger tagging every entry with a component field.
func NewComponent(component string, printLevel zerolog.Level) *Logger {
	return &Logger{PrintLevel: printLevel, component: component}
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	e := log.WithLevel(level)
	if l.component != "" {
		e = e.Str("component", l.component)
	}

	return e
}

// Printf implements gorm's logger.Writer.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.event(l.PrintLevel).Msgf(format, v...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.event(zerolog.DebugLevel).Msgf(format, v...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.event(zerolog.InfoLevel).Msgf(format, v...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, v ...interface{}) {
	l.event(zerolog.WarnLevel).Msgf(format, v...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.event(zerolog.ErrorLevel).Msgf(format, v...)
}
