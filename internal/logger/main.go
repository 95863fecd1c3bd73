// Package logger configures the global zerolog logger of the service.
package logger

import (
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelWriter splits log output by level.
// Trace, warn and error-and-up each get their own writer, debug and info share one.
type LevelWriter struct {
	io.Writer
	ErrorWriter io.Writer
	InfoWriter  io.Writer
	TraceWriter io.Writer
	WarnWriter  io.Writer
}

// WriteLevel routes p to the writer responsible for level l.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (n int, err error) {
	var w io.Writer

	switch {
	case l == zerolog.Disabled:
		return 0, nil
	case l == zerolog.TraceLevel:
		w = lw.TraceWriter
	case l == zerolog.WarnLevel:
		w = lw.WarnWriter
	case l > zerolog.WarnLevel:
		w = lw.ErrorWriter
	default:
		w = lw.InfoWriter
	}

	if w == nil {
		return len(p), nil
	}

	return w.Write(p) //nolint:wrapcheck
}

// Init the zerolog logger.
// Depending on the config it enables console, rolling files and DataDog shipping.
// The returned io.Closer flushes writers that buffer (DataDog); it is never nil.
func Init(cfg Log) (io.Closer, error) {
	var (
		logLevel, err = zerolog.ParseLevel(cfg.LogLevel)
		writers       []io.Writer
		closers       multiCloser
	)

	if err != nil {
		return closers, errors.Wrapf(ErrUnsupportedLevel, "%q", cfg.LogLevel)
	}

	if cfg.ServiceName == "" {
		return closers, ErrServiceNameIsEmpty
	}

	if cfg.AppName == "" {
		return closers, ErrAppNameIsEmpty
	}

	// stack traces of pkg/errors are only marshaled at trace level
	stack := logLevel == zerolog.TraceLevel
	if stack {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
	}

	zerolog.SetGlobalLevel(logLevel)
	zerolog.ErrorHandler = reportPipelineError //nolint:reassign

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg))
	}

	if cfg.File.Enabled {
		if fw := newRollingFiles(cfg); fw != nil {
			writers = append(writers, fw)
		}
	}

	if cfg.DataDog.Enabled {
		if cfg.DataDog.ServiceName == "" {
			cfg.DataDog.ServiceName = cfg.ServiceName
		}

		dd := NewDataDogWriter(cfg.DataDog)
		writers = append(writers, dd)
		closers = append(closers, dd)
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Hook(levelCounter{service: cfg.ServiceName}).
		With().
		Timestamp().
		Str("app", cfg.AppName)

	switch {
	case cfg.ReportCaller && stack:
		ctx = ctx.Stack().Caller()
	case cfg.ReportCaller:
		ctx = ctx.Caller()
	case stack:
		ctx = ctx.Stack()
	}

	log.Logger = ctx.Logger()

	return closers, nil
}

// RollingFile creates a size rotated file writer below dir. Sizes are in megabytes,
// maxAge in days.
func RollingFile(dir, name string, maxSize, maxAge, maxBackups int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path.Join(dir, name),
		MaxSize:    maxSize,
		MaxAge:     maxAge,
		MaxBackups: maxBackups,
	}
}

// EnsureDir creates the log directory. An empty dir means the working directory.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}

	return errors.Wrap(os.MkdirAll(dir, 0o750), "can't create log directory") //nolint:mnd
}

// newRollingFiles creates one rolling file per level group.
func newRollingFiles(cfg Log) io.Writer {
	f := cfg.File

	if err := EnsureDir(f.Path); err != nil {
		reportPipelineError(err)

		return nil
	}

	return &LevelWriter{
		ErrorWriter: RollingFile(f.Path, f.ErrorLog, f.ErrorMaxSize, f.ErrorMaxAge, f.ErrorMaxBackups),
		InfoWriter:  RollingFile(f.Path, f.InfoLog, f.InfoMaxSize, f.InfoMaxAge, f.InfoMaxBackups),
		TraceWriter: RollingFile(f.Path, f.TraceLog, f.TraceMaxSize, f.TraceMaxAge, f.TraceMaxBackups),
		WarnWriter:  RollingFile(f.Path, f.WarnLog, f.WarnMaxSize, f.WarnMaxAge, f.WarnMaxBackups),
	}
}

// NewConsoleWriter creates the console writer: stdout for debug and info, stderr for the rest.
func NewConsoleWriter(cfg Log) io.Writer {
	out, errOut := io.Writer(os.Stdout), io.Writer(os.Stderr)

	if cfg.Console.UseConsoleWriter {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: zerolog.TimeFieldFormat}
		errOut = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: zerolog.TimeFieldFormat}
	}

	return &LevelWriter{
		ErrorWriter: errOut,
		InfoWriter:  out,
		TraceWriter: errOut,
		WarnWriter:  errOut,
	}
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error

	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
