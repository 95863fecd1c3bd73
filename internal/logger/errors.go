package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned when Log.AppName is not set.
	ErrAppNameIsEmpty = errors.New("log app name is required")

	// ErrServiceNameIsEmpty is returned when Log.ServiceName is not set.
	ErrServiceNameIsEmpty = errors.New("log service name is required")

	// ErrUnsupportedLevel is returned for a Log.LogLevel zerolog cannot parse.
	ErrUnsupportedLevel = errors.New("unsupported log level")
)

// pipelineErrors receives failures of the log pipeline itself. The logger can't
// report on its own writers, so these go straight to stderr.
var pipelineErrors io.Writer = os.Stderr //nolint:gochecknoglobals

func reportPipelineError(err error) {
	_, _ = fmt.Fprintf(pipelineErrors, "tenantgate logger: %v\n", err)
}
