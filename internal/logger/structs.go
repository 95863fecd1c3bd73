package logger

import (
	"time"
)

// Console implements a console based logger.
type Console struct {
	Enabled          bool `toml:"enabled" mapstructure:"enabled"`
	UseConsoleWriter bool
}

// LogFile implements a file based logger with one rolling file per level group.
type LogFile struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Path    string `toml:"path" mapstructure:"path"`

	AccessLog        string `toml:"access" mapstructure:"access"`
	AccessMaxSize    int    `toml:"accessMaxSize" mapstructure:"accessMaxSize"`
	AccessMaxBackups int    `toml:"accessMaxBackups" mapstructure:"accessMaxBackups"`
	AccessMaxAge     int    `toml:"accessMaxAge" mapstructure:"accessMaxAge"`

	ErrorLog        string `toml:"error" mapstructure:"error"`
	ErrorMaxSize    int    `toml:"errorMaxSize" mapstructure:"errorMaxSize"`
	ErrorMaxBackups int    `toml:"errorMaxBackups" mapstructure:"errorMaxBackups"`
	ErrorMaxAge     int    `toml:"errorMaxAge" mapstructure:"errorMaxAge"`

	InfoLog        string `toml:"info" mapstructure:"info"`
	InfoMaxSize    int    `toml:"infoMaxSize" mapstructure:"infoMaxSize"`
	InfoMaxBackups int    `toml:"infoMaxBackups" mapstructure:"infoMaxBackups"`
	InfoMaxAge     int    `toml:"infoMaxAge" mapstructure:"infoMaxAge"`

	TraceLog        string `toml:"trace" mapstructure:"trace"`
	TraceMaxSize    int    `toml:"traceMaxSize" mapstructure:"traceMaxSize"`
	TraceMaxBackups int    `toml:"traceMaxBackups" mapstructure:"traceMaxBackups"`
	TraceMaxAge     int    `toml:"traceMaxAge" mapstructure:"traceMaxAge"`

	WarnLog        string `toml:"warn" mapstructure:"warn"`
	WarnMaxSize    int    `toml:"warnMaxSize" mapstructure:"warnMaxSize"`
	WarnMaxBackups int    `toml:"warnMaxBackups" mapstructure:"warnMaxBackups"`
	WarnMaxAge     int    `toml:"warnMaxAge" mapstructure:"warnMaxAge"`
}

// DataDog implements a datadog log shipping config.
type DataDog struct {
	ServiceName string `toml:"serviceName" mapstructure:"serviceName"`
	// APIKey defined at datadog.
	APIKey  string `toml:"apiKey" mapstructure:"apiKey"`
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	// Site is the regional site aka DD_SITE ("datadoghq.eu").
	Site string `toml:"site" mapstructure:"site"`
	// Tags are comma separated ddtags.
	Tags string `toml:"tags" mapstructure:"tags"`
	// Timeout bounds the submission of one log entry.
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string // info, warn, error.
	LogEnv   string

	// EnableAccessLogToConsole if true the webservice access log is written to console.
	// Does not overrule flag Console.Enabled!
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log /checkalive calls

	AppName     string
	ServiceName string

	// Console used mainly for docker and dev.
	Console Console

	// File based logging for non container deployments.
	File LogFile `toml:"file" mapstructure:"file"`

	// DataDog log shipping.
	DataDog DataDog
}
