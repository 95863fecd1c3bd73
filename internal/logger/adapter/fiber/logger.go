// Package fiber provides the zerolog access log middleware of the web service.
package fiber

import (
	"io"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/logger"
)

// HeaderServerTiming carries the handler latency of every response.
const HeaderServerTiming = "Server-Timing"

// Config of the access log middleware.
type Config struct {
	// Log selects the access log targets: the rolling access file and, when
	// EnableAccessLogToConsole is set, the console.
	Log logger.Log

	// CheckAliveURI is not logged when Log.DisableCheckAlive is set.
	CheckAliveURI string

	// Skip bypasses the middleware for a request.
	Skip func(c *fiber.Ctx) bool

	// RedactQuery lists query parameters whose values are replaced before logging.
	// Defaults to DefaultRedactQuery when nil.
	RedactQuery []string

	// Fields adds request specific fields once the handler chain ran,
	// e.g. the resolved user and organization.
	Fields func(c *fiber.Ctx, e *zerolog.Event)
}

// DefaultRedactQuery are the credential carrying query parameters.
var DefaultRedactQuery = []string{"token", "api_key"} //nolint:gochecknoglobals

const redacted = "REDACTED"

// requestHeaders are copied into the entry when present.
var requestHeaders = [...]struct{ header, field string }{ //nolint:gochecknoglobals
	{fiber.HeaderUserAgent, "user_agent"},
	{fiber.HeaderXForwardedFor, "forwarded_for"},
	{fiber.HeaderOrigin, "origin"},
	{fiber.HeaderReferer, "referer"},
}

// New creates the access log middleware. Errors of the chain are rendered by the
// app's ErrorHandler before the entry is written, so the logged status is final.
func New(cfg Config) fiber.Handler {
	access := zerolog.New(output(cfg.Log)).With().Timestamp().Logger()

	if cfg.RedactQuery == nil {
		cfg.RedactQuery = DefaultRedactQuery
	}

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		chainErr := c.Next()

		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				c.Response().Header.Set(fiber.HeaderCacheControl, "no-store")
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		latency := time.Since(start)
		c.Set(HeaderServerTiming, "app;dur="+strconv.FormatFloat(float64(latency.Microseconds())/1000, 'f', 3, 64))

		if cfg.Log.DisableCheckAlive && cfg.CheckAliveURI != "" && c.Path() == cfg.CheckAliveURI {
			return nil
		}

		uri := c.Path()
		if qs := redactQuery(c, cfg.RedactQuery); qs != "" {
			uri += "?" + qs
		}

		e := access.Log().
			Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("uri", uri).
			Bytes("host", c.Request().Host()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", latency)

		for _, h := range requestHeaders {
			if v := c.Get(h.header); v != "" {
				e.Str(h.field, v)
			}
		}

		if cfg.Fields != nil {
			cfg.Fields(c, e)
		}

		e.Err(chainErr).Send()

		return nil
	}
}

// redactQuery renders the query string with the values of the keys in redact replaced.
func redactQuery(c *fiber.Ctx, redact []string) string {
	args := c.Request().URI().QueryArgs()
	if args.Len() == 0 {
		return ""
	}

	var b strings.Builder

	args.VisitAll(func(key, value []byte) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}

		k := string(key)
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')

		if slices.Contains(redact, k) {
			b.WriteString(redacted)
		} else {
			b.WriteString(url.QueryEscape(string(value)))
		}
	})

	return b.String()
}

// output builds the access log writer. Without any target the entries are discarded.
func output(cfg logger.Log) io.Writer {
	var writers []io.Writer

	if cfg.File.Enabled {
		if err := logger.EnsureDir(cfg.File.Path); err != nil {
			log.Error().Err(err).Str("path", cfg.File.Path).Msg("access log file disabled")
		} else {
			writers = append(writers, logger.RollingFile(cfg.File.Path, cfg.File.AccessLog,
				cfg.File.AccessMaxSize, cfg.File.AccessMaxAge, cfg.File.AccessMaxBackups))
		}
	}

	if cfg.Console.Enabled && cfg.EnableAccessLogToConsole {
		if cfg.Console.UseConsoleWriter {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{zerolog.LevelFieldName},
			})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	if len(writers) == 0 {
		return io.Discard
	}

	return zerolog.MultiLevelWriter(writers...)
}
