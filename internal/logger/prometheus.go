package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// logEvents counts emitted log events by service and level.
var logEvents = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: "tenantgate",
		Name:      "log_events_total",
		Help:      "Log events emitted, by service and level.",
	},
	[]string{"service", "level"},
)

// levelCounter is a zerolog hook incrementing logEvents for every leveled event.
type levelCounter struct {
	service string
}

func (h levelCounter) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}

	logEvents.WithLabelValues(h.service, level.String()).Inc()
}
