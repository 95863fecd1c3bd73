package logger

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"github.com/pkg/errors"
)

const (
	dataDogQueueSize      = 1024
	dataDogDefaultTimeout = 5 * time.Second
	dataDogSource         = "go"
)

// logSubmitter is the part of datadogV2.LogsApi used by DataDogWriter.
type logSubmitter interface {
	SubmitLog(
		ctx context.Context,
		body []datadogV2.HTTPLogItem,
		o ...datadogV2.SubmitLogOptionalParameters,
	) (interface{}, *http.Response, error)
}

// DataDogWriter ships every written log line to the DataDog logs intake.
// Lines are queued and submitted by a single background goroutine; when the
// queue is full new lines are dropped rather than blocking the caller.
type DataDogWriter struct {
	api      logSubmitter
	ctx      context.Context
	cfg      DataDog
	hostname string
	queue    chan []byte
	done     chan struct{}
}

// NewDataDogWriter creates a writer submitting through the official DataDog API client.
func NewDataDogWriter(cfg DataDog) *DataDogWriter {
	client := datadog.NewAPIClient(datadog.NewConfiguration())

	ctx := context.WithValue(
		context.Background(),
		datadog.ContextAPIKeys,
		map[string]datadog.APIKey{"apiKeyAuth": {Key: cfg.APIKey}},
	)

	if cfg.Site != "" {
		ctx = context.WithValue(ctx, datadog.ContextServerVariables, map[string]string{"site": cfg.Site})
	}

	return newDataDogWriter(ctx, datadogV2.NewLogsApi(client), cfg)
}

func newDataDogWriter(ctx context.Context, api logSubmitter, cfg DataDog) *DataDogWriter {
	if cfg.Timeout == 0 {
		cfg.Timeout = dataDogDefaultTimeout
	}

	hostname, _ := os.Hostname()

	w := &DataDogWriter{
		api:      api,
		ctx:      ctx,
		cfg:      cfg,
		hostname: hostname,
		queue:    make(chan []byte, dataDogQueueSize),
		done:     make(chan struct{}),
	}

	go w.run()

	return w
}

// Write queues a copy of p for submission.
func (w *DataDogWriter) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)

	select {
	case w.queue <- line:
	default:
	}

	return len(p), nil
}

// Close flushes queued lines and stops the background goroutine.
func (w *DataDogWriter) Close() error {
	close(w.queue)
	<-w.done

	return nil
}

func (w *DataDogWriter) run() {
	defer close(w.done)

	for line := range w.queue {
		item := datadogV2.HTTPLogItem{
			Ddsource: datadog.PtrString(dataDogSource),
			Hostname: datadog.PtrString(w.hostname),
			Message:  string(line),
			Service:  datadog.PtrString(w.cfg.ServiceName),
		}

		if w.cfg.Tags != "" {
			item.Ddtags = datadog.PtrString(w.cfg.Tags)
		}

		ctx, cancel := context.WithTimeout(w.ctx, w.cfg.Timeout)
		_, _, err := w.api.SubmitLog(ctx, []datadogV2.HTTPLogItem{item})
		cancel()

		if err != nil {
			reportPipelineError(errors.Wrap(err, "datadog submit"))
		}
	}
}
