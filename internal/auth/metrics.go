package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	pathAPIKey   = "api_key"
	pathOSS      = "oss"
	pathProvider = "provider"

	provisionOK      = "ok"
	provisionFailed  = "failed"
	provisionSkipped = "skipped"
)

var (
	resolutions = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "tenantgate_auth_resolutions_total",
			Help: "Number of credential resolutions by path and result.",
		},
		[]string{"path", "result"},
	)

	organizationsCreated = promauto.NewCounter( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "tenantgate_organizations_created_total",
			Help: "Number of organizations created on first touch.",
		},
	)

	provisionings = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "tenantgate_provisionings_total",
			Help: "Number of default configuration provisioning attempts by result.",
		},
		[]string{"result"},
	)
)

func observeResolution(path string, err error) {
	result := "ok"
	if err != nil {
		result = KindOf(err).String()
	}

	resolutions.WithLabelValues(path, result).Inc()
}
