package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// APIPath prefixes all JSON endpoints.
	APIPath = RootPath + "api/v1/"

	// ErrNilACDFatalLogMsg is used if app, cfg or deps var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or deps is nil"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25
	// MaxPageSize caps the pageSize query value.
	MaxPageSize = 100
)
