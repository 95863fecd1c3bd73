package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrIdentityProviderRequired is returned when hosted mode has no identity provider configured.
	ErrIdentityProviderRequired = errors.New("config identity.provider is required in hosted mode")

	// ErrIssuanceURLRequired is returned when no credential issuance url is configured.
	ErrIssuanceURLRequired = errors.New("config issuance.url can not be empty")

	// ErrCacheDriverRequired is returned when the identity cache is enabled without a driver.
	ErrCacheDriverRequired = errors.New("config identity.cache.driver is required when the cache is enabled")
)
