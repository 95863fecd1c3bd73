// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes single value overrides, e.g. TENANTGATE_ISSUANCE_SECRETKEY.
	EnvPrefix = "TENANTGATE"

	// EnvConfigJSON holds a JSON document merged over the file configuration.
	EnvConfigJSON = "TENANTGATE_CONFIG_JSON"

	// DefaultIssuanceTimeout bounds every call to the credential issuance service.
	DefaultIssuanceTimeout = 10 * time.Second

	redacted = "***"
)

var structValidator = validator.New()

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(path + "main.toml")
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	applyDefaults(&c)

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode json config override")
	}

	return c, nil
}

// DumpConfig config as TOML String with secrets redacted.
func DumpConfig(c *Config) (string, error) {
	out, err := toml.Marshal(redact(*c))
	if err != nil {
		return "", err //nolint: wrapcheck
	}

	return string(out), nil
}

// DumpConfigJSON config as JSON String with secrets redacted.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(redact(*c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

func redact(c Config) Config {
	for _, s := range []*string{
		&c.DB.Password,
		&c.Issuance.SecretKey,
		&c.Identity.StackAuth.SecretServerKey,
		&c.Identity.Cache.Redis.Password,
		&c.Identity.Cache.ConnectionURI,
		&c.Log.DataDog.APIKey,
	} {
		if *s != "" {
			*s = redacted
		}
	}

	return c
}

func applyDefaults(c *Config) {
	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if c.Webserver.CheckAliveURI == "" {
		c.Webserver.CheckAliveURI = "/checkalive"
	}

	if c.Issuance.Timeout == 0 {
		c.Issuance.Timeout = DefaultIssuanceTimeout
	}

	if c.Issuance.ProviderName == "" {
		c.Issuance.ProviderName = "dograh"
	}

	if c.Issuance.KeyName == "" {
		c.Issuance.KeyName = "Default Model Service Key"
	}

	if c.Identity.StackAuth.Timeout == 0 {
		c.Identity.StackAuth.Timeout = 10 * time.Second
	}

	if c.Identity.Cache.TTL == 0 {
		c.Identity.Cache.TTL = time.Minute
	}

	if c.Identity.Cache.Table == "" {
		c.Identity.Cache.Table = "identity_cache"
	}
}

// validate the settings the service can not start without.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if err := structValidator.Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if c.DeploymentMode == DeploymentModeHosted && c.Identity.Provider == "" {
		return errors.Wrap(ErrIdentityProviderRequired, invalidErrMessage)
	}

	if c.Issuance.URL == "" {
		return errors.Wrap(ErrIssuanceURLRequired, invalidErrMessage)
	}

	if c.Identity.Cache.Enabled && c.Identity.Cache.Driver == "" {
		return errors.Wrap(ErrCacheDriverRequired, invalidErrMessage)
	}

	return nil
}
