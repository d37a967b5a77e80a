package config

import (
	"net/url"
	"strings"
	"time"

	enginerrors "github.com/alexeyismirnov/deep-crawl/internal/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateSite(); err != nil {
		return err
	}
	if err := cv.validateSource(); err != nil {
		return err
	}
	if err := cv.validateOutput(); err != nil {
		return err
	}
	if err := cv.validateBuild(); err != nil {
		return err
	}
	if err := cv.validateEvents(); err != nil {
		return err
	}
	if err := cv.validateWatch(); err != nil {
		return err
	}
	return cv.validateLogging()
}

func (cv *configurationValidator) validateSite() error {
	base := cv.config.Site.BaseURL
	if base == "" {
		return enginerrors.ConfigRequired("site.base_url")
	}

	u, err := url.Parse(base)
	if err != nil {
		return enginerrors.ValidationFailed("site.base_url", "not a valid URL: "+err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return enginerrors.ValidationFailed("site.base_url", "scheme must be http or https")
	}
	if u.Host == "" {
		return enginerrors.ValidationFailed("site.base_url", "host is required")
	}

	if cv.config.Site.Title == "" {
		return enginerrors.ConfigRequired("site.title")
	}
	return nil
}

func (cv *configurationValidator) validateSource() error {
	if cv.config.Source.Corpus == "" {
		return enginerrors.ConfigRequired("source.corpus")
	}

	for _, ext := range cv.config.Source.SkipExtensions {
		if !strings.HasPrefix(ext, ".") {
			return enginerrors.ValidationFailed("source.skip_extensions", "extension must start with a dot: "+ext)
		}
	}
	if cv.config.Source.MaxDepth < 0 {
		return enginerrors.ValidationFailed("source.max_depth", "must not be negative")
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	if cv.config.Output.Directory == "" {
		return enginerrors.ConfigRequired("output.directory")
	}
	if strings.ContainsAny(cv.config.Output.Report, `/\`) {
		return enginerrors.ValidationFailed("output.report", "must be a bare file name")
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	if cv.config.Build.Workers < 0 {
		return enginerrors.ValidationFailed("build.workers", "must not be negative")
	}
	return nil
}

func (cv *configurationValidator) validateEvents() error {
	if !cv.config.Events.Enabled {
		return nil
	}
	if cv.config.Events.URL == "" {
		return enginerrors.ConfigRequired("events.url")
	}
	if cv.config.Events.Subject == "" {
		return enginerrors.ConfigRequired("events.subject")
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	if cv.config.Watch.Interval != "" {
		interval, err := time.ParseDuration(cv.config.Watch.Interval)
		if err != nil {
			return enginerrors.ValidationFailed("watch.interval", "not a duration: "+cv.config.Watch.Interval)
		}
		if interval <= 0 {
			return enginerrors.ValidationFailed("watch.interval", "must be positive")
		}
	}
	if cv.config.Watch.Debounce != "" {
		debounce, err := time.ParseDuration(cv.config.Watch.Debounce)
		if err != nil {
			return enginerrors.ValidationFailed("watch.debounce", "not a duration: "+cv.config.Watch.Debounce)
		}
		if debounce <= 0 {
			return enginerrors.ValidationFailed("watch.debounce", "must be positive")
		}
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	if _, err := logLevelNormalizer.normalizeWithError(cv.config.Logging.Level); err != nil {
		return enginerrors.ValidationFailed("logging.level", err.Error())
	}
	if _, err := logFormatNormalizer.normalizeWithError(cv.config.Logging.Format); err != nil {
		return enginerrors.ValidationFailed("logging.format", err.Error())
	}
	return nil
}

// WatchInterval returns the parsed periodic rebuild interval, zero when
// watch.interval is unset. Call after ValidateConfig.
func (c *Config) WatchInterval() time.Duration {
	if c.Watch.Interval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Watch.Interval)
	if err != nil {
		return 0
	}
	return d
}

// WatchDebounce returns the parsed debounce window. Call after ValidateConfig.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 2 * time.Second
	}
	return d
}
