package config

import (
	"testing"

	enginerrors "github.com/alexeyismirnov/deep-crawl/internal/errors"
)

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	if err := ValidateConfig(validConfig()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateConfigRejections(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*Config)
		category enginerrors.ErrorCategory
	}{
		{
			name:     "empty base url",
			mutate:   func(c *Config) { c.Site.BaseURL = "" },
			category: enginerrors.CategoryConfig,
		},
		{
			name:     "ftp base url",
			mutate:   func(c *Config) { c.Site.BaseURL = "ftp://orthodox.cn/" },
			category: enginerrors.CategoryValidation,
		},
		{
			name:     "base url without host",
			mutate:   func(c *Config) { c.Site.BaseURL = "https:///news/" },
			category: enginerrors.CategoryValidation,
		},
		{
			name:     "empty title",
			mutate:   func(c *Config) { c.Site.Title = "" },
			category: enginerrors.CategoryConfig,
		},
		{
			name:     "empty corpus",
			mutate:   func(c *Config) { c.Source.Corpus = "" },
			category: enginerrors.CategoryConfig,
		},
		{
			name:     "extension without dot",
			mutate:   func(c *Config) { c.Source.SkipExtensions = []string{"pdf"} },
			category: enginerrors.CategoryValidation,
		},
		{
			name:     "negative depth",
			mutate:   func(c *Config) { c.Source.MaxDepth = -1 },
			category: enginerrors.CategoryValidation,
		},
		{
			name:     "report with path separator",
			mutate:   func(c *Config) { c.Output.Report = "reports/run" },
			category: enginerrors.CategoryValidation,
		},
		{
			name:     "negative workers",
			mutate:   func(c *Config) { c.Build.Workers = -2 },
			category: enginerrors.CategoryValidation,
		},
		{
			name: "events enabled without url",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.URL = ""
			},
			category: enginerrors.CategoryConfig,
		},
		{
			name:     "bad watch interval",
			mutate:   func(c *Config) { c.Watch.Interval = "soon" },
			category: enginerrors.CategoryValidation,
		},
		{
			name:     "negative debounce",
			mutate:   func(c *Config) { c.Watch.Debounce = "-1s" },
			category: enginerrors.CategoryValidation,
		},
		{
			name:     "unknown log level",
			mutate:   func(c *Config) { c.Logging.Level = "loud" },
			category: enginerrors.CategoryValidation,
		},
		{
			name:     "unknown log format",
			mutate:   func(c *Config) { c.Logging.Format = "xml" },
			category: enginerrors.CategoryValidation,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := validConfig()
			c.mutate(cfg)
			err := ValidateConfig(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !enginerrors.IsCategory(err, c.category) {
				t.Errorf("category = %v, want %v (err: %v)", enginerrors.GetCategory(err), c.category, err)
			}
		})
	}
}

func TestValidateConfigEventsDisabledSkipsChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Events.Enabled = false
	cfg.Events.URL = ""
	cfg.Events.Subject = ""
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("disabled events should not be validated: %v", err)
	}
}
