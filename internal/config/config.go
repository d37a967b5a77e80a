package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Build   BuildConfig   `yaml:"build"`
	State   StateConfig   `yaml:"state"`
	Metrics MetricsConfig `yaml:"metrics"`
	Events  EventsConfig  `yaml:"events"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the site being generated
type SiteConfig struct {
	BaseURL      string `yaml:"base_url"`
	Title        string `yaml:"title"`
	LanguageCode string `yaml:"language_code,omitempty"`
}

// SourceConfig describes the crawled corpus to read
type SourceConfig struct {
	Corpus         string   `yaml:"corpus"`
	SkipExtensions []string `yaml:"skip_extensions,omitempty"`
	SkipPatterns   []string `yaml:"skip_patterns,omitempty"`
	MaxDepth       int      `yaml:"max_depth,omitempty"` // 0 = unlimited
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// KeepPrevious retains the pre-promote site tree at <directory>.prev
	// after a successful build. Defaults false.
	KeepPrevious bool   `yaml:"keep_previous,omitempty"`
	Report       string `yaml:"report,omitempty"` // report basename, default "run-report"
}

// BuildConfig controls the rewrite phase
type BuildConfig struct {
	Workers int `yaml:"workers,omitempty"` // 0 = runtime.NumCPU()
}

// StateConfig locates the run history database
type StateConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig controls Prometheus exposition
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}

// EventsConfig controls publishing of unresolved-link events
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig controls daemon mode. Durations are strings parsed
// during validation.
type WatchConfig struct {
	Interval string `yaml:"interval,omitempty"` // periodic rebuild, "" = disabled
	Debounce string `yaml:"debounce,omitempty"`
}

// LoggingConfig controls log verbosity and format
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env files if present. godotenv never overrides variables
	// that are already set in the environment.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "Note: %s couldn't be loaded: %v\n", envPath, err)
		}
	}
}

func applyDefaults(config *Config) {
	if config.Site.BaseURL == "" {
		config.Site.BaseURL = "https://orthodox.cn/"
	}
	if config.Site.Title == "" {
		config.Site.Title = "Православие в Китае"
	}
	if config.Site.LanguageCode == "" {
		config.Site.LanguageCode = "ru"
	}

	if config.Source.Corpus == "" {
		config.Source.Corpus = "extracted_content.json"
	}
	if config.Source.SkipExtensions == nil {
		config.Source.SkipExtensions = []string{
			".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
			".zip", ".rar", ".exe",
		}
	}
	if config.Source.SkipPatterns == nil {
		config.Source.SkipPatterns = []string{
			"/admin/", "/login/", "/register/", "/logout/", "/api/",
		}
	}
	if config.Source.MaxDepth < 0 {
		config.Source.MaxDepth = 0
	}

	if config.Output.Directory == "" {
		config.Output.Directory = "./site"
	}
	if config.Output.Report == "" {
		config.Output.Report = "run-report"
	}

	if config.Build.Workers < 0 {
		config.Build.Workers = 0
	}

	if config.State.Path == "" {
		config.State.Path = "deepcrawl.db"
	}

	if config.Metrics.Listen == "" {
		config.Metrics.Listen = ":2112"
	}

	if config.Events.URL == "" {
		config.Events.URL = "nats://127.0.0.1:4222"
	}
	if config.Events.Subject == "" {
		config.Events.Subject = "deepcrawl.links.unresolved"
	}

	if config.Watch.Debounce == "" {
		config.Watch.Debounce = "2s"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = string(LogLevelInfo)
	}
	if config.Logging.Format == "" {
		config.Logging.Format = string(LogFormatText)
	}
}

const exampleConfig = `# deepcrawl configuration

site:
  # Origin of the crawled corpus. Links on other hosts stay untouched.
  base_url: https://orthodox.cn/
  title: Православие в Китае
  language_code: ru

source:
  # JSON corpus produced by the crawler.
  corpus: extracted_content.json
  # skip_extensions:
  #   - .pdf
  #   - .zip
  # skip_patterns:
  #   - /admin/
  # max_depth: 0

output:
  directory: ./site
  # keep_previous: true

build:
  # 0 = one worker per CPU
  workers: 0

state:
  path: deepcrawl.db

metrics:
  enabled: false
  listen: ":2112"

events:
  enabled: false
  url: nats://127.0.0.1:4222
  subject: deepcrawl.links.unresolved

watch:
  # interval: 6h
  debounce: 2s

logging:
  level: info
  format: text
`

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
