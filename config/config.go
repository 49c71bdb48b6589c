package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/balanceguard/engine"
	"github.com/c360/balanceguard/errors"
	"github.com/c360/balanceguard/result"
	"github.com/c360/balanceguard/rule"
)

// Version is the configuration schema version written by Default.
const Version = "1.0.0"

// Config represents the complete balanceguard configuration
type Config struct {
	Version   string          `yaml:"version"`
	Engine    EngineConfig    `yaml:"engine"`
	Processor ProcessorConfig `yaml:"processor"`
	Rules     RulesConfig     `yaml:"rules"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// EngineConfig mirrors engine.Config with YAML durations
type EngineConfig struct {
	HistorySize      int      `yaml:"history_size"`
	SlowThreshold    Duration `yaml:"slow_threshold"`
	WarnThreshold    Duration `yaml:"warn_threshold"`
	RuleTimeBudget   Duration `yaml:"rule_time_budget"` // 0 runs checks inline
	MaxRelatedValues int      `yaml:"max_related_values"`
}

// ProcessorConfig mirrors result.Options
type ProcessorConfig struct {
	EnableDetailedReports     bool   `yaml:"enable_detailed_reports"`
	IncludePerformanceMetrics bool   `yaml:"include_performance_metrics"`
	MaxSuggestions            int    `yaml:"max_suggestions"`
	AutoFixThreshold          string `yaml:"auto_fix_threshold"`
	MaxHistorySize            int    `yaml:"max_history_size"`
}

// RulesConfig disables catalog rules by name or category
type RulesConfig struct {
	Disabled           []string `yaml:"disabled,omitempty"`
	DisabledCategories []string `yaml:"disabled_categories,omitempty"`
}

// LoggingConfig selects the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// TracingConfig controls OpenTelemetry export. Tracing stays off without an endpoint.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint,omitempty"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Duration is a time.Duration written as a Go duration string ("50ms").
type Duration time.Duration

// UnmarshalYAML accepts duration strings and plain integers of nanoseconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	var n int64
	if node.ShortTag() == "!!int" {
		if err := node.Decode(&n); err != nil {
			return err
		}
		*d = Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the time.Duration value.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	engineDefaults := engine.DefaultConfig()
	processorDefaults := result.DefaultOptions()
	return &Config{
		Version: Version,
		Engine: EngineConfig{
			HistorySize:      engineDefaults.HistorySize,
			SlowThreshold:    Duration(engineDefaults.SlowThreshold),
			WarnThreshold:    Duration(engineDefaults.WarnThreshold),
			RuleTimeBudget:   Duration(engineDefaults.RuleTimeBudget),
			MaxRelatedValues: engineDefaults.MaxRelatedValues,
		},
		Processor: ProcessorConfig{
			EnableDetailedReports:     processorDefaults.EnableDetailedReports,
			IncludePerformanceMetrics: processorDefaults.IncludePerformanceMetrics,
			MaxSuggestions:            processorDefaults.MaxSuggestions,
			AutoFixThreshold:          processorDefaults.AutoFixThreshold.String(),
			MaxHistorySize:            processorDefaults.MaxHistorySize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			ServiceName: "balanceguard",
			SampleRatio: 1,
		},
	}
}

// Load reads, merges and validates a single configuration file.
func Load(path string) (*Config, error) {
	loader := NewLoader()
	loader.EnableValidation(true)
	return loader.LoadFile(path)
}

// Parse decodes YAML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decodeInto(cfg, data); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Parse", "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeInto(cfg *Config, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	logFormats = map[string]bool{"json": true, "text": true}
)

// Validate checks value ranges and names. Errors match errors.ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.Invalidf(errors.ErrInvalidConfig, "Config", "Validate", format, args...)
	}

	if c.Engine.HistorySize < 0 {
		return invalid("engine.history_size must not be negative, got %d", c.Engine.HistorySize)
	}
	if c.Engine.SlowThreshold < 0 || c.Engine.WarnThreshold < 0 || c.Engine.RuleTimeBudget < 0 {
		return invalid("engine durations must not be negative")
	}
	if c.Engine.WarnThreshold > 0 && c.Engine.SlowThreshold > c.Engine.WarnThreshold {
		return invalid("engine.slow_threshold (%s) exceeds engine.warn_threshold (%s)",
			c.Engine.SlowThreshold.Std(), c.Engine.WarnThreshold.Std())
	}
	if c.Engine.MaxRelatedValues < 0 {
		return invalid("engine.max_related_values must not be negative, got %d", c.Engine.MaxRelatedValues)
	}

	if c.Processor.MaxSuggestions < 0 {
		return invalid("processor.max_suggestions must not be negative, got %d", c.Processor.MaxSuggestions)
	}
	if _, err := rule.ParseSeverity(c.Processor.AutoFixThreshold); err != nil {
		return invalid("processor.auto_fix_threshold: %v", err)
	}
	if n := c.Processor.MaxHistorySize; n != 0 && (n < result.MinHistorySize || n > result.MaxHistorySize) {
		return invalid("processor.max_history_size must be within %d..%d, got %d",
			result.MinHistorySize, result.MaxHistorySize, n)
	}

	for _, name := range c.Rules.Disabled {
		if strings.TrimSpace(name) == "" {
			return invalid("rules.disabled contains an empty name")
		}
	}
	for _, category := range c.Rules.DisabledCategories {
		if strings.TrimSpace(category) == "" {
			return invalid("rules.disabled_categories contains an empty name")
		}
	}

	if !logLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if !logFormats[strings.ToLower(c.Logging.Format)] {
		return invalid("logging.format %q is not one of json, text", c.Logging.Format)
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return invalid("tracing.endpoint is required when tracing is enabled")
	}
	// Zero would mean "sample everything" to the provider; turning tracing
	// off is done with tracing.enabled.
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		return invalid("tracing.sample_ratio must be above 0 and at most 1, got %g (set tracing.enabled: false to stop tracing)",
			c.Tracing.SampleRatio)
	}
	return nil
}

// EngineConfig converts the engine section.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		HistorySize:      c.Engine.HistorySize,
		SlowThreshold:    c.Engine.SlowThreshold.Std(),
		WarnThreshold:    c.Engine.WarnThreshold.Std(),
		RuleTimeBudget:   c.Engine.RuleTimeBudget.Std(),
		MaxRelatedValues: c.Engine.MaxRelatedValues,
	}
}

// ProcessorOptions converts the processor section. An unparsable threshold
// keeps the processor default; Validate reports it.
func (c *Config) ProcessorOptions() result.Options {
	opts := result.DefaultOptions()
	opts.EnableDetailedReports = c.Processor.EnableDetailedReports
	opts.IncludePerformanceMetrics = c.Processor.IncludePerformanceMetrics
	opts.MaxSuggestions = c.Processor.MaxSuggestions
	if threshold, err := rule.ParseSeverity(c.Processor.AutoFixThreshold); err == nil {
		opts.AutoFixThreshold = threshold
	}
	if c.Processor.MaxHistorySize != 0 {
		opts.MaxHistorySize = c.Processor.MaxHistorySize
	}
	return opts
}

// Apply disables the configured rules and categories in the registry.
// Unknown rule names are an invalid configuration.
func (c *Config) Apply(registry *rule.Registry) error {
	for _, name := range c.Rules.Disabled {
		if !registry.SetRuleEnabled(name, false) {
			return errors.Invalidf(errors.ErrRuleNotFound, "Config", "Apply", "rules.disabled: %s", name)
		}
	}
	for _, category := range c.Rules.DisabledCategories {
		registry.SetCategoryEnabled(rule.Category(category), false)
	}
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return Default()
	}
	clone := *c
	clone.Rules.Disabled = append([]string(nil), c.Rules.Disabled...)
	clone.Rules.DisabledCategories = append([]string(nil), c.Rules.DisabledCategories...)
	return &clone
}

// String returns the YAML representation of the config
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}

// SaveToFile writes the configuration as YAML
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "Config", "SaveToFile", "encode yaml")
	}
	if err := writeConfigFile(path, data); err != nil {
		return errors.Wrap(err, "Config", "SaveToFile", "write file")
	}
	return nil
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.Invalidf(errors.ErrInvalidConfig, "SafeConfig", "Update", "config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg.Clone()
	return nil
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:    []string{},
		envPrefix: "BALANCEGUARD",
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load decodes every layer onto the defaults, then applies environment overrides.
// Keys absent from a layer keep their previous value; lists are replaced.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		data, err := readConfigFile(path)
		if err != nil {
			if stderrors.Is(err, os.ErrNotExist) {
				return nil, errors.WrapFatal(fmt.Errorf("%s: %w", path, errors.ErrConfigNotFound),
					"Loader", "Load", "read config")
			}
			return nil, errors.WrapInvalid(err, "Loader", "Load", "read config")
		}
		if err := decodeInto(cfg, data); err != nil {
			return nil, errors.WrapInvalid(fmt.Errorf("%s: %w", path, err), "Loader", "Load", "decode yaml")
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	overrides := []struct {
		key   string
		apply func(string)
	}{
		{"_LOG_LEVEL", func(v string) { cfg.Logging.Level = v }},
		{"_LOG_FORMAT", func(v string) { cfg.Logging.Format = v }},
		{"_AUTO_FIX_THRESHOLD", func(v string) { cfg.Processor.AutoFixThreshold = v }},
		{"_TRACING_ENDPOINT", func(v string) {
			cfg.Tracing.Endpoint = v
			cfg.Tracing.Enabled = true
		}},
	}

	for _, o := range overrides {
		key := l.envPrefix + o.key
		val := os.Getenv(key)
		if err := checkEnvValue(key, val); err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "read environment")
		}
		if val != "" {
			o.apply(val)
		}
	}
	return nil
}
