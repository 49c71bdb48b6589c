// Package config loads balanceguard configuration from YAML files.
//
// A configuration file has five sections. Every key is optional; missing keys
// keep the values from Default.
//
//	version: "1.0.0"
//	engine:
//	  history_size: 100
//	  slow_threshold: 10ms
//	  warn_threshold: 50ms
//	  rule_time_budget: 0s
//	  max_related_values: 20
//	processor:
//	  enable_detailed_reports: true
//	  include_performance_metrics: true
//	  max_suggestions: 5
//	  auto_fix_threshold: medium
//	  max_history_size: 50
//	rules:
//	  disabled: [performance_impact]
//	  disabled_categories: [progression]
//	logging:
//	  level: info
//	  format: text
//	tracing:
//	  enabled: false
//	  service_name: balanceguard
//	  sample_ratio: 1
//
// # Loading
//
// Load reads one file. Loader merges several layers, later files overriding
// earlier ones, and then applies BALANCEGUARD_* environment overrides:
//
//	loader := config.NewLoader()
//	loader.AddLayer("balanceguard.yaml")
//	loader.AddLayer("balanceguard.local.yaml")
//	loader.EnableValidation(true)
//	cfg, err := loader.Load()
//
// Supported overrides are BALANCEGUARD_LOG_LEVEL, BALANCEGUARD_LOG_FORMAT,
// BALANCEGUARD_AUTO_FIX_THRESHOLD and BALANCEGUARD_TRACING_ENDPOINT.
//
// A missing file is reported as a fatal error matching errors.ErrConfigNotFound.
// Validation failures match errors.ErrInvalidConfig.
//
// # Wiring
//
//	eng := engine.New(cfg.EngineConfig(), logger, metrics)
//	proc := result.New(registry, cfg.ProcessorOptions(), logger, metrics)
//	if err := cfg.Apply(registry); err != nil {
//		return err
//	}
//
// SafeConfig holds a configuration shared between goroutines. Get returns a
// copy and Update validates before swapping.
package config
