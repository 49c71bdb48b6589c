package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Limits on untrusted configuration input.
const (
	maxConfigSize = 1 << 20
	maxEnvVarLen  = 10000
	maxPathLen    = 4096
)

// checkConfigPath accepts .yaml and .yml files. Relative paths may not climb
// out of the working directory. It returns the cleaned path.
func checkConfigPath(path string) (string, error) {
	switch {
	case path == "":
		return "", errors.New("empty config path")
	case len(path) > maxPathLen:
		return "", fmt.Errorf("path too long: %d > %d", len(path), maxPathLen)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".yaml" && ext != ".yml" {
		return "", fmt.Errorf("only YAML config files allowed: %s", path)
	}

	cleaned := filepath.Clean(path)
	if !filepath.IsAbs(cleaned) && !filepath.IsLocal(cleaned) {
		return "", fmt.Errorf("path traversal not allowed: %s resolves outside working directory", path)
	}
	return cleaned, nil
}

// readConfigFile reads at most maxConfigSize bytes from a regular file.
func readConfigFile(path string) ([]byte, error) {
	cleaned, err := checkConfigPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	f, err := os.Open(cleaned)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > maxConfigSize {
		return nil, fmt.Errorf("config file too large: more than %d bytes", maxConfigSize)
	}
	return data, nil
}

// writeConfigFile replaces path through a temporary sibling so readers never
// see a partial file. The result is readable by the owner only.
func writeConfigFile(path string, data []byte) error {
	cleaned, err := checkConfigPath(path)
	if err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}
	if len(data) > maxConfigSize {
		return fmt.Errorf("config data too large: %d bytes > %d", len(data), maxConfigSize)
	}

	tmp, err := os.CreateTemp(filepath.Dir(cleaned), ".balanceguard-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), cleaned)
}

// checkEnvValue rejects oversized, NUL-bearing or non-UTF-8 override values.
func checkEnvValue(key, value string) error {
	switch {
	case len(value) > maxEnvVarLen:
		return fmt.Errorf("environment variable %s too long: %d > %d", key, len(value), maxEnvVarLen)
	case strings.ContainsRune(value, 0):
		return fmt.Errorf("null byte in environment variable %s", key)
	case !utf8.ValidString(value):
		return fmt.Errorf("environment variable %s is not valid UTF-8", key)
	}
	return nil
}
