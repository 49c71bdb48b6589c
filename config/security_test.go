package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"yaml", "balanceguard.yaml", ""},
		{"yml", "configs/dev.yml", ""},
		{"absolute", "/etc/balanceguard/config.yaml", ""},
		{"empty", "", "empty config path"},
		{"traversal", "../../etc/passwd.yaml", "path traversal"},
		{"json", "config.json", "only YAML"},
		{"too long", strings.Repeat("a", maxPathLen+1) + ".yaml", "path too long"},
		{"local dot segments", "configs/../balanceguard.yaml", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := checkConfigPath(tt.path)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadConfigFile_Limits(t *testing.T) {
	dir := t.TempDir()

	big := filepath.Join(dir, "big.yaml")
	require.NoError(t, os.WriteFile(big, make([]byte, maxConfigSize+1), 0600))
	_, err := readConfigFile(big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")

	sub := filepath.Join(dir, "dir.yaml")
	require.NoError(t, os.Mkdir(sub, 0700))
	_, err = readConfigFile(sub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestWriteConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	require.NoError(t, writeConfigFile(path, []byte("version: 1.0.0\n")))

	data, err := readConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: 1.0.0\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")

	assert.Error(t, writeConfigFile(filepath.Join(t.TempDir(), "out.json"), nil))
	assert.Error(t, writeConfigFile(path, make([]byte, maxConfigSize+1)))
}

func TestCheckEnvValue(t *testing.T) {
	assert.NoError(t, checkEnvValue("K", ""))
	assert.NoError(t, checkEnvValue("K", "debug"))
	assert.Error(t, checkEnvValue("K", "a\x00b"))
	assert.Error(t, checkEnvValue("K", "\xff"))
	assert.Error(t, checkEnvValue("K", strings.Repeat("x", maxEnvVarLen+1)))
}
