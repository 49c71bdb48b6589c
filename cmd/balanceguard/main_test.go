package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	// Keep logs quiet unless a test asks otherwise
	args = append([]string{"--log-level", "error"}, args...)
	code := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestVersion(t *testing.T) {
	out, _, code := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "balanceguard 0.1.0\n", out)
}

func TestValidate_Accepted(t *testing.T) {
	out, _, code := execute(t, "validate", "--bubble-type", "normal", "--property", "health", "--old", "3", "--new", "3.5")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Overall Result: VALID")
}

func TestValidate_Rejected(t *testing.T) {
	out, _, code := execute(t, "validate", "-b", "normal", "-p", "health", "--old", "3", "--new", "8")

	assert.Equal(t, exitRejected, code)
	assert.Contains(t, out, "Overall Result: INVALID")
	assert.Contains(t, out, "bubble_health_range")
}

func TestValidate_BossRatioScenario(t *testing.T) {
	out, _, code := execute(t, "validate", "-b", "boss", "-p", "health", "--new", "50",
		"--related", "normal.health=2", "--json")

	assert.Equal(t, exitRejected, code)

	var decoded struct {
		Valid  bool `json:"valid"`
		Errors []struct {
			Rule    string `json:"rule"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.False(t, decoded.Valid)

	var messages []string
	for _, e := range decoded.Errors {
		if e.Rule == "boss_bubble_health_special" {
			messages = append(messages, e.Message)
		}
	}
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "25.0倍")
}

func TestValidate_CategoryFilterAndMetrics(t *testing.T) {
	out, _, code := execute(t, "validate", "-b", "normal", "-p", "health", "--old", "3", "--new", "8",
		"--category", "value_range", "--metrics")

	assert.Equal(t, exitRejected, code)
	assert.NotContains(t, out, "bubble_health_gradual_change")
	assert.Contains(t, out, `balanceguard_validation_requests_total{outcome="rejected",property="health"} 1`)
}

func TestValidate_FlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing required", []string{"validate", "--property", "health", "--new", "1"}, "bubble-type"},
		{"bad related", []string{"validate", "-b", "normal", "-p", "health", "--new", "1", "--related", "normal=1"}, "type.prop=value"},
		{"bad canvas", []string{"validate", "-b", "normal", "-p", "size", "--new", "30", "--canvas", "wide"}, "WIDTHxHEIGHT"},
		{"bad severity", []string{"validate", "-b", "normal", "-p", "size", "--new", "30", "--severity", "huge"}, "huge"},
		{"missing config", []string{"--config", "absent.yaml", "rules", "list"}, "configuration not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := execute(t, tt.args...)
			assert.Equal(t, exitFailure, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestBubble(t *testing.T) {
	out, _, code := execute(t, "bubble", "-b", "normal",
		"--current", "health=2,score=2,size=30", "--proposed", "health=2.2,score=2.2")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "VALID normal: 2 changed, 0 errors")

	out, _, code = execute(t, "bubble", "-b", "iron", "--current", "size=28", "--proposed", "size=25",
		"--related", "normal.size=30")
	assert.Equal(t, exitRejected, code)
	assert.Contains(t, out, "size_hierarchy")
}

func TestBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "changes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
requests:
  - {bubble_type: normal, property: health, old: 3, new: 3.5}
  - {bubble_type: normal, property: health, old: 3, new: 8}
  - bubble_type: iron
    property: size
    old: 28
    new: 25
    related: {normal: {size: 30}}
`), 0600))

	out, _, code := execute(t, "batch", "--file", path, "--workers", "2")
	assert.Equal(t, exitRejected, code)
	assert.Contains(t, out, "  1. normal.health: VALID")
	assert.Contains(t, out, "  2. normal.health: INVALID")
	assert.Contains(t, out, "  3. iron.size: INVALID")
	assert.Contains(t, out, "3 validated, 2 rejected")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("requests:\n  - {property: health, new: 1}\n"), 0600))
	_, stderr, code := execute(t, "batch", "--file", bad)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "needs bubble_type and property")
}

func TestRules(t *testing.T) {
	out, _, code := execute(t, "rules", "list", "--category", "value_range")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "bubble_health_range")
	assert.Contains(t, out, "time_range")
	assert.NotContains(t, out, "size_hierarchy")

	out, _, code = execute(t, "rules", "stats")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Total: 15")
	assert.Contains(t, out, "value_range")
}

func TestConfig_DisablesRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balanceguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  disabled: [bubble_health_range]\n"), 0600))

	out, _, code := execute(t, "--config", path, "rules", "list", "--enabled")
	assert.Equal(t, 0, code)
	assert.NotContains(t, out, "bubble_health_range")
	assert.Contains(t, out, "bubble_health_gradual_change")
}

func TestConfig_InitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")

	out, _, code := execute(t, "config", "init", "--output", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Wrote "+path)

	out, _, code = execute(t, "--config", path, "--log-format", "json", "config", "show")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "format: json")
	assert.Contains(t, out, "slow_threshold: 10ms")
}

func TestParseHelpers(t *testing.T) {
	assert.Nil(t, parseValue(" "))
	assert.Equal(t, 4.5, parseValue("4.5"))
	assert.Equal(t, "abc", parseValue("abc"))

	related, err := parseRelated([]string{"normal.health=2", "normal.size=30", "iron.size=40"})
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]float64{
		"normal": {"health": 2, "size": 30},
		"iron":   {"size": 40},
	}, related)

	_, err = parseRelated([]string{"normal.health=two"})
	assert.Error(t, err)

	values, err := parseAssignments([]string{"health=2", "score=10"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"health": 2, "score": 10}, values)

	canvas, err := parseCanvas("1024x768")
	require.NoError(t, err)
	assert.Equal(t, 1024.0, canvas.Width)
	assert.Equal(t, 768.0, canvas.Height)

	_, err = parseCanvas("0x768")
	assert.Error(t, err)
}
