package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `filter:
  finger_bits: 8
  num_buckets: 64
bench:
  keys: 1000
  format: json
`

// writeTempConfig writes content to a temp YAML file and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "swapnest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestValidateCommand_ValidConfig(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)

	var out bytes.Buffer

	command := NewValidateCommand()
	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--no-color", path})

	err := command.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "config is valid")
	assert.Contains(t, out.String(), path)
}

func TestValidateCommand_DefaultsPassSchema(t *testing.T) {
	path := writeTempConfig(t, `filter:
  finger_bits: 16
  num_buckets: 10000
  num_entries: 100
  max_swaps: 99
bench:
  keys: 990000
  seed: 0
  shuffle: true
  format: table
  grid: false
  plot_file: ""
  trace_file: ""
logging:
  level: info
  format: text
telemetry:
  otlp_endpoint: ""
  otlp_headers: ""
  otlp_insecure: false
  debug_trace: false
  sample_ratio: 0.0
  metrics_listen: ""
`)

	var out bytes.Buffer

	command := NewValidateCommand()
	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--no-color", path})

	err := command.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "config is valid")
}

func TestValidateCommand_InvalidFingerBits(t *testing.T) {
	path := writeTempConfig(t, "filter:\n  finger_bits: 12\n")

	var out bytes.Buffer

	command := NewValidateCommand()
	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--no-color", path})

	err := command.Execute()
	require.ErrorIs(t, err, ErrConfigInvalid)
	assert.Contains(t, out.String(), "config validation failed")
	assert.Contains(t, out.String(), "finger_bits")
}

func TestValidateCommand_UnknownTopLevelKey(t *testing.T) {
	path := writeTempConfig(t, "warp_factor: 9\n")

	var out bytes.Buffer

	command := NewValidateCommand()
	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--no-color", path})

	err := command.Execute()
	require.ErrorIs(t, err, ErrConfigInvalid)
	assert.Contains(t, out.String(), "config validation failed")
}

func TestValidateCommand_Stdin(t *testing.T) {
	var out bytes.Buffer

	command := NewValidateCommand()
	command.SetIn(strings.NewReader(validConfigYAML))
	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--no-color", "-"})

	err := command.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "config is valid (stdin)")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	t.Parallel()

	command := NewValidateCommand()
	command.SetOut(io.Discard)
	command.SetErr(io.Discard)
	command.SetArgs([]string{filepath.Join(t.TempDir(), "absent.yaml")})

	err := command.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidateCommand_MalformedYAML(t *testing.T) {
	path := writeTempConfig(t, "filter: [unclosed\n")

	command := NewValidateCommand()
	command.SetOut(io.Discard)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--no-color", path})

	err := command.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestValidateCommand_SchemaOverride(t *testing.T) {
	schemaPath := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{"type": "object"}`), 0o600))

	path := writeTempConfig(t, "anything_goes: true\n")

	var out bytes.Buffer

	command := NewValidateCommand()
	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--no-color", "--schema", schemaPath, path})

	err := command.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "config is valid")
}
