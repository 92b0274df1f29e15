package compile_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/compile"
)

const acmeDoc = `{
  "make": "Acme",
  "modbus": {
    "models": ["X1"],
    "connection": {"baudrate": 9600, "method": "rtu"},
    "registers": {
      "sensors": [
        {"name": "Outdoor_Temp", "address": 13, "unit": "°C", "common_interface": "outdoor_temperature"}
      ],
      "foo": [{"name": "Mystery", "address": 1}]
    },
    "unlock_registers": {
      "write_unlock": {
        "address": 104,
        "values": [{"hex": "0x55AA", "decimal": 21930, "description": "step one"}]
      }
    }
  }
}`

func writeSource(t *testing.T, docs map[string]string) string {
	t.Helper()
	src := t.TempDir()
	for name, body := range docs {
		dir := filepath.Join(src, strings.TrimSuffix(name, ".json"))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return src
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestRun_WritesBothTargets(t *testing.T) {
	src := writeSource(t, map[string]string{"acme.json": acmeDoc})
	out := t.TempDir()
	var diag bytes.Buffer

	err := compile.Run(compile.Options{Source: src, Out: out, Now: fixedNow, Diag: &diag})
	require.NoError(t, err)

	ha, err := os.ReadFile(filepath.Join(out, "acme", "homeassistant", "acme.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(ha), "- name: Outdoor_Temp\n")
	assert.NotContains(t, string(ha), "Mystery", "unknown categories never reach output")

	unlock, err := os.ReadFile(filepath.Join(out, "acme", "homeassistant", "acme-unlock-automation.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(unlock), "service: modbus.write_register\n")
	assert.Contains(t, string(unlock), "'0x55AA #21930 step one'")

	esp, err := os.ReadFile(filepath.Join(out, "acme", "esphome", "acme.yaml"))
	require.NoError(t, err)
	lines := strings.SplitN(string(esp), "\n", 4)
	assert.Equal(t, "# Generated by heatpumpc", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "# "), "second header line is the generation note")
	assert.Equal(t, "# 2026-08-30T12:00:00Z", lines[2])
	assert.Contains(t, string(esp), "device_class: temperature\n")
	assert.NotContains(t, string(esp), "Mystery")
}

func TestRun_ESPHomeOnly(t *testing.T) {
	src := writeSource(t, map[string]string{"acme.json": acmeDoc})
	out := t.TempDir()

	var diag bytes.Buffer
	err := compile.Run(compile.Options{Source: src, Out: out, ESPHomeOnly: true, Now: fixedNow, Diag: &diag})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(out, "acme", "esphome", "acme.yaml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "acme", "homeassistant"))
	assert.True(t, os.IsNotExist(err), "home assistant target must be skipped")
}

func TestRun_DeterministicOutput(t *testing.T) {
	src := writeSource(t, map[string]string{"acme.json": acmeDoc})

	render := func() string {
		out := t.TempDir()
		var diag bytes.Buffer
		require.NoError(t, compile.Run(compile.Options{Source: src, Out: out, Now: fixedNow, Diag: &diag}))
		b, err := os.ReadFile(filepath.Join(out, "acme", "esphome", "acme.yaml"))
		require.NoError(t, err)
		return string(b)
	}
	first := render()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, render(), "identical input must produce identical output")
	}
}

func TestRun_ParseFailureAborts(t *testing.T) {
	src := writeSource(t, map[string]string{"broken.json": `{"make": `})
	var diag bytes.Buffer

	err := compile.Run(compile.Options{Source: src, Out: t.TempDir(), Now: fixedNow, Diag: &diag})
	require.Error(t, err)
}

func TestRun_InvalidDocumentSkipped(t *testing.T) {
	src := writeSource(t, map[string]string{
		"acme.json":   acmeDoc,
		"nomake.json": `{"modbus":{"models": ["X1"], "connection": {"baudrate": 9600, "method": "rtu"}, "registers": {"sensors": [{"name": "R", "address": 1}]}}}`,
	})
	out := t.TempDir()
	var diag bytes.Buffer

	err := compile.Run(compile.Options{Source: src, Out: out, Now: fixedNow, Diag: &diag})
	require.NoError(t, err, "validation errors skip the document, they do not abort the build")

	_, err = os.Stat(filepath.Join(out, "acme", "esphome", "acme.yaml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "nomake"))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, diag.String(), "error:")
	assert.Contains(t, diag.String(), "skipped 1")
}

func TestRun_CleanWipesOutputTree(t *testing.T) {
	src := writeSource(t, map[string]string{"acme.json": acmeDoc})
	out := t.TempDir()
	stale := filepath.Join(out, "stale", "old.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	var diag bytes.Buffer
	require.NoError(t, compile.Run(compile.Options{Source: src, Out: out, Clean: true, Now: fixedNow, Diag: &diag}))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "clean must wipe stale output")
	_, err = os.Stat(filepath.Join(out, "acme", "esphome", "acme.yaml"))
	assert.NoError(t, err)
}

func TestValidateAll(t *testing.T) {
	src := writeSource(t, map[string]string{"acme.json": acmeDoc})
	var diag bytes.Buffer

	ok, err := compile.ValidateAll(compile.Options{Source: src, Diag: &diag})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, diag.String(), "warning:", "unknown category and missing tags warn")
	assert.Contains(t, diag.String(), "OK:")

	src = writeSource(t, map[string]string{"bad.json": `{"modbus": {}}`})
	diag.Reset()
	ok, err = compile.ValidateAll(compile.Options{Source: src, Diag: &diag})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, diag.String(), "FAIL:")
}

func TestDiscover_MissingSource(t *testing.T) {
	_, err := compile.Discover(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
