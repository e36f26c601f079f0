package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/lifepad/internal/cliconfig"
	"github.com/bft-labs/lifepad/internal/peripheral"
	"github.com/bft-labs/lifepad/pkg/log"
	"github.com/bft-labs/lifepad/plugins/journal"
)

// execute runs the root command with an isolated home directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, cliconfig.EnvPrefix) {
			t.Setenv(strings.SplitN(kv, "=", 2)[0], "")
		}
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPeripheralsCommand_BuiltIn(t *testing.T) {
	out, err := execute(t, "peripherals")
	require.NoError(t, err)

	cfg, err := peripheral.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Table.Len())
	assert.Contains(t, out, peripheral.DefaultCharacteristic)
}

func TestPeripheralsCommand_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peripherals.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sliders: [AA:BB:CC:DD:EE:01]\n"), 0o644))

	out, err := execute(t, "peripherals", "--table", path)
	require.NoError(t, err)

	assert.Contains(t, out, "AA:BB:CC:DD:EE:01")
	assert.NotContains(t, out, "F0:9E:9E:B3:F8:A6")
}

func TestPeripheralsCommand_TableFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "peripherals.yaml")
	require.NoError(t, os.WriteFile(table, []byte("spawners: [AA:BB:CC:DD:EE:02]\n"), 0o644))
	conf := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(conf, []byte("table = \""+table+"\"\n"), 0o644))

	out, err := execute(t, "peripherals", "--config", conf)
	require.NoError(t, err)

	assert.Contains(t, out, "AA:BB:CC:DD:EE:02")
}

func TestMissingExplicitConfigFile(t *testing.T) {
	_, err := execute(t, "peripherals", "--config", filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "not found")
}

func TestJournalCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.Open(path)
	require.NoError(t, err)
	_, err = store.Append(context.Background(), journal.Entry{
		TaskID:    uuid.New(),
		Address:   "F0:9E:9E:B3:F1:A2",
		Direction: "left",
		Kind:      "slider",
		Previous:  "Connecting",
		Current:   "Connected",
		At:        time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := execute(t, "journal", "--journal", path)
	require.NoError(t, err)

	assert.Contains(t, out, "F0:9E:9E:B3:F1:A2")
	assert.Contains(t, out, "Connecting -> Connected")
}

func TestJournalCommand_RequiresPath(t *testing.T) {
	_, err := execute(t, "journal")
	assert.ErrorContains(t, err, "journal path is required")
}

func TestRootRejectsInvalidConfig(t *testing.T) {
	_, err := execute(t, "--display", "hdmi")
	assert.ErrorContains(t, err, "display must be one of")
}

func TestRun_SimulatedUntilScriptQuits(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "buttons.yaml")
	require.NoError(t, os.WriteFile(scriptPath, []byte(`
- at: 0s
  press: [left]
- at: 300ms
  quit: true
`), 0o644))

	_, err := execute(t,
		"--simulate",
		"--display", "none",
		"--input", "script",
		"--script", scriptPath,
		"--journal", filepath.Join(dir, "journal.db"),
		"--log-level", "error",
	)
	require.NoError(t, err)
}

func TestOpenComponents_Headless(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	cfg.Simulate = true
	cfg.Display = cliconfig.DisplayNone
	cfg.Input = cliconfig.InputNone

	c, err := openComponents(cfg, log.NewNoopLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.sink)
	assert.IsType(t, idleButtons{}, c.buttons)
	assert.Equal(t, 6, c.store.Table().Len())
}

func TestOpenComponents_BadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peripherals.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rotators: [not-a-mac]\n"), 0o644))

	cfg := cliconfig.DefaultConfig()
	cfg.Simulate = true
	cfg.TablePath = path

	_, err := openComponents(cfg, log.NewNoopLogger())
	assert.ErrorContains(t, err, "load peripheral table")
}

func TestPluginOptions(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	assert.Empty(t, pluginOptions(cfg))

	cfg.TablePath = "/etc/lifepad/peripherals.yaml"
	cfg.JournalPath = "/var/lib/lifepad/journal.db"
	cfg.MQTTBroker = "tcp://127.0.0.1:1883"
	cfg.InfluxURL = "http://127.0.0.1:8086"
	assert.Len(t, pluginOptions(cfg), 4)

	cfg.WatchTable = false
	assert.Len(t, pluginOptions(cfg), 3)
}
