package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/lifepad/internal/cliconfig"
	"github.com/bft-labs/lifepad/pkg/lifepad"
	"github.com/bft-labs/lifepad/pkg/log"
)

const helpDescription = `
Run a cellular automaton on a small display and let Bluetooth controllers
play with it. Each of the four direction buttons arms one edge of the grid;
the first free controller found nearby is bound to it and starts injecting
cells from that side.

Controllers:
  - rotator: a live-cell tetromino that turns with the knob.
  - slider:  a line whose length follows the slider.
  - spawner: a random cluster on every press.

Use --simulate to try it without hardware.
`

var exampleUsage = strings.TrimSpace(`
  lifepad
  lifepad --simulate --display term --input term
  lifepad --table /etc/lifepad/peripherals.yaml --mqtt-broker tcp://10.0.0.2:1883
  lifepad peripherals
  lifepad journal --journal /var/lib/lifepad/journal.db --limit 50
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lifepad:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "lifepad",
		Short:         "Cellular automaton display driven by Bluetooth controllers",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg, cfgPath)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.lifepad/config.toml)")
	pf.StringVar(&cfg.TablePath, "table", cfg.TablePath, "peripheral table YAML (default: built-in table)")
	pf.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "SQLite connection journal (disabled when empty)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	pf.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "write JSON log lines instead of console output")
	pf.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also write logs to this rotated file")

	f := root.Flags()
	f.StringVar(&cfg.ID, "id", cfg.ID, "display name used in plugin output")
	f.BoolVar(&cfg.Simulate, "simulate", cfg.Simulate, "use simulated controllers instead of Bluetooth")
	f.StringVar(&cfg.Display, "display", cfg.Display, "display backend: fb, term, none")
	f.StringVar(&cfg.Input, "input", cfg.Input, "button backend: gpio, term, script, none")
	f.StringVar(&cfg.ScriptPath, "script", cfg.ScriptPath, "button script YAML for --input script")
	f.BoolVar(&cfg.WatchTable, "watch-table", cfg.WatchTable, "reload the peripheral table when the file changes")

	f.StringVar(&cfg.FBDevice, "fb-device", cfg.FBDevice, "framebuffer device")
	f.IntVar(&cfg.CellSize, "cell-size", cfg.CellSize, "cell size in pixels on the framebuffer")
	f.StringVar(&cfg.GPIOChip, "gpio-chip", cfg.GPIOChip, "GPIO chip with the direction buttons")

	f.IntVar(&cfg.Rows, "rows", cfg.Rows, "grid rows")
	f.IntVar(&cfg.Cols, "cols", cfg.Cols, "grid columns")
	f.DurationVar(&cfg.FrameInterval, "frame-interval", cfg.FrameInterval, "foreground tick")
	f.DurationVar(&cfg.StepInterval, "step-interval", cfg.StepInterval, "minimum time between automaton steps")
	f.DurationVar(&cfg.ScanTimeout, "scan-timeout", cfg.ScanTimeout, "duration of one discovery scan")
	f.DurationVar(&cfg.ConnectRetryDelay, "connect-retry-delay", cfg.ConnectRetryDelay, "pause after a failed connect")
	f.DurationVar(&cfg.ConnectMaxDelay, "connect-max-delay", cfg.ConnectMaxDelay, "cap for exponential connect backoff (0 keeps the delay fixed)")
	f.IntVar(&cfg.MaxConnectRetries, "max-connect-retries", cfg.MaxConnectRetries, "connect attempts per peripheral")
	f.DurationVar(&cfg.GraceWindow, "grace-window", cfg.GraceWindow, "how long a released direction keeps its controller")

	f.StringVar(&cfg.MQTTBroker, "mqtt-broker", cfg.MQTTBroker, "mirror events to this MQTT broker (disabled when empty)")
	f.StringVar(&cfg.MQTTUsername, "mqtt-username", cfg.MQTTUsername, "MQTT username")
	f.StringVar(&cfg.MQTTPassword, "mqtt-password", cfg.MQTTPassword, "MQTT password")
	f.StringVar(&cfg.MQTTPrefix, "mqtt-prefix", cfg.MQTTPrefix, "MQTT topic prefix")

	f.StringVar(&cfg.InfluxURL, "influx-url", cfg.InfluxURL, "write statistics to this InfluxDB (disabled when empty)")
	f.StringVar(&cfg.InfluxToken, "influx-token", cfg.InfluxToken, "InfluxDB token")
	f.StringVar(&cfg.InfluxOrg, "influx-org", cfg.InfluxOrg, "InfluxDB organization")
	f.StringVar(&cfg.InfluxBucket, "influx-bucket", cfg.InfluxBucket, "InfluxDB bucket")
	f.IntVar(&cfg.InfluxEvery, "influx-every", cfg.InfluxEvery, "generations between statistics points")

	root.AddCommand(newPeripheralsCmd(&cfg), newJournalCmd(&cfg))
	return root
}

// loadConfig applies the config file, then LIFEPAD_* variables, leaving
// explicitly set flags alone.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	return cliconfig.ApplyEnvConfig(cfg, changed)
}

func newLogger(cfg cliconfig.Config, stderr io.Writer) (*log.ZerologAdapter, io.Closer, error) {
	out := stderr
	if cfg.Display == cliconfig.DisplayTerm {
		// The terminal display owns the screen.
		out = io.Discard
	}
	return log.New(log.Options{
		Level:      cfg.LogLevel,
		JSON:       cfg.LogJSON,
		Out:        out,
		File:       cfg.LogFile,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	})
}

func run(ctx context.Context, cfg cliconfig.Config, stderr io.Writer) error {
	logger, logCloser, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	logCfg := cfg
	if logCfg.MQTTPassword != "" {
		logCfg.MQTTPassword = "*****"
	}
	if logCfg.InfluxToken != "" {
		logCfg.InfluxToken = "*****"
	}
	logger.Info("configuration", log.Any("config", logCfg))

	c, err := openComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	opts := append([]lifepad.Option{
		lifepad.WithLogger(logger),
		lifepad.WithPeripherals(c.store),
		lifepad.WithRadio(c.radio),
		lifepad.WithButtons(c.buttons),
	}, pluginOptions(cfg)...)
	if c.sink != nil {
		opts = append(opts, lifepad.WithFrameSink(c.sink))
	}

	engine, err := lifepad.New(cfg.Engine(), opts...)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	select {
	case <-sigCh:
		logger.Info("received signal, stopping")
	case <-engine.Done():
		if errors.Is(engine.Err(), lifepad.ErrShutdownRequested) {
			logger.Info("quit requested from input")
		}
	}

	if err := engine.Stop(); err != nil && !errors.Is(err, lifepad.ErrNotRunning) {
		return fmt.Errorf("stop engine: %w", err)
	}
	if err := engine.Err(); err != nil && !errors.Is(err, lifepad.ErrShutdownRequested) {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}
