package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ID                string `toml:"id"`
	Simulate          *bool  `toml:"simulate"`
	Display           string `toml:"display"`
	Input             string `toml:"input"`
	ScriptPath        string `toml:"script"`
	TablePath         string `toml:"table"`
	WatchTable        *bool  `toml:"watch_table"`
	FBDevice          string `toml:"fb_device"`
	CellSize          int    `toml:"cell_size"`
	GPIOChip          string `toml:"gpio_chip"`
	Rows              int    `toml:"rows"`
	Cols              int    `toml:"cols"`
	FrameInterval     string `toml:"frame_interval"`
	StepInterval      string `toml:"step_interval"`
	ScanTimeout       string `toml:"scan_timeout"`
	ConnectRetryDelay string `toml:"connect_retry_delay"`
	ConnectMaxDelay   string `toml:"connect_max_delay"`
	MaxConnectRetries int    `toml:"max_connect_retries"`
	GraceWindow       string `toml:"grace_window"`
	LogLevel          string `toml:"log_level"`
	LogJSON           *bool  `toml:"log_json"`
	LogFile           string `toml:"log_file"`
	MQTTBroker        string `toml:"mqtt_broker"`
	MQTTUsername      string `toml:"mqtt_username"`
	MQTTPassword      string `toml:"mqtt_password"`
	MQTTPrefix        string `toml:"mqtt_prefix"`
	InfluxURL         string `toml:"influx_url"`
	InfluxToken       string `toml:"influx_token"`
	InfluxOrg         string `toml:"influx_org"`
	InfluxBucket      string `toml:"influx_bucket"`
	InfluxEvery       int    `toml:"influx_every"`
	JournalPath       string `toml:"journal"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.lifepad/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".lifepad", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("id", fc.ID, &cfg.ID)
	s.setString("display", fc.Display, &cfg.Display)
	s.setString("input", fc.Input, &cfg.Input)
	s.setString("script", fc.ScriptPath, &cfg.ScriptPath)
	s.setString("table", fc.TablePath, &cfg.TablePath)
	s.setString("fb-device", fc.FBDevice, &cfg.FBDevice)
	s.setString("gpio-chip", fc.GPIOChip, &cfg.GPIOChip)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)
	s.setString("mqtt-broker", fc.MQTTBroker, &cfg.MQTTBroker)
	s.setString("mqtt-username", fc.MQTTUsername, &cfg.MQTTUsername)
	s.setString("mqtt-password", fc.MQTTPassword, &cfg.MQTTPassword)
	s.setString("mqtt-prefix", fc.MQTTPrefix, &cfg.MQTTPrefix)
	s.setString("influx-url", fc.InfluxURL, &cfg.InfluxURL)
	s.setString("influx-token", fc.InfluxToken, &cfg.InfluxToken)
	s.setString("influx-org", fc.InfluxOrg, &cfg.InfluxOrg)
	s.setString("influx-bucket", fc.InfluxBucket, &cfg.InfluxBucket)
	s.setString("journal", fc.JournalPath, &cfg.JournalPath)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"frame-interval", fc.FrameInterval, &cfg.FrameInterval},
		{"step-interval", fc.StepInterval, &cfg.StepInterval},
		{"scan-timeout", fc.ScanTimeout, &cfg.ScanTimeout},
		{"connect-retry-delay", fc.ConnectRetryDelay, &cfg.ConnectRetryDelay},
		{"connect-max-delay", fc.ConnectMaxDelay, &cfg.ConnectMaxDelay},
		{"grace-window", fc.GraceWindow, &cfg.GraceWindow},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setInt("cell-size", fc.CellSize, &cfg.CellSize)
	s.setInt("rows", fc.Rows, &cfg.Rows)
	s.setInt("cols", fc.Cols, &cfg.Cols)
	s.setInt("max-connect-retries", fc.MaxConnectRetries, &cfg.MaxConnectRetries)
	s.setInt("influx-every", fc.InfluxEvery, &cfg.InfluxEvery)

	s.setBool("simulate", fc.Simulate, &cfg.Simulate)
	s.setBool("watch-table", fc.WatchTable, &cfg.WatchTable)
	s.setBool("log-json", fc.LogJSON, &cfg.LogJSON)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
