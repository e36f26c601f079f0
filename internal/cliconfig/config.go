package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/lifepad/pkg/lifepad"
)

// Display and input backends.
const (
	DisplayFB   = "fb"
	DisplayTerm = "term"
	DisplayNone = "none"

	InputGPIO   = "gpio"
	InputTerm   = "term"
	InputScript = "script"
	InputNone   = "none"
)

// Config holds CLI configuration for lifepad.
type Config struct {
	ID string

	Simulate   bool
	Display    string
	Input      string
	ScriptPath string
	TablePath  string
	WatchTable bool

	FBDevice string
	CellSize int
	GPIOChip string

	Rows              int
	Cols              int
	FrameInterval     time.Duration
	StepInterval      time.Duration
	ScanTimeout       time.Duration
	ConnectRetryDelay time.Duration
	ConnectMaxDelay   time.Duration
	MaxConnectRetries int
	GraceWindow       time.Duration

	LogLevel string
	LogJSON  bool
	LogFile  string

	MQTTBroker   string
	MQTTUsername string
	MQTTPassword string
	MQTTPrefix   string

	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
	InfluxEvery  int

	JournalPath string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ID:                "lifepad",
		Display:           DisplayFB,
		Input:             InputGPIO,
		WatchTable:        true,
		FBDevice:          "/dev/fb1",
		CellSize:          15,
		GPIOChip:          "gpiochip0",
		Rows:              16,
		Cols:              18,
		FrameInterval:     time.Second / 60,
		StepInterval:      10 * time.Millisecond,
		ScanTimeout:       5 * time.Second,
		ConnectRetryDelay: time.Second,
		MaxConnectRetries: 5,
		GraceWindow:       time.Second,
		LogLevel:          "info",
		MQTTPrefix:        "lifepad",
		InfluxEvery:       100,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Display {
	case DisplayFB, DisplayTerm, DisplayNone:
	default:
		return fmt.Errorf("display must be one of fb, term, none; got %q", c.Display)
	}
	switch c.Input {
	case InputGPIO, InputTerm, InputNone:
	case InputScript:
		if c.ScriptPath == "" {
			return fmt.Errorf("script input requires a script path")
		}
	default:
		return fmt.Errorf("input must be one of gpio, term, script, none; got %q", c.Input)
	}
	if c.Input == InputTerm && c.Display != DisplayTerm {
		return fmt.Errorf("term input requires the term display")
	}
	if c.WatchTable && c.TablePath == "" {
		c.WatchTable = false
	}

	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive")
	}
	if c.StepInterval <= 0 {
		return fmt.Errorf("step interval must be positive")
	}
	if c.InfluxURL != "" && c.InfluxBucket == "" {
		return fmt.Errorf("influx bucket is required with an influx url")
	}
	return nil
}

// Engine converts the CLI settings into the library configuration.
func (c Config) Engine() lifepad.Config {
	return lifepad.Config{
		ID:                   c.ID,
		Rows:                 c.Rows,
		Cols:                 c.Cols,
		FrameInterval:        c.FrameInterval,
		StepInterval:         c.StepInterval,
		ScanTimeout:          c.ScanTimeout,
		ConnectRetryDelay:    c.ConnectRetryDelay,
		ConnectRetryMaxDelay: c.ConnectMaxDelay,
		MaxConnectRetries:    c.MaxConnectRetries,
		GraceWindow:          c.GraceWindow,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
