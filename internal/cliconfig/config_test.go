package cliconfig

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ID != "lifepad" {
		t.Errorf("ID = %v, want lifepad", cfg.ID)
	}
	if cfg.Display != DisplayFB || cfg.Input != InputGPIO {
		t.Errorf("Display/Input = %v/%v, want fb/gpio", cfg.Display, cfg.Input)
	}
	if cfg.FrameInterval != time.Second/60 {
		t.Errorf("FrameInterval = %v, want 1/60s", cfg.FrameInterval)
	}
	if cfg.Rows != 16 || cfg.Cols != 18 {
		t.Errorf("grid = %dx%d, want 16x18", cfg.Rows, cfg.Cols)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func(mutate func(*Config)) Config {
		c := DefaultConfig()
		mutate(&c)
		return c
	}

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "defaults", config: DefaultConfig()},
		{name: "terminal display and input", config: valid(func(c *Config) { c.Display, c.Input = DisplayTerm, InputTerm })},
		{name: "headless simulation", config: valid(func(c *Config) { c.Display, c.Input, c.Simulate = DisplayNone, InputNone, true })},
		{name: "script with path", config: valid(func(c *Config) { c.Input, c.ScriptPath = InputScript, "/tmp/s.yaml" })},
		{name: "script without path", config: valid(func(c *Config) { c.Input = InputScript }), wantErr: true},
		{name: "unknown display", config: valid(func(c *Config) { c.Display = "hdmi" }), wantErr: true},
		{name: "unknown input", config: valid(func(c *Config) { c.Input = "mouse" }), wantErr: true},
		{name: "term input on framebuffer", config: valid(func(c *Config) { c.Input = InputTerm }), wantErr: true},
		{name: "zero frame interval", config: valid(func(c *Config) { c.FrameInterval = 0 }), wantErr: true},
		{name: "negative step interval", config: valid(func(c *Config) { c.StepInterval = -time.Millisecond }), wantErr: true},
		{name: "influx without bucket", config: valid(func(c *Config) { c.InfluxURL = "http://localhost:8086" }), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_WatchTableNeedsPath(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.WatchTable {
		t.Error("WatchTable should be cleared without a table path")
	}

	cfg = DefaultConfig()
	cfg.TablePath = "/etc/lifepad/peripherals.yaml"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !cfg.WatchTable {
		t.Error("WatchTable should stay set with a table path")
	}
}

func TestConfig_Engine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ID = "hall"
	cfg.ConnectMaxDelay = 8 * time.Second

	ec := cfg.Engine()

	if ec.ID != "hall" {
		t.Errorf("ID = %v, want hall", ec.ID)
	}
	if ec.ConnectRetryMaxDelay != 8*time.Second {
		t.Errorf("ConnectRetryMaxDelay = %v, want 8s", ec.ConnectRetryMaxDelay)
	}
	if ec.MaxConnectRetries != 5 {
		t.Errorf("MaxConnectRetries = %v, want 5", ec.MaxConnectRetries)
	}
	ec.SetDefaults()
	if err := ec.Validate(); err != nil {
		t.Errorf("engine config should validate: %v", err)
	}
}
