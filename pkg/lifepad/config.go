package lifepad

import (
	"fmt"
	"time"

	"github.com/bft-labs/lifepad/internal/app"
	"github.com/bft-labs/lifepad/internal/controller"
	"github.com/bft-labs/lifepad/internal/domain"
)

// Config holds the engine configuration. Zero fields take the defaults
// listed on each field.
type Config struct {
	// ID names this display in plugin output such as MQTT topics.
	// Default: "lifepad"
	ID string

	// Rows and Cols size the grid. Default: 16 x 18
	Rows int
	Cols int

	// FrameInterval is the foreground tick. Default: 1/60 s
	FrameInterval time.Duration
	// StepInterval is the minimum time between automaton steps. Default: 10ms
	StepInterval time.Duration

	// ScanTimeout bounds one discovery scan. Default: 5s
	ScanTimeout time.Duration
	// ScanRetryDelay is the pause after a scan conflict. Default: 1s
	ScanRetryDelay time.Duration
	// MaxScanRetries is the number of conflict retries. Default: 3
	MaxScanRetries int

	// ConnectRetryDelay is the pause after a failed connect. Default: 1s
	ConnectRetryDelay time.Duration
	// ConnectRetryMaxDelay enables exponential backoff up to this delay.
	// Default: equal to ConnectRetryDelay (fixed delay)
	ConnectRetryMaxDelay time.Duration
	// MaxConnectRetries is the number of connect attempts. Default: 5
	MaxConnectRetries int

	// PollInterval is how often a held link is checked. Default: 1s
	PollInterval time.Duration
	// GraceWindow is how long a released direction keeps its peripheral.
	// Default: 1s
	GraceWindow time.Duration

	// ClusterSize is the side of a spawner square. Default: 10
	ClusterSize int
	// SpawnDensity is the chance a spawner cell comes alive. Default: 0.7
	SpawnDensity float64
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.ID == "" {
		c.ID = "lifepad"
	}
	if c.Rows == 0 {
		c.Rows = 16
	}
	if c.Cols == 0 {
		c.Cols = 18
	}
	if c.FrameInterval == 0 {
		c.FrameInterval = app.DefaultFrameInterval
	}
	if c.StepInterval == 0 {
		c.StepInterval = app.DefaultStepInterval
	}
	if c.ScanTimeout == 0 {
		c.ScanTimeout = app.DefaultScanTimeout
	}
	if c.ScanRetryDelay == 0 {
		c.ScanRetryDelay = app.DefaultScanRetryDelay
	}
	if c.MaxScanRetries == 0 {
		c.MaxScanRetries = app.DefaultMaxScanRetries
	}
	if c.ConnectRetryDelay == 0 {
		c.ConnectRetryDelay = app.DefaultConnectRetryDelay
	}
	if c.MaxConnectRetries == 0 {
		c.MaxConnectRetries = app.DefaultMaxConnectRetries
	}
	if c.PollInterval == 0 {
		c.PollInterval = app.DefaultPollInterval
	}
	if c.GraceWindow == 0 {
		c.GraceWindow = app.DefaultGraceWindow
	}
	if c.ClusterSize == 0 {
		c.ClusterSize = controller.DefaultClusterSize
	}
	if c.SpawnDensity == 0 {
		c.SpawnDensity = controller.DefaultSpawnDensity
	}
}

// Validate checks the configuration. Call SetDefaults first.
func (c Config) Validate() error {
	switch {
	case c.Rows < 1 || c.Cols < 1:
		return fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", domain.ErrInvalidConfig, c.Rows, c.Cols)
	case c.FrameInterval < 0 || c.StepInterval < 0:
		return fmt.Errorf("%w: intervals must not be negative", domain.ErrInvalidConfig)
	case c.ScanTimeout < 0 || c.ScanRetryDelay < 0 || c.ConnectRetryDelay < 0 || c.PollInterval < 0 || c.GraceWindow < 0:
		return fmt.Errorf("%w: radio timings must not be negative", domain.ErrInvalidConfig)
	case c.MaxScanRetries < 0:
		return fmt.Errorf("%w: max scan retries must not be negative", domain.ErrInvalidConfig)
	case c.MaxConnectRetries < 1:
		return fmt.Errorf("%w: max connect retries must be at least 1", domain.ErrInvalidConfig)
	case c.ClusterSize < 1:
		return fmt.Errorf("%w: cluster size must be at least 1", domain.ErrInvalidConfig)
	case c.SpawnDensity <= 0 || c.SpawnDensity > 1:
		return fmt.Errorf("%w: spawn density must be in (0, 1], got %g", domain.ErrInvalidConfig, c.SpawnDensity)
	}
	return nil
}

func (c Config) schedulerConfig() app.SchedulerConfig {
	return app.SchedulerConfig{
		Rows:          c.Rows,
		Cols:          c.Cols,
		FrameInterval: c.FrameInterval,
		StepInterval:  c.StepInterval,
	}
}

func (c Config) managerConfig() app.ManagerConfig {
	return app.ManagerConfig{
		ScanTimeout:          c.ScanTimeout,
		ScanRetryDelay:       c.ScanRetryDelay,
		MaxScanRetries:       c.MaxScanRetries,
		ConnectRetryDelay:    c.ConnectRetryDelay,
		ConnectRetryMaxDelay: c.ConnectRetryMaxDelay,
		MaxConnectRetries:    c.MaxConnectRetries,
		PollInterval:         c.PollInterval,
		GraceWindow:          c.GraceWindow,
	}
}
