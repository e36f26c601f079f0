package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tinygo.org/x/bluetooth"

	"github.com/bft-labs/lifepad/internal/adapters/ble"
	"github.com/bft-labs/lifepad/internal/adapters/fb"
	"github.com/bft-labs/lifepad/internal/adapters/gpio"
	"github.com/bft-labs/lifepad/internal/adapters/script"
	"github.com/bft-labs/lifepad/internal/adapters/sim"
	"github.com/bft-labs/lifepad/internal/adapters/term"
	"github.com/bft-labs/lifepad/internal/cliconfig"
	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/internal/peripheral"
	"github.com/bft-labs/lifepad/pkg/lifepad"
	"github.com/bft-labs/lifepad/pkg/log"
	"github.com/bft-labs/lifepad/plugins/influxstats"
	"github.com/bft-labs/lifepad/plugins/journal"
	"github.com/bft-labs/lifepad/plugins/mqttmirror"
	"github.com/bft-labs/lifepad/plugins/tablewatcher"
)

// components are the hardware-facing adapters selected by the config.
type components struct {
	store   *peripheral.Store
	radio   lifepad.Radio
	buttons lifepad.ButtonSource
	sink    lifepad.FrameSink
	closers []io.Closer
}

// Close releases the adapters in reverse order of opening.
func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// idleButtons never reports a press.
type idleButtons struct{}

func (idleButtons) Read(context.Context) (domain.ButtonState, error) {
	return domain.ButtonState{}, nil
}

func loadPeripherals(path string) (*peripheral.Config, error) {
	if path == "" {
		return peripheral.Default(), nil
	}
	cfg, err := peripheral.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load peripheral table: %w", err)
	}
	return cfg, nil
}

func openComponents(cfg cliconfig.Config, logger log.Logger) (c *components, err error) {
	table, err := loadPeripherals(cfg.TablePath)
	if err != nil {
		return nil, err
	}
	c = &components{store: peripheral.NewStore(table)}
	defer func() {
		if err != nil {
			c.Close()
			c = nil
		}
	}()

	if cfg.Simulate {
		c.radio = sim.New(sim.FromTable(c.store.Table()))
	} else {
		radio, err := ble.New(bluetooth.DefaultAdapter, c.store.Characteristic(), logger)
		if err != nil {
			return c, err
		}
		c.radio = radio
	}

	var screen *term.Terminal
	switch cfg.Display {
	case cliconfig.DisplayFB:
		sink, err := fb.Open(fb.Config{Device: cfg.FBDevice, CellSize: cfg.CellSize})
		if err != nil {
			return c, err
		}
		c.sink = sink
		c.closers = append(c.closers, sink)
	case cliconfig.DisplayTerm:
		screen, err = term.Open()
		if err != nil {
			return c, err
		}
		c.sink = screen
		c.closers = append(c.closers, screen)
	}

	switch cfg.Input {
	case cliconfig.InputGPIO:
		buttons, err := gpio.Open(cfg.GPIOChip, gpio.DefaultPins)
		if err != nil {
			return c, err
		}
		c.buttons = buttons
		c.closers = append(c.closers, buttons)
	case cliconfig.InputTerm:
		c.buttons = screen
	case cliconfig.InputScript:
		buttons, err := script.Load(cfg.ScriptPath)
		if err != nil {
			return c, err
		}
		c.buttons = buttons
	default:
		c.buttons = idleButtons{}
	}

	logger.Info("components ready",
		log.Bool("simulate", cfg.Simulate),
		log.String("display", cfg.Display),
		log.String("input", cfg.Input),
		log.Int("peripherals", c.store.Table().Len()))
	return c, nil
}

// pluginOptions enables the plugins the config asks for.
func pluginOptions(cfg cliconfig.Config) []lifepad.Option {
	var opts []lifepad.Option
	if cfg.WatchTable && cfg.TablePath != "" {
		opts = append(opts, tablewatcher.WithTableWatcher(tablewatcher.Config{Path: cfg.TablePath}))
	}
	if cfg.JournalPath != "" {
		opts = append(opts, journal.WithJournal(journal.Config{Path: cfg.JournalPath}))
	}
	if cfg.MQTTBroker != "" {
		opts = append(opts, mqttmirror.WithMQTTMirror(mqttmirror.Config{
			Broker:      cfg.MQTTBroker,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTPrefix,
		}))
	}
	if cfg.InfluxURL != "" {
		opts = append(opts, influxstats.WithInfluxStats(influxstats.Config{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
			Every:  uint64(cfg.InfluxEvery),
		}))
	}
	return opts
}
