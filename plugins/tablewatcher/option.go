package tablewatcher

import "github.com/bft-labs/lifepad/pkg/lifepad"

// WithTableWatcher returns a lifepad Option that keeps the peripheral table
// in sync with a YAML file.
//
// Usage:
//
//	engine, err := lifepad.New(cfg,
//	    tablewatcher.WithTableWatcher(tablewatcher.Config{
//	        Path: "/etc/lifepad/peripherals.yaml",
//	    }),
//	)
func WithTableWatcher(cfg Config) lifepad.Option {
	return lifepad.WithPlugin(New(cfg))
}
