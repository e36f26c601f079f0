package journal

import "github.com/bft-labs/lifepad/pkg/lifepad"

// WithJournal returns a lifepad Option that records connection events.
//
// Usage:
//
//	engine, err := lifepad.New(cfg,
//	    journal.WithJournal(journal.Config{Path: "/var/lib/lifepad/journal.db"}),
//	)
func WithJournal(cfg Config) lifepad.Option {
	return lifepad.WithPlugin(New(cfg))
}
