// Package log provides the logging abstraction used across lifepad.
//
// Components depend on the Logger interface only. The zerolog adapter backs
// it in production and NoopLogger in tests.
//
// Build a logger from options, optionally teeing JSON lines into a rotated
// file:
//
//	logger, closer, err := log.New(log.Options{Level: "debug", File: "/var/log/lifepad.log"})
//	if err != nil {
//		return err
//	}
//	defer closer.Close()
//
// Scope a logger to one component:
//
//	pluginLogger := logger.With(log.String("plugin", "journal"))
//
// Any type with Debug, Info, Warn, Error and With methods can stand in for
// the adapter.
package log
