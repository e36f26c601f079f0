package influxstats

import "github.com/bft-labs/lifepad/pkg/lifepad"

// WithInfluxStats returns a lifepad Option that records statistics.
//
// Usage:
//
//	engine, err := lifepad.New(cfg,
//	    influxstats.WithInfluxStats(influxstats.Config{
//	        URL: "http://localhost:8086", Token: token, Org: "home", Bucket: "lifepad",
//	    }),
//	)
func WithInfluxStats(cfg Config) lifepad.Option {
	return lifepad.WithPlugin(New(cfg))
}
