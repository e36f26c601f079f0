package mqttmirror

import "github.com/bft-labs/lifepad/pkg/lifepad"

// WithMQTTMirror returns a lifepad Option that mirrors state to a broker.
//
// Usage:
//
//	engine, err := lifepad.New(cfg,
//	    mqttmirror.WithMQTTMirror(mqttmirror.Config{Broker: "tcp://broker:1883"}),
//	)
func WithMQTTMirror(cfg Config) lifepad.Option {
	return lifepad.WithPlugin(New(cfg))
}
