package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "LIFEPAD_"

// ApplyEnvConfig applies LIFEPAD_* environment variables to cfg. Flags
// that were set explicitly (changed map) win.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("id", env("ID"), &cfg.ID)
	s.setString("display", env("DISPLAY"), &cfg.Display)
	s.setString("input", env("INPUT"), &cfg.Input)
	s.setString("script", env("SCRIPT"), &cfg.ScriptPath)
	s.setString("table", env("TABLE"), &cfg.TablePath)
	s.setString("fb-device", env("FB_DEVICE"), &cfg.FBDevice)
	s.setString("gpio-chip", env("GPIO_CHIP"), &cfg.GPIOChip)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", env("LOG_FILE"), &cfg.LogFile)
	s.setString("mqtt-broker", env("MQTT_BROKER"), &cfg.MQTTBroker)
	s.setString("mqtt-username", env("MQTT_USERNAME"), &cfg.MQTTUsername)
	s.setString("mqtt-password", env("MQTT_PASSWORD"), &cfg.MQTTPassword)
	s.setString("influx-url", env("INFLUX_URL"), &cfg.InfluxURL)
	s.setString("influx-token", env("INFLUX_TOKEN"), &cfg.InfluxToken)
	s.setString("influx-org", env("INFLUX_ORG"), &cfg.InfluxOrg)
	s.setString("influx-bucket", env("INFLUX_BUCKET"), &cfg.InfluxBucket)
	s.setString("journal", env("JOURNAL"), &cfg.JournalPath)

	if err := s.setDuration("step-interval", env("STEP_INTERVAL"), &cfg.StepInterval); err != nil {
		return err
	}
	if err := s.setDuration("scan-timeout", env("SCAN_TIMEOUT"), &cfg.ScanTimeout); err != nil {
		return err
	}
	if err := s.setDuration("grace-window", env("GRACE_WINDOW"), &cfg.GraceWindow); err != nil {
		return err
	}
	if err := s.setIntFromString("max-connect-retries", env("MAX_CONNECT_RETRIES"), &cfg.MaxConnectRetries); err != nil {
		return err
	}
	if err := s.setIntFromString("influx-every", env("INFLUX_EVERY"), &cfg.InfluxEvery); err != nil {
		return err
	}

	s.setBoolFromString("simulate", env("SIMULATE"), &cfg.Simulate)
	s.setBoolFromString("log-json", env("LOG_JSON"), &cfg.LogJSON)
	return nil
}
