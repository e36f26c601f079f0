// Package peripheral loads the address-to-kind table of known controllers
// and holds the active copy that the device manager consults.
package peripheral

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/lifepad/internal/domain"
)

// DefaultCharacteristic is the notify characteristic the controllers expose.
const DefaultCharacteristic = "6eaaf297-0cc4-417a-8165-415b75e8e702"

// File is the on-disk form of the peripheral table.
type File struct {
	Characteristic string   `yaml:"characteristic"`
	Rotators       []string `yaml:"rotators"`
	Sliders        []string `yaml:"sliders"`
	Spawners       []string `yaml:"spawners"`
}

// DefaultFile returns the built-in controller set.
func DefaultFile() File {
	return File{
		Characteristic: DefaultCharacteristic,
		Rotators:       []string{"F0:9E:9E:B3:F8:A6", "F0:9E:9E:B5:39:46"},
		Sliders:        []string{"F0:9E:9E:B3:F1:A2", "F0:9E:9E:B4:04:AE"},
		Spawners:       []string{"F0:9E:9E:B3:F1:C2", "F0:9E:9E:B4:00:DE"},
	}
}

// Config is a validated peripheral table plus the characteristic to
// subscribe to.
type Config struct {
	Characteristic uuid.UUID
	Table          *domain.PeripheralTable
}

// Build validates f and converts it into a Config. An empty characteristic
// falls back to DefaultCharacteristic. A table without addresses is rejected.
func (f File) Build() (*Config, error) {
	char := f.Characteristic
	if char == "" {
		char = DefaultCharacteristic
	}
	id, err := uuid.Parse(char)
	if err != nil {
		return nil, fmt.Errorf("characteristic %q: %w", char, err)
	}

	table, err := domain.NewPeripheralTable(map[domain.DeviceKind][]string{
		domain.KindRotator: f.Rotators,
		domain.KindSlider:  f.Sliders,
		domain.KindSpawner: f.Spawners,
	})
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, errors.New("table lists no peripherals")
	}

	return &Config{Characteristic: id, Table: table}, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := DefaultFile().Build()
	if err != nil {
		panic(fmt.Sprintf("peripheral: built-in table is invalid: %v", err))
	}
	return cfg
}

// Parse decodes and validates a YAML table.
func Parse(data []byte) (*Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing peripheral table: %w", err)
	}
	cfg, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("validating peripheral table: %w", err)
	}
	return cfg, nil
}

// Load reads and validates a YAML table from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading peripheral table: %w", err)
	}
	return Parse(data)
}

// Marshal renders cfg back into YAML, kinds in a fixed order.
func Marshal(cfg *Config) ([]byte, error) {
	f := File{Characteristic: cfg.Characteristic.String()}
	for _, a := range cfg.Table.Addresses(domain.KindRotator) {
		f.Rotators = append(f.Rotators, a.String())
	}
	for _, a := range cfg.Table.Addresses(domain.KindSlider) {
		f.Sliders = append(f.Sliders, a.String())
	}
	for _, a := range cfg.Table.Addresses(domain.KindSpawner) {
		f.Spawners = append(f.Spawners, a.String())
	}
	return yaml.Marshal(f)
}
