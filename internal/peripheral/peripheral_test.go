package peripheral

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/lifepad/internal/domain"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultCharacteristic, cfg.Characteristic.String())
	assert.Equal(t, 6, cfg.Table.Len())

	kind, ok := cfg.Table.Kind("F0:9E:9E:B5:39:46")
	assert.True(t, ok)
	assert.Equal(t, domain.KindRotator, kind)
}

func TestParse(t *testing.T) {
	data := []byte(`
characteristic: 6eaaf297-0cc4-417a-8165-415b75e8e702
rotators: [aa:bb:cc:dd:ee:01]
sliders:
  - AA:BB:CC:DD:EE:02
spawners: []
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Table.Len())
	kind, ok := cfg.Table.Kind("AA:BB:CC:DD:EE:01")
	assert.True(t, ok)
	assert.Equal(t, domain.KindRotator, kind)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "rotators: [unterminated"},
		{"bad characteristic", "characteristic: nope"},
		{"bad address", "sliders: [zz:zz]"},
		{"empty table", ""},
		{"overlapping kinds", "sliders: [AA:BB:CC:DD:EE:01]\nspawners: [aa:bb:cc:dd:ee:01]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParse_EmptyCharacteristicUsesDefault(t *testing.T) {
	cfg, err := Parse([]byte("rotators: [AA:BB:CC:DD:EE:01]"))
	require.NoError(t, err)

	assert.Equal(t, DefaultCharacteristic, cfg.Characteristic.String())
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(Default())
	require.NoError(t, err)

	cfg, err := Parse(data)
	require.NoError(t, err)

	for _, kind := range []domain.DeviceKind{domain.KindRotator, domain.KindSlider, domain.KindSpawner} {
		assert.Equal(t, Default().Table.Addresses(kind), cfg.Table.Addresses(kind))
	}
}

func TestStore_ReloadKeepsTableOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peripherals.yaml")
	s := NewStore(nil)

	require.NoError(t, os.WriteFile(path, []byte("sliders: [AA:BB:CC:DD:EE:02]"), 0o644))
	require.NoError(t, s.Reload(path))
	assert.Equal(t, uint64(1), s.Version())
	assert.True(t, s.Table().Known("AA:BB:CC:DD:EE:02"))

	require.NoError(t, os.WriteFile(path, []byte("sliders: [broken"), 0o644))
	assert.Error(t, s.Reload(path))
	assert.Equal(t, uint64(1), s.Version())
	assert.True(t, s.Table().Known("AA:BB:CC:DD:EE:02"))

	assert.Error(t, s.Reload(filepath.Join(dir, "missing.yaml")))
}

func TestStore_SwapNilIsIgnored(t *testing.T) {
	s := NewStore(nil)

	assert.Equal(t, uint64(0), s.Swap(nil))
	assert.Equal(t, 6, s.Table().Len())
}
