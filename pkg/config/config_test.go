package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	o := Default()
	assert.False(t, o.FastCSG.RepairBeforeBoolean)
	assert.True(t, o.FastCSG.RetryAfterRepair)
	assert.False(t, o.FastCSG.TrustCorefinement)
	assert.True(t, o.FastCSG.CheckSharedVertices)
	assert.False(t, o.FastCSG.Verbose)
	assert.NotEmpty(t, o.FastCSG.DumpDir)
	assert.Equal(t, 1e-12, o.Tessellation.NormalEpsilon)
	assert.NoError(t, o.Check())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, o Options)
	}{
		{"empty keeps defaults", "", func(t *testing.T, o Options) {
			assert.Equal(t, Default(), o)
		}},
		{"fast-csg section", `
[fast-csg]
repair-before-boolean = true
retry-after-repair = false
check-shared-vertices = no
verbose
dump-dir = /var/tmp/csg
`, func(t *testing.T, o Options) {
			assert.True(t, o.FastCSG.RepairBeforeBoolean)
			assert.False(t, o.FastCSG.RetryAfterRepair)
			assert.False(t, o.FastCSG.CheckSharedVertices)
			assert.True(t, o.FastCSG.Verbose)
			assert.Equal(t, "/var/tmp/csg", o.FastCSG.DumpDir)
			assert.Equal(t, 1e-12, o.Tessellation.NormalEpsilon)
		}},
		{"tessellation section", `
[tessellation]
normal-epsilon = 1e-9
`, func(t *testing.T, o Options) {
			assert.Equal(t, 1e-9, o.Tessellation.NormalEpsilon)
			assert.True(t, o.FastCSG.RetryAfterRepair)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := Parse(tt.text)
			require.NoError(t, err)
			tt.check(t, o)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unknown key", "[fast-csg]\nturbo = true\n"},
		{"bad bool", "[fast-csg]\nverbose = maybe\n"},
		{"negative epsilon", "[tessellation]\nnormal-epsilon = -1\n"},
		{"verbose without dump dir", "[fast-csg]\nverbose = true\ndump-dir =\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csg.ini")
	require.NoError(t, os.WriteFile(path, []byte("[fast-csg]\ntrust-corefinement = true\n"), 0o644))
	o, err := Load(path)
	require.NoError(t, err)
	assert.True(t, o.FastCSG.TrustCorefinement)

	_, err = Load(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}
