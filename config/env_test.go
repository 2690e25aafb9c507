package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envFixture struct {
	Name    string            `env:"NAME"`
	Limit   int               `env:"LIMIT"`
	Rate    float64           `env:"RATE"`
	Wait    time.Duration     `env:"WAIT"`
	Ranks   []int             `env:"RANKS"`
	Tags    map[string]string `env:"TAGS"`
	Nested  struct{ On bool `env:"ON"` }
	skipped string            `env:"SKIPPED"`
}

func lookupFrom(m map[string]string) envLookup {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDecodeEnv(t *testing.T) {
	var f envFixture
	err := decodeEnv(reflect.ValueOf(&f).Elem(), lookupFrom(map[string]string{
		"NAME":    "across",
		"LIMIT":   "42",
		"RATE":    "2.5",
		"WAIT":    "90s",
		"RANKS":   "6, 7,",
		"TAGS":    "a=1, b=2",
		"ON":      "true",
		"SKIPPED": "x",
	}))
	require.NoError(t, err)
	assert.Equal(t, "across", f.Name)
	assert.Equal(t, 42, f.Limit)
	assert.Equal(t, 2.5, f.Rate)
	assert.Equal(t, 90*time.Second, f.Wait)
	assert.Equal(t, []int{6, 7}, f.Ranks)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, f.Tags)
	assert.True(t, f.Nested.On)
	assert.Empty(t, f.skipped)
}

func TestDecodeEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"duration": {"WAIT": "soon"},
		"integer":  {"LIMIT": "many"},
		"list":     {"RANKS": "1,two"},
		"pair":     {"TAGS": "novalue"},
		"bool":     {"ON": "maybe"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			var f envFixture
			err := decodeEnv(reflect.ValueOf(&f).Elem(), lookupFrom(env))
			require.Error(t, err)
		})
	}
}
