package typed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int64  `json:"count" yaml:"count"`
}

func TestCodecFor(t *testing.T) {
	for _, name := range []string{"", "json"} {
		c, err := CodecFor(name)
		require.NoError(t, err)
		assert.Equal(t, "json", c.Name())
	}
	for _, name := range []string{"yaml", "yml"} {
		c, err := CodecFor(name)
		require.NoError(t, err)
		assert.Equal(t, "yaml", c.Name())
	}

	_, err := CodecFor("toml")
	assert.Error(t, err)
}

func TestCodecs_RoundTrip(t *testing.T) {
	in := []sample{{Name: "📅 header\n\n", Count: 1760000000000}}

	for _, c := range []Codec{JSONCodec{}, YAMLCodec{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out []sample
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}
