package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"lz4", "none"}, Available())

	c, err := Get("lz4")
	require.NoError(t, err)
	assert.Equal(t, "lz4", c.Name())

	_, err = Get("zstd")
	assert.Error(t, err)
}

func TestLZ4RoundTrip(t *testing.T) {
	c := &LZ4Compressor{}

	cases := map[string][]byte{
		"empty":          {},
		"tiny":           []byte("ab"),
		"repetitive":     bytes.Repeat([]byte("share-ledger"), 200),
		"incompressible": {0x91, 0x3e, 0x07, 0xc2, 0x55, 0xaa, 0x10, 0xfe},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			enc, err := c.Compress(in)
			require.NoError(t, err)
			out, err := c.Decompress(enc)
			require.NoError(t, err)
			assert.Equal(t, len(in), len(out))
			assert.True(t, bytes.Equal(in, out))
		})
	}
}

func TestLZ4ShrinksRepetitiveData(t *testing.T) {
	in := bytes.Repeat([]byte{0x42}, 4096)
	enc, err := (&LZ4Compressor{}).Compress(in)
	require.NoError(t, err)
	assert.Less(t, len(enc), len(in)/4)
}

func TestLZ4RejectsCorruptFrames(t *testing.T) {
	c := &LZ4Compressor{}
	_, err := c.Decompress(nil)
	assert.ErrorIs(t, err, ErrCorrupt)
	_, err = c.Decompress([]byte{0x07, 0x01})
	assert.ErrorIs(t, err, ErrCorrupt)
}
