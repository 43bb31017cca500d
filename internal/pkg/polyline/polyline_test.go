package polyline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("known encoding", func(t *testing.T) {
		// Reference example from the polyline format documentation.
		coords, err := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
		require.NoError(t, err)
		require.Len(t, coords, 3)

		// Output is [lon, lat]
		assert.InDelta(t, -120.2, coords[0][0], 1e-5)
		assert.InDelta(t, 38.5, coords[0][1], 1e-5)
		assert.InDelta(t, -120.95, coords[1][0], 1e-5)
		assert.InDelta(t, 40.7, coords[1][1], 1e-5)
		assert.InDelta(t, -126.453, coords[2][0], 1e-5)
		assert.InDelta(t, 43.252, coords[2][1], 1e-5)
	})

	t.Run("empty string", func(t *testing.T) {
		coords, err := Decode("")
		require.NoError(t, err)
		assert.Empty(t, coords)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := Decode("\x00\x01")
		assert.Error(t, err)
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
		require.NoError(t, err)
		b, err := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	original := [][]float64{
		{-122.33, 47.61},
		{-122.34, 47.62},
		{-122.35, 47.60},
	}

	encoded := Encode(original)
	require.NotEmpty(t, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(original))

	for i := range original {
		assert.InDelta(t, original[i][0], decoded[i][0], 1e-5)
		assert.InDelta(t, original[i][1], decoded[i][1], 1e-5)
	}
}
