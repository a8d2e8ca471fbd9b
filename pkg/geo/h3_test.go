package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellToLonLat(t *testing.T) {
	// Resolution 8 cell covering San Francisco.
	lon, lat, err := CellToLonLat("8828308281fffff")
	require.NoError(t, err)
	assert.InDelta(t, -122.4, lon, 0.2)
	assert.InDelta(t, 37.77, lat, 0.2)
}

func TestCellToLonLat_Invalid(t *testing.T) {
	for _, id := range []string{"", "not-hex", "ffffffffffffffff"} {
		_, _, err := CellToLonLat(id)
		assert.ErrorIs(t, err, ErrInvalidCell, id)
	}
}
