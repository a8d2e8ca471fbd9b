// Package geo converts hotspot H3 cell ids to coordinates.
package geo

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/uber/h3-go/v4"
)

var ErrInvalidCell = errors.New("invalid h3 cell")

// CellToLonLatFunc resolves an H3 cell id to its center as (lon, lat).
type CellToLonLatFunc func(id string) (lon, lat float64, err error)

// CellToLonLat parses a hex H3 index and returns the center of the cell.
func CellToLonLat(id string) (float64, float64, error) {
	index, err := strconv.ParseUint(id, 16, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w %q: %v", ErrInvalidCell, id, err)
	}

	cell := h3.Cell(index)
	if !cell.IsValid() {
		return 0, 0, fmt.Errorf("%w %q", ErrInvalidCell, id)
	}

	center := cell.LatLng()
	return center.Lng, center.Lat, nil
}
