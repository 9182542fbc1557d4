// Package midi holds the tracked project entities: automation and piano
// tracks with their event sequences and clip patterns. Each track implements
// the version-control contract, exposing its mutable facets as deltas and
// accepting foreign versions through the checkout protocol.
package midi

import (
	"errors"
	"fmt"
	"strconv"
)

// Colour is an ARGB value. Its canonical form is the 8-hex-digit string
// ("ffde935f"); colour deltas round-trip through it.
type Colour struct {
	A, R, G, B uint8
}

var DefaultColour = Colour{A: 0xff, R: 0xff, G: 0xff, B: 0xff}

var ErrBadColour = errors.New("midi: colour must be 8 hex digits")

func (c Colour) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x", c.A, c.R, c.G, c.B)
}

func ParseColour(text string) (Colour, error) {
	if len(text) != 8 {
		return Colour{}, ErrBadColour
	}
	argb, err := strconv.ParseUint(text, 16, 32)
	if err != nil {
		return Colour{}, ErrBadColour
	}
	return Colour{
		A: uint8(argb >> 24),
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
	}, nil
}
