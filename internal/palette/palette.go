// internal/palette/palette.go
//
// Palette management for the game engine.
//
// Responsibilities:
//   - Load the candidate color set from a YAML file or fall back to the
//     embedded default (`assets/palette.yaml`).
//   - Normalize colors to upper-case `#RRGGBB` and reject duplicates.
//   - Answer membership queries for guess validation.
//
// File format:
//
//	name: primaries
//	colors:
//	  - "#FF0000"
//	  - "#00FF00"
//
// Constraints:
//   • At least two distinct colors.
//   • A palette never changes after it is loaded; callers get copies.

package palette

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/colorguess/assets"
)

// Color is a normalized `#RRGGBB` value.
type Color string

// Palette is an ordered set of distinct colors.
type Palette struct {
	Name   string
	colors []Color
	index  map[Color]struct{}
}

var (
	ErrInvalidColor = errors.New("palette: invalid color")
	ErrDuplicate    = errors.New("palette: duplicate color")
	ErrTooFewColors = errors.New("palette: need at least two colors")
)

// fileFormat mirrors the YAML layout.
type fileFormat struct {
	Name   string   `yaml:"name"`
	Colors []string `yaml:"colors"`
}

// Parse normalizes and validates a single color string.
// Accepts an optional leading '#' and any hex case.
func Parse(s string) (Color, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
			return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
	}
	return Color("#" + s), nil
}

// New builds a palette from raw color strings.
func New(name string, raw []string) (Palette, error) {
	p := Palette{Name: name, index: make(map[Color]struct{}, len(raw))}
	for _, s := range raw {
		c, err := Parse(s)
		if err != nil {
			return Palette{}, err
		}
		if _, dup := p.index[c]; dup {
			return Palette{}, fmt.Errorf("%w: %s", ErrDuplicate, c)
		}
		p.index[c] = struct{}{}
		p.colors = append(p.colors, c)
	}
	if len(p.colors) < 2 {
		return Palette{}, ErrTooFewColors
	}
	return p, nil
}

// Decode parses a YAML palette document.
func Decode(data []byte) (Palette, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Palette{}, fmt.Errorf("palette: decode: %w", err)
	}
	return New(f.Name, f.Colors)
}

// Load reads a palette file. An empty path selects the embedded default.
func Load(path string) (Palette, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, fmt.Errorf("palette: read %s: %w", path, err)
	}
	return Decode(data)
}

// Default returns the embedded six-color palette.
func Default() Palette {
	data, err := assets.DefaultPalette()
	if err != nil {
		panic(err)
	}
	p, err := Decode(data)
	if err != nil {
		panic(err)
	}
	return p
}

// Colors returns a copy of the palette in its canonical order.
func (p Palette) Colors() []Color {
	out := make([]Color, len(p.colors))
	copy(out, p.colors)
	return out
}

// Len reports the number of colors.
func (p Palette) Len() int { return len(p.colors) }

// Contains reports whether c belongs to the palette.
func (p Palette) Contains(c Color) bool {
	_, ok := p.index[c]
	return ok
}
