package wumpus

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidLayout = errors.New("invalid layout")

// Layout is the static part of the world, shared by every episode of a run
type Layout struct {
	Size     int        `json:"size" yaml:"size"`
	Start    Position   `json:"start" yaml:"start"`
	Wumpus   Position   `json:"wumpus" yaml:"wumpus"`
	Treasure Position   `json:"treasure" yaml:"treasure"`
	Pits     []Position `json:"pits" yaml:"pits"`
}

// DefaultLayout is the classic 4x4 board
func DefaultLayout() *Layout {
	return &Layout{
		Size:     4,
		Start:    Position{1, 1},
		Wumpus:   Position{1, 3},
		Treasure: Position{2, 3},
		Pits:     []Position{{3, 1}, {3, 3}, {4, 4}},
	}
}

func (l *Layout) InBounds(p Position) bool {
	return p.X >= 1 && p.X <= l.Size && p.Y >= 1 && p.Y <= l.Size
}

func (l *Layout) IsPit(p Position) bool {
	for _, pit := range l.Pits {
		if pit.Eq(p) {
			return true
		}
	}
	return false
}

// Validate checks that every cell is on the board and that the start and
// treasure cells are safe
func (l *Layout) Validate() error {
	if l.Size < 1 {
		return errors.Wrapf(ErrInvalidLayout, "size %d", l.Size)
	}
	cells := map[string]Position{
		"start":    l.Start,
		"wumpus":   l.Wumpus,
		"treasure": l.Treasure,
	}
	for name, p := range cells {
		if !l.InBounds(p) {
			return errors.Wrapf(ErrInvalidLayout, "%s %s out of bounds", name, p)
		}
	}
	for _, pit := range l.Pits {
		if !l.InBounds(pit) {
			return errors.Wrapf(ErrInvalidLayout, "pit %s out of bounds", pit)
		}
	}
	if l.Start.Eq(l.Wumpus) || l.IsPit(l.Start) {
		return errors.Wrap(ErrInvalidLayout, "start cell is a hazard")
	}
	if l.Treasure.Eq(l.Wumpus) || l.IsPit(l.Treasure) {
		return errors.Wrap(ErrInvalidLayout, "treasure cell is a hazard")
	}
	return nil
}

// LoadLayout reads a YAML layout file
func LoadLayout(path string) (*Layout, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading layout")
	}
	return ParseLayout(bs)
}

func ParseLayout(bs []byte) (*Layout, error) {
	l := &Layout{}
	if err := yaml.Unmarshal(bs, l); err != nil {
		return nil, errors.Wrap(err, "parsing layout")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}
