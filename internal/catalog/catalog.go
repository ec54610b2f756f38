// Package catalog holds the numbered paths the console can dispatch.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"line-follower/internal/types"
)

// ErrInvalidPathID is returned for ids outside 1..Len()-1.
var ErrInvalidPathID = errors.New("invalid path id")

// Path is one catalogue entry as stored on disk.
type Path struct {
	Name  string   `toml:"name,omitempty"`
	Tasks []string `toml:"tasks"`
}

type file struct {
	Paths []Path `toml:"path"`
}

// Catalog is indexed by path id. Entry 0 is the idle path and is never
// dispatched.
type Catalog struct {
	paths []Path
	seqs  [][]types.Maneuver
}

// Default is the catalogue shipped with the console.
func Default() *Catalog {
	c, err := New([]Path{
		{Name: "idle", Tasks: []string{"end"}},
		{Name: "loop", Tasks: []string{"right", "straight", "right", "right", "right", "end"}},
		{Name: "cross", Tasks: []string{"straight", "left", "end"}},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// New validates every entry up front so lookups cannot fail on a bad name.
func New(paths []Path) (*Catalog, error) {
	if len(paths) < 2 {
		return nil, fmt.Errorf("catalogue needs an idle path and at least one route, got %d entries", len(paths))
	}
	c := &Catalog{paths: paths, seqs: make([][]types.Maneuver, len(paths))}
	for i, p := range paths {
		if len(p.Tasks) == 0 {
			return nil, fmt.Errorf("path %d: no tasks", i)
		}
		seq, err := types.ParseManeuvers(p.Tasks)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		c.seqs[i] = seq
	}
	return c, nil
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}

	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalogue: %w", err)
	}
	return New(f.Paths)
}

// Len counts entries including the idle path.
func (c *Catalog) Len() int {
	return len(c.seqs)
}

// Lookup returns a copy of the sequence for id.
func (c *Catalog) Lookup(id int) ([]types.Maneuver, error) {
	if id < 1 || id >= len(c.seqs) {
		return nil, fmt.Errorf("%w: %d (valid 1..%d)", ErrInvalidPathID, id, len(c.seqs)-1)
	}
	seq := make([]types.Maneuver, len(c.seqs[id]))
	copy(seq, c.seqs[id])
	return seq, nil
}

func (c *Catalog) Name(id int) string {
	if id < 0 || id >= len(c.paths) {
		return ""
	}
	return c.paths[id].Name
}

// Write dumps the catalogue in the same TOML layout Load reads.
func (c *Catalog) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(file{Paths: c.paths})
}
