package station

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

//go:embed stations.json
var embeddedStations []byte

// MaxSuggestions bounds the result of Match.
const MaxSuggestions = 5

var ErrUnknownStation = errors.New("unknown station")

// Record is a single entry of a stations file.
type Record struct {
	Name string `json:"name"`
}

type file struct {
	Stations []Record `json:"stations"`
}

// Directory is the immutable, ordered catalog of known station names.
type Directory struct {
	names []string
}

func NewDirectory(names []string) *Directory {
	return &Directory{names: slices.Clone(names)}
}

// LoadDirectory reads a stations file. An empty path loads the embedded directory.
func LoadDirectory(path string) (*Directory, error) {
	data := embeddedStations
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading stations file: %w", err)
		}
	}
	return ParseDirectory(data)
}

func ParseDirectory(data []byte) (*Directory, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding stations: %w", err)
	}
	if len(f.Stations) == 0 {
		return nil, fmt.Errorf("no stations found")
	}

	names := make([]string, 0, len(f.Stations))
	for _, s := range f.Stations {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		names = append(names, s.Name)
	}
	return &Directory{names: names}, nil
}

// Names returns a copy of the directory in its original order.
func (d *Directory) Names() []string {
	return slices.Clone(d.names)
}

func (d *Directory) Len() int {
	return len(d.names)
}

// Contains reports whether name is an exact directory entry.
func (d *Directory) Contains(name string) bool {
	return slices.Contains(d.names, name)
}

// Match returns up to MaxSuggestions station names containing query
// case-insensitively, in directory order, skipping excluded names.
// A blank query matches nothing.
func (d *Directory) Match(query string, excluded ...string) []string {
	if strings.TrimSpace(query) == "" {
		return []string{}
	}

	needle := strings.ToLower(query)
	matches := make([]string, 0, MaxSuggestions)
	for _, name := range d.names {
		if !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		if slices.Contains(excluded, name) {
			continue
		}
		matches = append(matches, name)
		if len(matches) == MaxSuggestions {
			break
		}
	}
	return matches
}
