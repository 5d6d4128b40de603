package notice

import (
	"errors"
	"fmt"
	"slices"
)

var ErrUnknownNotice = errors.New("unknown notice")

// DefaultCatalog lists the standard service notices in display order.
var DefaultCatalog = []string{
	"Rijdt niet",
	"Vertraging",
	"Gedeeltelijk opgeheven",
	"Rijdt via andere route",
	"Extra trein",
	"Minder wagons",
	"Stopt niet op alle stations",
	"Vervangend vervoer",
	"Aanrijding persoon",
	"Aanrijding dier",
	"Aanrijding voertuig",
	"Wisselstoring",
	"Defecte trein",
	"Weersomstandigheden",
	"Seinsstoring",
	"Defecte bovenleiding",
}

// Selector is a toggle set over a fixed notice catalog. Selected notices
// keep the order in which they were switched on.
type Selector struct {
	catalog  []string
	selected []string
}

// NewSelector returns a selector over catalog, or DefaultCatalog when empty.
func NewSelector(catalog []string) *Selector {
	if len(catalog) == 0 {
		catalog = DefaultCatalog
	}
	return &Selector{catalog: slices.Clone(catalog)}
}

// Toggle switches notice on or off and returns the resulting selection.
func (s *Selector) Toggle(notice string) ([]string, error) {
	if !slices.Contains(s.catalog, notice) {
		return s.Selected(), fmt.Errorf("%w: %q", ErrUnknownNotice, notice)
	}

	if i := slices.Index(s.selected, notice); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
	} else {
		s.selected = append(s.selected, notice)
	}
	return s.Selected(), nil
}

func (s *Selector) IsSelected(notice string) bool {
	return slices.Contains(s.selected, notice)
}

// Selected returns the selected notices in selection order.
func (s *Selector) Selected() []string {
	return slices.Clone(s.selected)
}

// Catalog returns every known notice in display order.
func (s *Selector) Catalog() []string {
	return slices.Clone(s.catalog)
}
