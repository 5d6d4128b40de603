package announcement

import (
	"errors"
	"fmt"
	"strings"
)

var ErrIncompleteSelection = errors.New("incomplete selection: train type, from, to and departure time are required")

// Compose renders the announcement text:
//
//	{type} van {from} naar {to}[ via {stops}], vertrekt om HH:MM[. {notice}. ...]
//
// Intermediate stops and notices are used in the order given.
func Compose(sel Selection, intermediateStops, notices []string) (string, error) {
	if !sel.Complete() {
		return "", ErrIncompleteSelection
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s van %s naar %s", sel.TrainType, sel.From, sel.To)

	if len(intermediateStops) > 0 {
		b.WriteString(" via ")
		b.WriteString(strings.Join(intermediateStops, ", "))
	}

	fmt.Fprintf(&b, ", vertrekt om %02d:%02d", *sel.Hour, *sel.Minute)

	if len(notices) > 0 {
		b.WriteString(". ")
		b.WriteString(strings.Join(notices, ". "))
		b.WriteString(".")
	}

	return b.String(), nil
}
