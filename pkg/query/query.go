// Package query provides pure, stateless filters over a document's tag
// occurrences. Display policy (all vs viewport vs cursor) is the caller's
// business; these functions just slice.
package query

import (
	"github.com/walteh/tagdex/pkg/position"
	"github.com/walteh/tagdex/pkg/scanner"
)

// AllDisambiguated returns the occurrences flagged as needing
// disambiguation, in document order.
func AllDisambiguated(occurrences []*scanner.TagOccurrence) []*scanner.TagOccurrence {
	out := []*scanner.TagOccurrence{}
	for _, occ := range occurrences {
		if occ.NeedsDisambiguation {
			out = append(out, occ)
		}
	}
	return out
}

// InRange returns the subset of occurrences whose line falls inside any of
// the supplied ranges, preserving document order.
func InRange(occurrences []*scanner.TagOccurrence, ranges []position.LineRange) []*scanner.TagOccurrence {
	out := []*scanner.TagOccurrence{}
	for _, occ := range occurrences {
		for _, r := range ranges {
			if r.Contains(occ.Line) {
				out = append(out, occ)
				break
			}
		}
	}
	return out
}

// AtLine returns the first occurrence needing disambiguation on the given
// line, or false if the line has none.
func AtLine(occurrences []*scanner.TagOccurrence, line int) (*scanner.TagOccurrence, bool) {
	for _, occ := range occurrences {
		if occ.Line == line && occ.NeedsDisambiguation {
			return occ, true
		}
	}
	return nil, false
}
