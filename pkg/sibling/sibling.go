// Package sibling annotates tag occurrences with their position among
// same-named siblings, so repeated elements under one parent can be told
// apart ("the 3rd <Item> under this parent").
package sibling

import (
	"github.com/walteh/tagdex/pkg/scanner"
)

// Annotate fills OrderInGroup, GroupSize and NeedsDisambiguation on every
// occurrence, grouping by (parent id, tag name). It returns the same slice
// for convenience.
//
// Two passes are unavoidable: the total size of a group is only known once
// the whole document has been seen. Totals are counted first, then ordinals
// are assigned in document order, which guarantees each group's ordinals
// cover exactly 1..GroupSize.
func Annotate(occurrences []*scanner.TagOccurrence) []*scanner.TagOccurrence {
	totals := make(map[scanner.GroupKey]int, len(occurrences))
	for _, occ := range occurrences {
		totals[occ.Key()]++
	}

	ordinals := make(map[scanner.GroupKey]int, len(totals))
	for _, occ := range occurrences {
		key := occ.Key()
		ordinals[key]++

		occ.OrderInGroup = ordinals[key]
		occ.GroupSize = totals[key]
		occ.NeedsDisambiguation = totals[key] > 1
	}

	return occurrences
}
