package scanner

import "fmt"

// RootID is the sentinel ParentID for occurrences that are not enclosed by
// any still-open tag. Occurrence ids start at 1, so 0 never collides.
const RootID = 0

// GroupKey identifies a sibling group: all occurrences sharing a parent and a
// tag name belong to the same group.
type GroupKey struct {
	ParentID int
	Tag      string
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%d/%s", k.ParentID, k.Tag)
}

// TagOccurrence is one observed opening (or self-closing) tag instance.
//
// ID is a monotonically increasing integer assigned in document order,
// contiguous from 1 within one scan. ParentID is the id of the nearest
// enclosing still-open tag, or RootID at top level; the chunked path always
// reports RootID (see ScanChunked).
//
// OrderInGroup, GroupSize and NeedsDisambiguation are zero-valued until the
// occurrence list has been through sibling.Annotate.
type TagOccurrence struct {
	ID       int
	Tag      string
	Offset   int
	Line     int
	ParentID int

	OrderInGroup        int
	GroupSize           int
	NeedsDisambiguation bool
}

// Key returns the sibling-group key for this occurrence.
func (o *TagOccurrence) Key() GroupKey {
	return GroupKey{ParentID: o.ParentID, Tag: o.Tag}
}

func (o *TagOccurrence) String() string {
	return fmt.Sprintf("<%s> #%d @%d (parent %d, %d/%d)", o.Tag, o.ID, o.Offset, o.ParentID, o.OrderInGroup, o.GroupSize)
}
