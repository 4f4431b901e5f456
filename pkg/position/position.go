package position

import (
	"fmt"
	"sort"
	"strings"
)

// Place is a zero-based line/character pair in a document.
type Place struct {
	Line      int
	Character int
}

// Range is a span between two places.
type Range struct {
	Start Place
	End   Place
}

// LineRange is an inclusive span of zero-based line numbers, used for
// viewport-style queries.
type LineRange struct {
	Start int
	End   int
}

// Contains reports whether line falls inside the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

func (r LineRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// LineIndex is a precomputed table of line-start offsets for one document
// text, so repeated offset-to-line lookups don't rescan the text.
type LineIndex struct {
	starts []int
	length int
}

// NewLineIndex builds a line index for text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, length: len(text)}
}

// LineFor returns the zero-based line containing offset. Out-of-range offsets
// never fail: a negative offset maps to the first line and an offset past the
// end of the text maps to the last line, a coarse but safe fallback.
func (ix *LineIndex) LineFor(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > ix.length {
		return len(ix.starts) - 1
	}
	// last line start <= offset
	n := sort.Search(len(ix.starts), func(i int) bool {
		return ix.starts[i] > offset
	})
	return n - 1
}

// PlaceFor returns the zero-based line/character for offset, with the same
// fallback behavior as LineFor.
func (ix *LineIndex) PlaceFor(offset int) Place {
	if offset < 0 {
		return Place{}
	}
	if offset > ix.length {
		offset = ix.length
	}
	line := ix.LineFor(offset)
	return Place{Line: line, Character: offset - ix.starts[line]}
}

// LineCount returns the number of lines in the indexed text.
func (ix *LineIndex) LineCount() int {
	return len(ix.starts)
}

// GetLineAndColumn calculates the zero-based line and column for an offset by
// counting newlines, without a prebuilt index. Useful for one-off lookups.
func GetLineAndColumn(text string, offset int) (line, col int) {
	if offset <= 0 {
		return 0, 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	before := text[:offset]
	line = strings.Count(before, "\n")
	lastNewline := strings.LastIndexByte(before, '\n')
	col = offset - lastNewline - 1
	return line, col
}
