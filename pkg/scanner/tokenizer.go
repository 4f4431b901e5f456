package scanner

import (
	"regexp"

	"github.com/walteh/tagdex/pkg/position"
)

// tagPattern matches tag-shaped substrings: an optional closing slash, a tag
// name, an attribute-ish run free of angle brackets, and an optional
// self-closing slash. This is deliberately a token scanner, not a markup
// grammar: literal angle brackets in text content or comments can produce
// false positives, and malformed markup is tolerated rather than rejected.
var tagPattern = regexp.MustCompile(`<(/?)([A-Za-z_][A-Za-z0-9_.:-]*)([^<>]*?)(/?)>`)

const (
	groupClose = 1
	groupName  = 2
	groupSelf  = 4
)

// Tokenize scans text left to right and returns every opening or self-closing
// tag occurrence in document order, with ParentID populated from a stack of
// currently-open tags.
//
// Close handling is best-effort: a closing tag pops whatever is on top of the
// stack regardless of name, and an unmatched closing tag with an empty stack
// is a no-op. Tokenize never fails.
func Tokenize(text string) []*TagOccurrence {
	lines := position.NewLineIndex(text)

	occurrences := []*TagOccurrence{}
	var stack []int

	for _, m := range tagPattern.FindAllStringSubmatchIndex(text, -1) {
		closing := m[2*groupClose] < m[2*groupClose+1]
		name := text[m[2*groupName]:m[2*groupName+1]]
		selfClosing := m[2*groupSelf] < m[2*groupSelf+1]

		if closing {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			continue
		}

		parent := RootID
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}

		occ := &TagOccurrence{
			ID:       len(occurrences) + 1,
			Tag:      name,
			Offset:   m[0],
			Line:     lines.LineFor(m[0]),
			ParentID: parent,
		}
		occurrences = append(occurrences, occ)

		if !selfClosing {
			stack = append(stack, occ.ID)
		}
	}

	return occurrences
}
