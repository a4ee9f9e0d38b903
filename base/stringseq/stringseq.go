// Package stringseq builds strings from iterator sequences.
package stringseq

import (
	"fmt"
	"iter"
	"strings"
)

// Join concatenates the elements of a sequence into a single string,
// placing sep between consecutive elements.
func Join(seq iter.Seq[string], sep string) string {
	var b strings.Builder
	first := true
	for item := range seq {
		if !first {
			b.WriteString(sep)
		}
		b.WriteString(item)
		first = false
	}
	return b.String()
}

// JoinStringer concatenates the string representations of the elements of
// a sequence into a single string, placing sep between consecutive elements.
func JoinStringer[T fmt.Stringer](seq iter.Seq[T], sep string) string {
	return Join(func(yield func(string) bool) {
		for item := range seq {
			if !yield(item.String()) {
				return
			}
		}
	}, sep)
}
