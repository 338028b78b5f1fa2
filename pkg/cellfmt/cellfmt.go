// Package cellfmt prepares free text, such as error messages, for a single
// table cell.
package cellfmt

import (
	"strconv"
	"strings"
)

// DefaultMaxLen is the width error and dependency cells are cut to.
const DefaultMaxLen = 60

// minLen leaves room for one rune plus the ellipsis.
const minLen = 4

// Cell collapses all whitespace in s to single spaces and cuts the result
// to maxLen runes, ending it with "..." when something was cut. A maxLen
// below 4 is raised to 4.
func Cell(s string, maxLen int) string {
	if maxLen < minLen {
		maxLen = minLen
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// List joins items with ", " and cuts the result like Cell. The count of
// items that did not fit is appended so that a cut list stays informative.
func List(items []string, maxLen int) string {
	joined := strings.Join(items, ", ")
	if len([]rune(joined)) <= maxLen || len(items) < 2 {
		return Cell(joined, maxLen)
	}
	for n := len(items) - 1; n > 0; n-- {
		s := strings.Join(items[:n], ", ") + ", +" + strconv.Itoa(len(items)-n) + " more"
		if len([]rune(s)) <= maxLen {
			return s
		}
	}
	return Cell(joined, maxLen)
}
