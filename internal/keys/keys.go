// Package keys builds the composite lookup keys that join the course catalog
// with the video feed and the progress ledger.
//
// Two conventions exist side by side and are never translated into each
// other: content keys ("2-lunes") index the video directory and progress
// keys ("s2-lunes") index a learner's ledger, both locally and in the remote
// snapshot. Keeping them as distinct types makes passing one where the other
// is expected a compile error.
package keys

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ContentKey identifies a session's entry in the video directory.
type ContentKey string

// ProgressKey identifies a session's completion flag in a ledger.
type ProgressKey string

// NormalizeDay lower-cases a free-text day name and trims surrounding
// whitespace. Malformed input normalizes deterministically rather than failing.
func NormalizeDay(raw string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Lower(language.Und).String(strings.TrimSpace(raw))
}

// Content returns the "{week}-{day}" key used by the video feed.
func Content(week int, day string) ContentKey {
	return ContentKey(strconv.Itoa(week) + "-" + NormalizeDay(day))
}

// Progress returns the "s{week}-{day}" key used by progress ledgers.
func Progress(week int, day string) ProgressKey {
	return ProgressKey("s" + strconv.Itoa(week) + "-" + NormalizeDay(day))
}

func (k ContentKey) String() string  { return string(k) }
func (k ProgressKey) String() string { return string(k) }
