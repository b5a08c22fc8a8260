// Package video resolves hosted-video references from the video feed.
package video

import (
	"regexp"

	"learnerportal/internal/keys"
)

// idLength is the fixed length of a hosted-video identifier.
const idLength = 11

// urlPattern recognizes watch?v=, &v=, embed/, v/, u/x/ and the short-domain
// form, capturing everything up to the next #, & or ?.
var urlPattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ExtractID returns the video identifier embedded in url, or "" when the
// value does not match a known URL shape or the captured segment is not
// exactly 11 characters long.
func ExtractID(url string) string {
	if url == "" {
		return ""
	}
	match := urlPattern.FindStringSubmatch(url)
	if match == nil || len(match[2]) != idLength {
		return ""
	}
	return match[2]
}

// Directory maps content keys to the raw URL recorded in the video feed.
// An empty URL means the session has no video yet. A Directory is built once
// per ingestion and never modified afterwards.
type Directory map[keys.ContentKey]string

// URL returns the raw URL for a session, or "" if none is recorded.
func (d Directory) URL(week int, day string) string {
	return d[keys.Content(week, day)]
}

// VideoID resolves the playable identifier for a session.
func (d Directory) VideoID(week int, day string) string {
	return ExtractID(d.URL(week, day))
}
