// Package ledger holds a learner's per-session completion flags and their
// local persistence.
package ledger

import (
	"encoding/json"
	"fmt"

	"learnerportal/internal/keys"
)

// Ledger maps progress keys to completion flags. A Ledger handed out by this
// package is treated as immutable: Toggle builds a new map so readers holding
// an older value keep a consistent snapshot.
type Ledger map[keys.ProgressKey]bool

// New returns an empty, non-nil ledger.
func New() Ledger {
	return Ledger{}
}

// Completed reports whether the session is marked complete.
func (l Ledger) Completed(week int, day string) bool {
	return l[keys.Progress(week, day)]
}

// CompletedCount returns the number of entries set to true.
func (l Ledger) CompletedCount() int {
	count := 0
	for _, done := range l {
		if done {
			count++
		}
	}
	return count
}

// Clone returns a copy that shares no storage with l.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Toggle flips the flag for (week, day), treating an absent entry as false.
// It returns the new ledger and the new value; l is left untouched.
func Toggle(l Ledger, week int, day string) (Ledger, bool) {
	key := keys.Progress(week, day)
	next := l.Clone()
	next[key] = !l[key]
	return next, next[key]
}

// Encode serializes the ledger as a JSON object. A nil or empty ledger
// encodes as "{}".
func (l Ledger) Encode() string {
	if l == nil {
		l = New()
	}
	data, err := json.Marshal(map[keys.ProgressKey]bool(l))
	if err != nil {
		// map[string]bool always marshals
		return "{}"
	}
	return string(data)
}

// Decode parses a JSON object into a ledger. Entries whose value is not a
// boolean are dropped and counted; anything that is not a JSON object is an
// error.
func Decode(data []byte) (Ledger, int, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("failed to decode ledger: %w", err)
	}
	if raw == nil {
		return nil, 0, fmt.Errorf("failed to decode ledger: not a JSON object")
	}

	out := make(Ledger, len(raw))
	dropped := 0
	for key, value := range raw {
		var done *bool
		if err := json.Unmarshal(value, &done); err != nil || done == nil {
			dropped++
			continue
		}
		out[keys.ProgressKey(key)] = *done
	}
	return out, dropped, nil
}
