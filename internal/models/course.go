package models

// Session is a single class in the static course catalog.
type Session struct {
	ID          string `json:"id" yaml:"id"`
	Day         string `json:"day" yaml:"day"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Week groups the sessions taught in one course week.
type Week struct {
	ID       int       `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Sessions []Session `json:"sessions" yaml:"sessions"`
}

// SessionView is a catalog session resolved against the video directory and
// the active ledger. It is rebuilt on every read and never cached.
type SessionView struct {
	Session
	Week        int    `json:"week"`
	VideoID     string `json:"videoId"`
	IsCompleted bool   `json:"isCompleted"`
}

// WeekView is a week whose sessions have been resolved.
type WeekView struct {
	ID       int           `json:"id"`
	Title    string        `json:"title"`
	Sessions []SessionView `json:"sessions"`
}

// ChatTurn is one message in a tutor conversation.
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
