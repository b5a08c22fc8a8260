package models

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CourseTotalSessions is the fixed denominator of every progress summary.
const CourseTotalSessions = 20

// DefaultRole is assigned when the learner feed leaves the role empty.
const DefaultRole = "Estudiante"

// Skills holds a learner's self-assessed skill scores, each 0-100.
type Skills struct {
	Prompting int `json:"prompting"`
	Tools     int `json:"tools"`
	Analysis  int `json:"analysis"`
}

// ProgressSummary is the feed-supplied completion count for a learner.
type ProgressSummary struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Percent returns the rounded completion percentage.
func (p ProgressSummary) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
}

// Learner represents a program participant as read from the learner feeds.
// Email is the cross-feed join key and is compared exactly.
type Learner struct {
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	Role          string          `json:"role"`
	AvatarInitial string          `json:"avatarInitial"`
	Skills        Skills          `json:"skills"`
	Progress      ProgressSummary `json:"progress"`
}

// NewLearner builds a learner, deriving the avatar initial and defaults.
func NewLearner(email, name, role string, skills Skills, completed int) Learner {
	if role == "" {
		role = DefaultRole
	}
	return Learner{
		Email:         email,
		Name:          name,
		Role:          role,
		AvatarInitial: avatarInitial(name),
		Skills:        skills,
		Progress: ProgressSummary{
			Completed: completed,
			Total:     CourseTotalSessions,
		},
	}
}

// Matches reports whether the query appears in the learner's name or role,
// ignoring case. An empty query matches everyone.
func (l Learner) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Name), query) ||
		strings.Contains(strings.ToLower(l.Role), query)
}

func avatarInitial(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}
