package models

import "testing"

func TestNewLearner(t *testing.T) {
	tests := []struct {
		name        string
		learnerName string
		role        string
		wantInitial string
		wantRole    string
	}{
		{name: "plain name", learnerName: "ana", role: "Analista", wantInitial: "A", wantRole: "Analista"},
		{name: "accented initial", learnerName: "Íñigo", role: "", wantInitial: "Í", wantRole: DefaultRole},
		{name: "empty name", learnerName: "", role: "Dev", wantInitial: "", wantRole: "Dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLearner("a@example.com", tt.learnerName, tt.role, Skills{}, 3)
			if l.AvatarInitial != tt.wantInitial {
				t.Errorf("AvatarInitial = %q, want %q", l.AvatarInitial, tt.wantInitial)
			}
			if l.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", l.Role, tt.wantRole)
			}
			if l.Progress.Total != CourseTotalSessions || l.Progress.Completed != 3 {
				t.Errorf("Progress = %+v", l.Progress)
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		summary ProgressSummary
		want    int
	}{
		{ProgressSummary{Completed: 0, Total: 20}, 0},
		{ProgressSummary{Completed: 7, Total: 20}, 35},
		{ProgressSummary{Completed: 1, Total: 3}, 33},
		{ProgressSummary{Completed: 2, Total: 3}, 67},
		{ProgressSummary{Completed: 20, Total: 20}, 100},
		{ProgressSummary{Completed: 5, Total: 0}, 0},
	}

	for _, tt := range tests {
		if got := tt.summary.Percent(); got != tt.want {
			t.Errorf("Percent(%+v) = %d, want %d", tt.summary, got, tt.want)
		}
	}
}

func TestLearnerMatches(t *testing.T) {
	l := NewLearner("ana@example.com", "Ana Pérez", "Consultora", Skills{}, 0)

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"ana", true},
		{"PÉREZ", true},
		{"consult", true},
		{"  ana  ", true},
		{"example.com", false},
		{"luis", false},
	}

	for _, tt := range tests {
		if got := l.Matches(tt.query); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
