package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"learnerportal/internal/ledger"
	"learnerportal/internal/models"
	"learnerportal/internal/video"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if len(c.Weeks) != 4 {
		t.Errorf("len(Weeks) = %d, want 4", len(c.Weeks))
	}
	if got := c.TotalSessions(); got != models.CourseTotalSessions {
		t.Errorf("TotalSessions() = %d, want %d", got, models.CourseTotalSessions)
	}

	s, ok := c.Find(2, "miércoles")
	if !ok || s.ID != "2-3" {
		t.Errorf("Find(2, miércoles) = %+v, %v", s, ok)
	}
	if _, ok := c.Find(5, "lunes"); ok {
		t.Error("Find(5, lunes) found a session in a week that does not exist")
	}
	if _, ok := c.Find(1, "sábado"); ok {
		t.Error("Find(1, sábado) found a session on a day without class")
	}
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "invalid yaml", yaml: "weeks: [\n"},
		{name: "no weeks", yaml: "weeks: []\n"},
		{name: "missing day", yaml: "weeks:\n  - id: 1\n    sessions:\n      - id: a\n"},
		{name: "duplicate day", yaml: "weeks:\n  - id: 1\n    sessions:\n      - {id: a, day: Lunes}\n      - {id: b, day: ' lunes'}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "weeks:\n  - id: 7\n    title: Extra\n    sessions:\n      - {id: '7-1', day: Sábado, title: Repaso}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s, ok := c.Find(7, "SÁBADO"); !ok || s.Title != "Repaso" {
		t.Errorf("Find(7, SÁBADO) = %+v, %v", s, ok)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file error = nil, want error")
	}
}

func TestResolveSession(t *testing.T) {
	session := models.Session{ID: "1-1", Day: "Lunes", Title: "Intro"}
	videos := video.Directory{"1-lunes": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}
	l := ledger.Ledger{"s1-lunes": true}

	view := ResolveSession(session, 1, videos, l)
	if view.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q, want dQw4w9WgXcQ", view.VideoID)
	}
	if !view.IsCompleted {
		t.Error("IsCompleted = false, want true")
	}
	if view.Week != 1 || view.ID != "1-1" || view.Title != "Intro" {
		t.Errorf("view = %+v", view)
	}
}

func TestResolveSessionKeyConventionsStaySeparate(t *testing.T) {
	session := models.Session{ID: "1-1", Day: "Lunes"}
	// Entries stored under the other convention must not resolve.
	videos := video.Directory{"s1-lunes": "https://youtu.be/dQw4w9WgXcQ"}
	l := ledger.Ledger{"1-lunes": true}

	view := ResolveSession(session, 1, videos, l)
	if view.VideoID != "" || view.IsCompleted {
		t.Errorf("view = %+v, want no video and not completed", view)
	}
}

func TestResolveSessionMissingData(t *testing.T) {
	view := ResolveSession(models.Session{ID: "9-1", Day: "Lunes"}, 9, nil, nil)
	if view.VideoID != "" || view.IsCompleted {
		t.Errorf("view = %+v, want empty defaults", view)
	}
}

func TestResolveBareIdentifierFromFeedRow(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	// Video feed row [_, "2", "Miércoles", "abc123xyz89"]: the value is an
	// 11-character string but not a URL, so it must not resolve.
	videos := video.Directory{"2-miércoles": "abc123xyz89"}

	session, ok := c.Find(2, "miércoles")
	if !ok {
		t.Fatal("session for week 2 miércoles not found")
	}
	view := ResolveSession(session, 2, videos, ledger.New())
	if view.VideoID != "" {
		t.Errorf("VideoID = %q, want empty", view.VideoID)
	}
}

func TestCatalogResolve(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	videos := video.Directory{"3-viernes": "https://youtu.be/dQw4w9WgXcQ"}
	l := ledger.Ledger{"s4-lunes": true}

	weeks := c.Resolve(videos, l)
	if len(weeks) != 4 {
		t.Fatalf("len(weeks) = %d, want 4", len(weeks))
	}

	withVideo, completed := 0, 0
	for _, w := range weeks {
		for _, s := range w.Sessions {
			if s.VideoID != "" {
				withVideo++
				if s.Week != 3 || s.Day != "Viernes" {
					t.Errorf("unexpected video on %d %s", s.Week, s.Day)
				}
			}
			if s.IsCompleted {
				completed++
				if s.Week != 4 || s.Day != "Lunes" {
					t.Errorf("unexpected completion on %d %s", s.Week, s.Day)
				}
			}
		}
	}
	if withVideo != 1 || completed != 1 {
		t.Errorf("withVideo = %d, completed = %d; want 1 and 1", withVideo, completed)
	}
}

func TestCountCompleted(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	l := ledger.Ledger{
		"s1-lunes":   true,
		"s1-martes":  false,
		"s2-viernes": true,
		"s9-lunes":   true, // not in the catalog
	}
	if got := c.CountCompleted(l); got != 2 {
		t.Errorf("CountCompleted() = %d, want 2", got)
	}

	all := ledger.New()
	for _, w := range c.Weeks {
		for _, s := range w.Sessions {
			all, _ = ledger.Toggle(all, w.ID, s.Day)
		}
	}
	if got := c.CountCompleted(all); got != c.TotalSessions() {
		t.Errorf("CountCompleted() = %d, want %d", got, c.TotalSessions())
	}
}
