// Package catalog holds the static course structure and joins it with the
// video directory and a learner's ledger.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"learnerportal/internal/keys"
	"learnerportal/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the ordered list of course weeks.
type Catalog struct {
	Weeks []models.Week `yaml:"weeks"`
}

// Default returns the built-in course catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and checks a YAML catalog. Two sessions in the same week
// may not share a day, since they would share both keys.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.Weeks) == 0 {
		return nil, fmt.Errorf("catalog has no weeks")
	}

	seen := make(map[keys.ProgressKey]string)
	for _, week := range c.Weeks {
		for _, session := range week.Sessions {
			if keys.NormalizeDay(session.Day) == "" {
				return nil, fmt.Errorf("session %s in week %d has no day", session.ID, week.ID)
			}
			key := keys.Progress(week.ID, session.Day)
			if other, ok := seen[key]; ok {
				return nil, fmt.Errorf("sessions %s and %s share week %d and day %q", other, session.ID, week.ID, session.Day)
			}
			seen[key] = session.ID
		}
	}
	return &c, nil
}

// Find returns the session taught on day of week.
func (c *Catalog) Find(week int, day string) (models.Session, bool) {
	want := keys.NormalizeDay(day)
	for _, w := range c.Weeks {
		if w.ID != week {
			continue
		}
		for _, s := range w.Sessions {
			if keys.NormalizeDay(s.Day) == want {
				return s, true
			}
		}
	}
	return models.Session{}, false
}

// TotalSessions counts the sessions across all weeks.
func (c *Catalog) TotalSessions() int {
	total := 0
	for _, w := range c.Weeks {
		total += len(w.Sessions)
	}
	return total
}
