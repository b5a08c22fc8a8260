package catalog

import (
	"learnerportal/internal/ledger"
	"learnerportal/internal/models"
	"learnerportal/internal/video"
)

// ResolveSession attaches the playable video and completion flag to a
// session. It performs no I/O; missing directory or ledger entries resolve to
// "" and false.
func ResolveSession(session models.Session, week int, videos video.Directory, l ledger.Ledger) models.SessionView {
	return models.SessionView{
		Session:     session,
		Week:        week,
		VideoID:     videos.VideoID(week, session.Day),
		IsCompleted: l.Completed(week, session.Day),
	}
}

// Resolve joins every week of the catalog.
func (c *Catalog) Resolve(videos video.Directory, l ledger.Ledger) []models.WeekView {
	out := make([]models.WeekView, 0, len(c.Weeks))
	for _, w := range c.Weeks {
		view := models.WeekView{
			ID:       w.ID,
			Title:    w.Title,
			Sessions: make([]models.SessionView, 0, len(w.Sessions)),
		}
		for _, s := range w.Sessions {
			view.Sessions = append(view.Sessions, ResolveSession(s, w.ID, videos, l))
		}
		out = append(out, view)
	}
	return out
}

// CountCompleted returns how many catalog sessions the ledger marks complete.
// Ledger entries for sessions outside the catalog are not counted.
func (c *Catalog) CountCompleted(l ledger.Ledger) int {
	n := 0
	for _, w := range c.Weeks {
		for _, s := range w.Sessions {
			if l.Completed(w.ID, s.Day) {
				n++
			}
		}
	}
	return n
}
