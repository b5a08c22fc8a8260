package handlers

import "net/http"

// NewRouter wires the portal routes. Every /api route runs with a device
// identity; mutations require the CSRF token and the tutor is rate limited.
func NewRouter(h *PortalHandler, m *Middleware) http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("GET /api/learners", h.ListLearners)
	api.HandleFunc("GET /api/session", h.GetSession)
	api.HandleFunc("POST /api/session", m.CSRFProtect(h.SignIn))
	api.HandleFunc("DELETE /api/session", m.CSRFProtect(h.SignOut))
	api.HandleFunc("GET /api/dashboard", h.Dashboard)
	api.HandleFunc("GET /api/classes", h.ListClasses)
	api.HandleFunc("POST /api/classes/{week}/{day}/toggle", m.CSRFProtect(h.ToggleClass))
	api.HandleFunc("GET /api/classes/{week}/{day}/transcript", h.GetTranscript)
	api.HandleFunc("POST /api/tutor", m.CSRFProtect(m.RateLimit(h.AskTutor)))
	api.HandleFunc("POST /api/refresh", m.CSRFProtect(h.Refresh))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("/api/", m.Device(api))

	return Logging(mux)
}
