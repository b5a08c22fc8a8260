package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"learnerportal/internal/models"
	"learnerportal/internal/service"
	"learnerportal/internal/transcript"
	"learnerportal/internal/tutor"
	"learnerportal/internal/validation"
)

// PortalHandler serves the learner portal JSON API
type PortalHandler struct {
	portal      *service.PortalService
	transcripts *transcript.Fetcher
	tutor       *tutor.Client
	middleware  *Middleware
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(portal *service.PortalService, transcripts *transcript.Fetcher, tutorClient *tutor.Client, middleware *Middleware) *PortalHandler {
	return &PortalHandler{
		portal:      portal,
		transcripts: transcripts,
		tutor:       tutorClient,
		middleware:  middleware,
	}
}

// Health reports that the server is up
func (h *PortalHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListLearners returns the learner directory, filtered by ?q=
func (h *PortalHandler) ListLearners(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if err := validation.ValidateSearchQuery(query); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	respondJSON(w, http.StatusOK, learnersResponse{Learners: h.portal.Learners(query)})
}

// GetSession returns the device's signed-in learner and CSRF token
func (h *PortalHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	deviceID := GetDeviceFromContext(r.Context())
	resp := sessionResponse{CSRFToken: h.middleware.CSRFToken(deviceID)}
	if learner, ok := h.portal.Session(deviceID); ok {
		resp.SignedIn = true
		resp.Learner = &learner
	}
	respondJSON(w, http.StatusOK, resp)
}

// SignIn selects a learner from the directory for this device
func (h *PortalHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	deviceID := GetDeviceFromContext(r.Context())
	learner, err := h.portal.SignIn(deviceID, req.Email)
	if errors.Is(err, service.ErrLearnerNotFound) {
		respondWithError(w, http.StatusNotFound, ErrLearnerNotFound, "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to sign in", err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		SignedIn:  true,
		Learner:   &learner,
		CSRFToken: h.middleware.CSRFToken(deviceID),
	})
}

// SignOut clears the device's learner and local progress
func (h *PortalHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.portal.SignOut(GetDeviceFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// Dashboard returns the signed-in learner's summary
func (h *PortalHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.portal.Dashboard(GetDeviceFromContext(r.Context()))
	if errors.Is(err, service.ErrNotSignedIn) {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to build dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// ListClasses returns the catalog joined with videos and completion
func (h *PortalHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	weeks := h.portal.Classes(GetDeviceFromContext(r.Context()))
	respondJSON(w, http.StatusOK, classesResponse{Weeks: weeks})
}

// ToggleClass flips completion of one class
func (h *PortalHandler) ToggleClass(w http.ResponseWriter, r *http.Request) {
	session, week, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}

	completed, err := h.portal.Toggle(GetDeviceFromContext(r.Context()), week, session.Day)
	switch {
	case errors.Is(err, service.ErrNotSignedIn):
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	case errors.Is(err, service.ErrSessionNotFound):
		respondWithError(w, http.StatusNotFound, ErrClassNotFound, "", nil)
		return
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to toggle class", err)
		return
	}

	respondJSON(w, http.StatusOK, toggleResponse{Week: week, Day: session.Day, Completed: completed})
}

// GetTranscript returns the markdown notes of one class, when published
func (h *PortalHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	session, week, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}

	markdown, available := h.transcripts.Fetch(r.Context(), week, session.Day)
	respondJSON(w, http.StatusOK, transcriptResponse{
		Week:      week,
		Day:       session.Day,
		Available: available,
		Markdown:  markdown,
	})
}

// AskTutor answers a question using the recent conversation
func (h *PortalHandler) AskTutor(w http.ResponseWriter, r *http.Request) {
	var req tutorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	if err := validation.ValidateChatMessage(req.Message, len(req.History)); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	reply := h.tutor.Reply(r.Context(), req.History, req.Message)
	respondJSON(w, http.StatusOK, tutorResponse{Reply: reply})
}

// Refresh re-reads the feeds and reports what the decoders tolerated
func (h *PortalHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	report := h.portal.Refresh(r.Context())
	snap := h.portal.Snapshot()
	respondJSON(w, http.StatusOK, refreshResponse{
		Failed:          report.Failed,
		Learners:        len(snap.Learners),
		Videos:          len(snap.Videos),
		SkippedRows:     report.SkippedRows,
		DefaultedFields: report.DefaultedFields,
		MalformedBlobs:  report.MalformedBlobs,
		DroppedEntries:  report.DroppedEntries,
	})
}

// sessionFromPath resolves {week} and {day} to a catalog session, writing an
// error response when they do not name one.
func (h *PortalHandler) sessionFromPath(w http.ResponseWriter, r *http.Request) (models.Session, int, bool) {
	week, err := strconv.Atoi(r.PathValue("week"))
	if err == nil {
		err = validation.ValidateWeek(week)
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidWeek, "", nil)
		return models.Session{}, 0, false
	}

	session, err := h.portal.FindSession(week, r.PathValue("day"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrClassNotFound, "", nil)
		return models.Session{}, 0, false
	}
	return session, week, true
}
