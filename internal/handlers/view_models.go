package handlers

import (
	"learnerportal/internal/feeds"
	"learnerportal/internal/models"
)

type learnersResponse struct {
	Learners []models.Learner `json:"learners"`
}

type sessionResponse struct {
	SignedIn  bool            `json:"signedIn"`
	Learner   *models.Learner `json:"learner,omitempty"`
	CSRFToken string          `json:"csrfToken"`
}

type signInRequest struct {
	Email string `json:"email"`
}

type classesResponse struct {
	Weeks []models.WeekView `json:"weeks"`
}

type toggleResponse struct {
	Week      int    `json:"week"`
	Day       string `json:"day"`
	Completed bool   `json:"completed"`
}

type transcriptResponse struct {
	Week      int    `json:"week"`
	Day       string `json:"day"`
	Available bool   `json:"available"`
	Markdown  string `json:"markdown"`
}

type tutorRequest struct {
	History []models.ChatTurn `json:"history"`
	Message string            `json:"message"`
}

type tutorResponse struct {
	Reply string `json:"reply"`
}

type refreshResponse struct {
	Failed          bool               `json:"failed"`
	Learners        int                `json:"learners"`
	Videos          int                `json:"videos"`
	SkippedRows     map[feeds.Feed]int `json:"skippedRows"`
	DefaultedFields map[feeds.Feed]int `json:"defaultedFields"`
	MalformedBlobs  []string           `json:"malformedBlobs"`
	DroppedEntries  int                `json:"droppedEntries"`
}
