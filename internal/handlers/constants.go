package handlers

const (
	ErrInvalidJSON         = "Invalid request body"
	ErrUnauthorized        = "Not signed in"
	ErrForbidden           = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
	ErrLearnerNotFound     = "Learner not found"
	ErrClassNotFound       = "Class not found"
	ErrInvalidWeek         = "Invalid week"
	maxRequestBodyBytes    = 64 << 10
)
