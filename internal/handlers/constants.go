package handlers

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 10 << 20

	oauthStateCookie = "oauth_state"

	ErrInvalidRequest      = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrTooManyRequests     = "Too many requests, please try again later"
	ErrInternalServerError = "Internal server error"
	ErrResultNotSaved      = "Your result could not be saved, please try again"
)
