package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"levelquiz/internal/service"
	"levelquiz/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondWithJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps service errors onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, verr.Error(), "", nil)
	case errors.Is(err, service.ErrEmptyPool):
		respondWithError(w, http.StatusNotFound, "No questions available for this level", "", nil)
	case errors.Is(err, service.ErrUserBanned):
		respondWithError(w, http.StatusForbidden, "You are banned from taking quizzes", "", nil)
	case errors.Is(err, service.ErrNoActiveSession):
		respondWithError(w, http.StatusConflict, "No quiz in progress", "", nil)
	case errors.Is(err, service.ErrResultNotSaved):
		// The ended quiz is kept; GET /api/quiz/current retries the write
		respondWithError(w, http.StatusServiceUnavailable, ErrResultNotSaved, logMsg, err)
	case errors.Is(err, service.ErrSessionInProgress):
		respondWithError(w, http.StatusConflict, "Quiz is still in progress", "", nil)
	case errors.Is(err, service.ErrInvalidChoice):
		respondWithError(w, http.StatusBadRequest, "Answer is out of range", "", nil)
	case errors.Is(err, service.ErrQuestionNotFound):
		respondWithError(w, http.StatusNotFound, "Question not found", "", nil)
	case errors.Is(err, service.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, "User not found", "", nil)
	case errors.Is(err, service.ErrNotBanned):
		respondWithError(w, http.StatusNotFound, "User is not banned", "", nil)
	case errors.Is(err, service.ErrUsernameTaken):
		respondWithError(w, http.StatusConflict, "Username already taken", "", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid username or password", "", nil)
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(dst)
}
