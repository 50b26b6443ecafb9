package handlers

import (
	"log"
	"net/http"

	"levelquiz/internal/service"
)

// AuthHandler handles web account and session endpoints
type AuthHandler struct {
	authService *service.AuthService
	assessment  *service.AssessmentService
	google      *GoogleOAuth
}

// NewAuthHandler creates a new auth handler. google may be nil when Google
// sign-in is not configured.
func NewAuthHandler(authService *service.AuthService, assessment *service.AssessmentService, google *GoogleOAuth) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		assessment:  assessment,
		google:      google,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a web account and returns its token
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}

	result, err := h.authService.Register(r.Context(), req.Username, req.Password, req.FullName, req.Email)
	if err != nil {
		respondWithServiceError(w, "Error registering user", err)
		return
	}

	log.Printf("New web user registered: %s (id %s)", result.User.Username, result.User.ID)
	respondWithJSON(w, http.StatusCreated, result)
}

// Login exchanges a username and password for a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, "Error logging in", err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Session reports the signed-in user and their hint balance
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	balance, err := h.assessment.HintBalance(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading hint balance", err)
		return
	}
	respondWithJSON(w, http.StatusOK, sessionResponse{User: user, HintBalance: balance})
}
