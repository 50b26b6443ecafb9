package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"levelquiz/internal/models"
	"levelquiz/internal/security"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuth holds the Google sign-in configuration
type GoogleOAuth struct {
	Config      *oauth2.Config
	UserInfoURL string
	State       *security.StateSigner
}

// NewGoogleOAuth configures Google sign-in with its callback under redirectBaseURL
func NewGoogleOAuth(clientID, clientSecret, redirectBaseURL string, state *security.StateSigner) *GoogleOAuth {
	return &GoogleOAuth{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoints.Google,
			RedirectURL:  strings.TrimRight(redirectBaseURL, "/") + "/api/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: googleUserInfoURL,
		State:       state,
	}
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// StartGoogle redirects the browser to Google's consent screen
func (h *AuthHandler) StartGoogle(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		respondWithError(w, http.StatusNotFound, "Google sign-in is not configured", "", nil)
		return
	}

	state := h.google.State.Generate()
	http.SetCookie(w, security.TempCookie(r, oauthStateCookie, state, 10*time.Minute))
	http.Redirect(w, r, h.google.Config.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// GoogleCallback completes Google sign-in and returns an API token
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		respondWithError(w, http.StatusNotFound, "Google sign-in is not configured", "", nil)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state || !h.google.State.Validate(state) {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	http.SetCookie(w, security.DeleteCookie(r, oauthStateCookie))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	token, err := h.google.Config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to exchange OAuth code", "Error exchanging Google code", err)
		return
	}

	info, err := h.google.fetchUser(ctx, token)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to fetch Google profile", "Error fetching Google user", err)
		return
	}

	result, err := h.authService.ExternalLogin(r.Context(), models.ProviderGoogle, info.Subject, info.Email, info.Name)
	if err != nil {
		respondWithServiceError(w, "Error signing in Google user", err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (g *GoogleOAuth) fetchUser(ctx context.Context, token *oauth2.Token) (oauthUserInfo, error) {
	client := g.Config.Client(ctx, token)
	resp, err := client.Get(g.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse Google user info: %w", err)
	}
	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}
