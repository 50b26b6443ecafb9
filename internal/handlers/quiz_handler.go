package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"levelquiz/internal/models"
	"levelquiz/internal/service"
)

// QuizHandler serves the quiz flow for the web front-end
type QuizHandler struct {
	assessment *service.AssessmentService
	results    *service.ResultService
	admin      *service.AdminService
	debug      bool
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(assessment *service.AssessmentService, results *service.ResultService, admin *service.AdminService, debug bool) *QuizHandler {
	return &QuizHandler{
		assessment: assessment,
		results:    results,
		admin:      admin,
		debug:      debug,
	}
}

// webStartOptions are the settings for quizzes taken on the web
var webStartOptions = service.StartOptions{LivesEnabled: false}

type startRequest struct {
	Level string `json:"level"`
}

type answerRequest struct {
	Answer *int `json:"answer"`
}

type reportRequest struct {
	Reason string `json:"reason"`
}

// Levels lists the selectable levels
func (h *QuizHandler) Levels(w http.ResponseWriter, r *http.Request) {
	levels := make([]levelDTO, 0, len(models.Levels)+1)
	for _, l := range models.Levels {
		levels = append(levels, levelDTO{Code: string(l), Description: l.Description()})
	}
	levels = append(levels, levelDTO{Code: models.AllLevels.String(), Description: "All levels"})
	respondWithJSON(w, http.StatusOK, levels)
}

// Start begins a quiz for the requested level
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}
	filter, err := models.ParseLevelFilter(req.Level)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Unknown level", "", nil)
		return
	}

	started, err := h.assessment.Start(r.Context(), user.ID, filter, webStartOptions)
	if err != nil {
		respondWithServiceError(w, "Error starting quiz", err)
		return
	}

	if h.debug {
		log.Printf("[DEBUG] User %s started %s quiz with %d questions", user.ID, filter, started.First.Total)
	}
	respondWithJSON(w, http.StatusOK, startResponse{
		SessionID:   started.SessionID,
		Level:       started.Filter.String(),
		Current:     toQuestionState(started.First),
		HintBalance: started.HintBalance,
	})
}

// Answer submits the chosen option for the current question
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Answer == nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}

	outcome, err := h.assessment.SubmitAnswer(r.Context(), user.ID, *req.Answer)
	if err != nil {
		respondWithServiceError(w, "Error submitting answer", err)
		return
	}

	resp := answerResponse{
		Correct:      outcome.Correct,
		CorrectIndex: outcome.CorrectIndex,
		Finished:     outcome.Finished(),
	}
	if outcome.Finished() {
		resp.Result = toFinal(outcome.Final)
	} else {
		next := toQuestionState(*outcome.Next)
		resp.Next = &next
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Current returns the question awaiting an answer. An ended quiz whose
// result could not be saved is retried here.
func (h *QuizHandler) Current(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	view, err := h.assessment.Current(r.Context(), user.ID)
	if errors.Is(err, service.ErrNoActiveSession) {
		final, retryErr := h.assessment.RetryFinish(r.Context(), user.ID)
		if retryErr == nil {
			respondWithJSON(w, http.StatusOK, answerResponse{Finished: true, Result: toFinal(final)})
			return
		}
		if !errors.Is(retryErr, service.ErrNoActiveSession) {
			respondWithServiceError(w, "Error finishing quiz", retryErr)
			return
		}
	}
	if err != nil {
		respondWithServiceError(w, "Error loading current question", err)
		return
	}
	respondWithJSON(w, http.StatusOK, toQuestionState(*view))
}

// Hint spends one hint on the current question
func (h *QuizHandler) Hint(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	outcome, err := h.assessment.UseHint(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error using hint", err)
		return
	}

	resp := hintResponse{Granted: outcome.Granted, Remaining: outcome.Remaining}
	if outcome.Granted {
		idx := outcome.CorrectIndex
		resp.CorrectIndex = &idx
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Abandon drops the running quiz without a result
func (h *QuizHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	abandoned, err := h.assessment.Abandon(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error abandoning quiz", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"abandoned": abandoned})
}

// DailyBonus claims today's free hint
func (h *QuizHandler) DailyBonus(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	outcome, err := h.assessment.ClaimDailyBonus(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error claiming daily bonus", err)
		return
	}
	respondWithJSON(w, http.StatusOK, bonusResponse{
		AlreadyClaimedToday: outcome.AlreadyClaimedToday,
		HintBalance:         outcome.NewBalance,
	})
}

// Results lists the user's latest results
func (h *QuizHandler) Results(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	results, err := h.results.History(r.Context(), user.ID, service.DefaultHistoryLimit)
	if err != nil {
		respondWithServiceError(w, "Error loading results", err)
		return
	}
	respondWithJSON(w, http.StatusOK, toResults(results))
}

// Leaderboard lists the best results
func (h *QuizHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.results.Leaderboard(r.Context(), service.DefaultLeaderboardLimit)
	if err != nil {
		respondWithServiceError(w, "Error loading leaderboard", err)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	respondWithJSON(w, http.StatusOK, entries)
}

// Report files a complaint about a question
func (h *QuizHandler) Report(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	questionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid question id", "", nil)
		return
	}
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}

	report, err := h.admin.ReportQuestion(r.Context(), user.ID, questionID, req.Reason)
	if err != nil {
		respondWithServiceError(w, "Error reporting question", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, report)
}
