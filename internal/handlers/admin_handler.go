package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"levelquiz/internal/models"
	"levelquiz/internal/service"
)

// AdminHandler serves the admin API
type AdminHandler struct {
	adminService  *service.AdminService
	backupService *service.BackupService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *service.AdminService, backupService *service.BackupService) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		backupService: backupService,
	}
}

type questionRequest struct {
	Level        string   `json:"level"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

type banRequest struct {
	Reason string `json:"reason"`
}

// Stats returns the dashboard counters
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error loading stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// ListQuestions lists questions, optionally for one level (?level=B1)
func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseLevelFilter(r.URL.Query().Get("level"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Unknown level", "", nil)
		return
	}
	questions, err := h.adminService.ListQuestions(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, "Error listing questions", err)
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}
	respondWithJSON(w, http.StatusOK, questions)
}

// CreateQuestion adds a question
func (h *AdminHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decodeQuestion(w, r)
	if !ok {
		return
	}
	if err := h.adminService.CreateQuestion(r.Context(), q); err != nil {
		respondWithServiceError(w, "Error creating question", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, q)
}

// UpdateQuestion replaces a question
func (h *AdminHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q, ok := h.decodeQuestion(w, r)
	if !ok {
		return
	}
	q.ID = id
	if err := h.adminService.UpdateQuestion(r.Context(), q); err != nil {
		respondWithServiceError(w, "Error updating question", err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

// DeleteQuestion removes a question
func (h *AdminHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteQuestion(r.Context(), id); err != nil {
		respondWithServiceError(w, "Error deleting question", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportQuestions loads an uploaded CSV file (form field "file")
func (h *AdminHandler) ImportQuestions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to parse form", "", nil)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Please select a CSV file", "", nil)
		return
	}
	defer file.Close()

	n, err := h.adminService.ImportQuestionsCSV(r.Context(), file)
	if err != nil {
		respondWithServiceError(w, "Error importing questions", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"imported": n})
}

// ListReports lists question reports
func (h *AdminHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.adminService.ListReports(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error listing reports", err)
		return
	}
	if reports == nil {
		reports = []models.QuestionReport{}
	}
	respondWithJSON(w, http.StatusOK, reports)
}

// ListBans lists banned users
func (h *AdminHandler) ListBans(w http.ResponseWriter, r *http.Request) {
	bans, err := h.adminService.ListBans(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error listing bans", err)
		return
	}
	if bans == nil {
		bans = []models.BanEntry{}
	}
	respondWithJSON(w, http.StatusOK, bans)
}

// Ban blocks a user
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req banRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", nil)
			return
		}
	}
	if err := h.adminService.Ban(r.Context(), models.UserID(id), req.Reason); err != nil {
		respondWithServiceError(w, "Error banning user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unban lifts a ban
func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.adminService.Unban(r.Context(), models.UserID(id)); err != nil {
		respondWithServiceError(w, "Error unbanning user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportDatabase streams a JSON backup for download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("levelquiz_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backupService.ExportToWriter(r.Context(), w); err != nil {
		log.Printf("Error exporting database: %v", err)
		return
	}
	log.Printf("Database exported by admin user %s", user.ID)
}

// ImportDatabase merges an uploaded backup (form field "backup_file")
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to parse form", "", nil)
		return
	}
	file, _, err := r.FormFile("backup_file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Please select a backup file", "", nil)
		return
	}
	defer file.Close()

	summary, err := h.backupService.ImportFromReader(r.Context(), file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to import database: "+err.Error(), "Error importing database", err)
		return
	}
	log.Printf("Database imported successfully by admin user %s", user.ID)
	respondWithJSON(w, http.StatusOK, summary)
}

func (h *AdminHandler) decodeQuestion(w http.ResponseWriter, r *http.Request) (*models.Question, bool) {
	var req questionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return nil, false
	}
	level, err := models.ParseLevel(req.Level)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Unknown level", "", nil)
		return nil, false
	}
	return &models.Question{
		Level:        level,
		Text:         req.Text,
		Options:      req.Options,
		CorrectIndex: req.CorrectIndex,
	}, true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid id", "", nil)
		return 0, false
	}
	return id, true
}
