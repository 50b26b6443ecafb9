package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps bundles what the HTTP API is built from
type RouterDeps struct {
	Middleware   *Middleware
	Auth         *AuthHandler
	Quiz         *QuizHandler
	Admin        *AdminHandler
	CORSOrigins  []string
	RequestLimit time.Duration
}

// NewRouter wires every API route
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(Logging)
	if d.RequestLimit > 0 {
		r.Use(middleware.Timeout(d.RequestLimit))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.With(d.Middleware.RateLimit).Post("/register", d.Auth.Register)
		api.With(d.Middleware.RateLimit).Post("/login", d.Auth.Login)
		api.Get("/auth/google/start", d.Auth.StartGoogle)
		api.Get("/auth/google/callback", d.Auth.GoogleCallback)
		api.Get("/quiz/levels", d.Quiz.Levels)
		api.Get("/leaderboard", d.Quiz.Leaderboard)

		api.Group(func(pr chi.Router) {
			pr.Use(d.Middleware.RequireAuth)

			pr.Get("/session", d.Auth.Session)
			pr.Post("/quiz/start", d.Quiz.Start)
			pr.Post("/quiz/answer", d.Quiz.Answer)
			pr.Get("/quiz/current", d.Quiz.Current)
			pr.Post("/quiz/hint", d.Quiz.Hint)
			pr.Post("/quiz/abandon", d.Quiz.Abandon)
			pr.Post("/bonus/daily", d.Quiz.DailyBonus)
			pr.Get("/user/results", d.Quiz.Results)
			pr.Post("/questions/{id}/report", d.Quiz.Report)

			pr.Route("/admin", func(ar chi.Router) {
				ar.Use(d.Middleware.RequireAdmin)

				ar.Get("/stats", d.Admin.Stats)
				ar.Get("/questions", d.Admin.ListQuestions)
				ar.Post("/questions", d.Admin.CreateQuestion)
				ar.Post("/questions/import", d.Admin.ImportQuestions)
				ar.Put("/questions/{id}", d.Admin.UpdateQuestion)
				ar.Delete("/questions/{id}", d.Admin.DeleteQuestion)
				ar.Get("/reports", d.Admin.ListReports)
				ar.Get("/bans", d.Admin.ListBans)
				ar.Post("/bans/{userID}", d.Admin.Ban)
				ar.Delete("/bans/{userID}", d.Admin.Unban)
				ar.Get("/export", d.Admin.ExportDatabase)
				ar.Post("/import", d.Admin.ImportDatabase)
			})
		})
	})

	return r
}
