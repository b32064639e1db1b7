package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/civicsync/civicsync-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/me", handlers.Me)
	r.Post("/api/auth/accept-terms", handlers.AcceptTerms)
	r.Put("/api/auth/theme", handlers.UpdateTheme)

	// Profile routes
	r.Get("/api/profile", handlers.GetMyProfile)
	r.Put("/api/profile", handlers.UpsertMyProfile)

	// Issue routes
	r.Post("/api/issues", handlers.CreateIssue)
	r.Get("/api/issues/mine", handlers.GetMyIssues)
	r.Get("/api/issues/{id}", handlers.GetIssue)
	r.Put("/api/issues/{id}/status", handlers.UpdateIssueStatus)

	// Suggestion routes
	r.Post("/api/suggestions", handlers.CreateSuggestion)
	r.Get("/api/suggestions/mine", handlers.GetMySuggestions)
	r.Get("/api/suggestions/{id}", handlers.GetSuggestion)
	r.Put("/api/suggestions/{id}/status", handlers.UpdateSuggestionStatus)

	// Civic space: public browsing, no auth required
	r.Get("/api/civic-space", handlers.GetCivicSpace)
	r.Get("/api/civic-space/trending", handlers.GetTrending)
	r.Get("/api/civic-space/county/{county}", handlers.GetCountyFeed)

	// Appraisals (likes): toggle requires auth, counts are public
	r.Post("/api/appraisals/toggle", handlers.ToggleAppraisal)
	r.Post("/api/appraisals/counts", handlers.GetAppraisalCounts)

	// Admin messages (support tickets)
	r.Post("/api/messages", handlers.CreateAdminMessage)
	r.Get("/api/messages/mine", handlers.GetMyMessages)

	// Admin routes
	r.Post("/api/admin/signin", handlers.AdminSignin)
	r.Post("/api/admin/counties", handlers.AssignCounties)
	r.Get("/api/admin/counties", handlers.GetMyCounties)
	r.Get("/api/admin/users", handlers.ListUsers)
	r.Post("/api/admin/users/ban", handlers.BanUser)
	r.Post("/api/admin/users/unban", handlers.UnbanUser)
	r.Put("/api/admin/profiles", handlers.AdminEditProfile)
	r.Delete("/api/admin/issues/{id}", handlers.AdminDeleteIssue)
	r.Get("/api/admin/messages", handlers.AdminListMessages)
	r.Post("/api/admin/messages/{id}/respond", handlers.RespondToMessage)
	r.Post("/api/admin/messages/{id}/viewed", handlers.MarkMessageViewed)
	r.Get("/api/admin/audit-log", handlers.GetAuditLog)

	// WebSocket endpoint for the public live feed
	r.Get("/ws/feed", handlers.LiveFeed)
}
