package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/config"
	"github.com/civicsync/civicsync-backend/internal/models"
	"github.com/civicsync/civicsync-backend/internal/services"
)

var (
	appConfig     *config.Config
	notifier      services.Notifier
	cloudinarySvc *services.CloudinaryService
)

// Init wires the handlers' process-level collaborators. Called once from main.
// cld may be nil; image uploads are then skipped.
func Init(cfg *config.Config, n services.Notifier, cld *services.CloudinaryService) {
	appConfig = cfg
	notifier = n
	cloudinarySvc = cld
}

// errorBody is the JSON shape of every error response: a stable code plus a
// human message, optional structured details.
type errorBody struct {
	Success bool        `json:"success"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, e *apperr.Error) {
	writeJSON(w, apperr.HTTPStatus(e.Kind), errorBody{
		Success: false,
		Code:    string(e.Kind),
		Message: e.Message,
		Details: e.Details,
	})
}

func writeInternal(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("request failed")
	writeError(w, apperr.From(err))
}

func extractBearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

var locationStore services.LocationStore = services.PostgresLocationStore{}
var appraisalStore services.AppraisalStore = services.PostgresAppraisalStore{}

// timeNow is swapped out in tests.
var timeNow = time.Now

// currentPrincipal resolves the caller from the Authorization header. Admin
// sessions are tried first; an admin principal carries its managed counties.
// Any failure degrades to the anonymous principal so public surfaces keep
// working.
func currentPrincipal(r *http.Request) services.Principal {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return services.Anonymous()
	}

	if adminID, ok, err := services.ValidateAdminSession(token); err == nil && ok {
		counties, err := locationStore.CountiesFor(r.Context(), adminID)
		if err != nil {
			log.Warn().Err(err).Msg("failed to load admin counties")
		}
		return services.Principal{Authenticated: true, ID: adminID, Role: models.RoleAdmin, Counties: counties}
	}

	if userID, ok, err := services.ValidateSession(token); err == nil && ok {
		return services.Principal{Authenticated: true, ID: userID, Role: models.RoleUser}
	}

	return services.Anonymous()
}

// requireUser returns the authenticated principal (user or admin), rejecting
// anonymous callers and banned accounts.
func requireUser(w http.ResponseWriter, r *http.Request) (services.Principal, bool) {
	p := currentPrincipal(r)
	if !p.Authenticated {
		writeError(w, apperr.New(apperr.Unauthorized, "You must be signed in"))
		return p, false
	}

	user, err := services.GetUserByID(r.Context(), p.ID)
	if err != nil {
		writeInternal(w, err)
		return p, false
	}
	if user == nil {
		writeError(w, apperr.New(apperr.Unauthorized, "Account no longer exists"))
		return p, false
	}
	if user.BanActive(timeNow()) {
		writeError(w, apperr.New(apperr.Forbidden, "Your account is banned"))
		return p, false
	}

	return p, true
}

// requireAdmin returns the authenticated admin principal or rejects.
func requireAdmin(w http.ResponseWriter, r *http.Request) (services.Principal, bool) {
	p := currentPrincipal(r)
	if !p.Authenticated {
		writeError(w, apperr.New(apperr.Unauthorized, "You must be signed in"))
		return p, false
	}
	if !p.IsAdmin() {
		writeError(w, apperr.New(apperr.Forbidden, "Admin access required"))
		return p, false
	}
	return p, true
}
