package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/models"
	"github.com/civicsync/civicsync-backend/internal/services"
)

func parseTarget(kind, id string) (services.TargetRef, *apperr.Error) {
	if kind != models.TargetIssue && kind != models.TargetSuggestion {
		return services.TargetRef{}, apperr.New(apperr.Validation, "type must be issue or suggestion")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return services.TargetRef{}, apperr.New(apperr.Validation, "Invalid item ID")
	}
	return services.TargetRef{Kind: kind, ID: parsed}, nil
}

// AppraisalToggleRequest names the item being liked or unliked.
type AppraisalToggleRequest struct {
	Type string `json:"type"` // issue | suggestion
	ID   string `json:"id"`
}

// AppraisalToggleResponse reports the new state after the toggle.
type AppraisalToggleResponse struct {
	Success bool   `json:"success"`
	Liked   bool   `json:"liked"`
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

// ToggleAppraisal likes the item if the caller hasn't liked it, unlikes it if
// they have. Only public items can be appraised.
func ToggleAppraisal(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AppraisalToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	target, aerr := parseTarget(req.Type, req.ID)
	if aerr != nil {
		writeError(w, aerr)
		return
	}

	liked, count, aerr := services.ToggleAppraisal(r.Context(), appraisalStore, p.ID, target)
	if aerr != nil {
		writeError(w, aerr)
		return
	}

	msg := "Appraisal removed"
	if liked {
		msg = "Appraisal recorded"
	}
	writeJSON(w, http.StatusOK, AppraisalToggleResponse{
		Success: true,
		Liked:   liked,
		Count:   count,
		Message: msg,
	})
}

// AppraisalCountsRequest is the batched counts lookup body.
type AppraisalCountsRequest struct {
	Items []AppraisalToggleRequest `json:"items"`
}

// AppraisalCountsResponse maps "<type>_<id>" to its count. Items with no
// appraisals come back as explicit zeros.
type AppraisalCountsResponse struct {
	Success bool           `json:"success"`
	Counts  map[string]int `json:"counts"`
}

// GetAppraisalCounts returns counts for a batch of items. Public, no
// authentication required.
func GetAppraisalCounts(w http.ResponseWriter, r *http.Request) {
	var req AppraisalCountsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}
	if len(req.Items) == 0 {
		writeError(w, apperr.New(apperr.Validation, "At least one item is required"))
		return
	}

	targets := make([]services.TargetRef, 0, len(req.Items))
	for _, item := range req.Items {
		t, aerr := parseTarget(item.Type, item.ID)
		if aerr != nil {
			writeError(w, aerr)
			return
		}
		targets = append(targets, t)
	}

	counts, aerr := services.AppraisalCounts(r.Context(), appraisalStore, targets)
	if aerr != nil {
		writeError(w, aerr)
		return
	}

	writeJSON(w, http.StatusOK, AppraisalCountsResponse{Success: true, Counts: counts})
}
