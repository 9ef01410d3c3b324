package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tgnpdcl/be-wf-sanctions/internal/apperrors"
	"github.com/tgnpdcl/be-wf-sanctions/internal/service"
	"github.com/tgnpdcl/be-wf-sanctions/internal/workflow"
)

// HTTPHandler exposes the workflow over HTTP. The transport stays thin:
// decode, call the service, encode, map error codes to statuses.
type HTTPHandler struct {
	workflow *service.WorkflowService
	alloc    *service.AllocationService
	log      zerolog.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(wf *service.WorkflowService, alloc *service.AllocationService, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{workflow: wf, alloc: alloc, log: log}
}

type createClaimRequest struct {
	BillID        string `json:"bill_id"`
	HospitalName  string `json:"hospital_name"`
	PatientName   string `json:"patient_name"`
	Category      string `json:"category"`
	LimitType     string `json:"limit_type"`
	ClaimedAmount int64  `json:"claimed_amount"`
}

// CreateClaim enters a bill into the approval workflow.
func (h *HTTPHandler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claim, err := h.workflow.CreateClaim(r.Context(), &service.CreateClaimRequest{
		BillID:        req.BillID,
		HospitalName:  req.HospitalName,
		PatientName:   req.PatientName,
		Category:      workflow.Category(req.Category),
		LimitType:     workflow.LimitType(req.LimitType),
		ClaimedAmount: req.ClaimedAmount,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, claim)
}

// GetClaim returns one claim by ID.
func (h *HTTPHandler) GetClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Claim ID is required", http.StatusBadRequest)
		return
	}

	claim, err := h.workflow.GetClaim(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, claim)
}

type allocateRequest struct {
	ClaimID         string `json:"claim_id"`
	AssigneeID      string `json:"assignee_id"`
	AllocatedBy     string `json:"allocated_by"`
	AllocatedByRole string `json:"allocated_by_role"`
}

// Allocate assigns a claim to a specific approver.
func (h *HTTPHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req allocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claim, err := h.alloc.Allocate(r.Context(), &service.AllocateRequest{
		ClaimID:         req.ClaimID,
		AssigneeID:      req.AssigneeID,
		AllocatedBy:     req.AllocatedBy,
		AllocatedByRole: workflow.Role(req.AllocatedByRole),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, claim)
}

type processRequest struct {
	ClaimID   string `json:"claim_id"`
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
	Action    string `json:"action"`
	Comments  string `json:"comments"`
	Amount    *int64 `json:"amount,omitempty"`
}

type processResponse struct {
	Claim        *workflow.Claim `json:"claim"`
	BillStatus   string          `json:"bill_status"`
	LimitWarning string          `json:"limit_warning,omitempty"`
}

// Process applies one workflow action (FORWARD, REJECT, APPROVE, CLARIFY,
// RESPOND) to a claim.
func (h *HTTPHandler) Process(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.workflow.Transition(r.Context(), &service.TransitionRequest{
		ClaimID:   req.ClaimID,
		ActorID:   req.ActorID,
		ActorRole: workflow.Role(req.ActorRole),
		Action:    workflow.Action(req.Action),
		Comments:  req.Comments,
		Amount:    req.Amount,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, processResponse{
		Claim:        res.Claim,
		BillStatus:   string(res.BillStatus),
		LimitWarning: res.LimitWarning,
	})
}

// Queue returns the pending claims visible to one approver.
func (h *HTTPHandler) Queue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	role := r.URL.Query().Get("role")
	userID := r.URL.Query().Get("user_id")
	if role == "" || userID == "" {
		http.Error(w, "Role and user ID are required", http.StatusBadRequest)
		return
	}

	claims, err := h.alloc.PendingQueue(r.Context(), workflow.Role(role), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"claims": claims,
		"total":  len(claims),
	})
}

// Unfinished returns every non-terminal claim for the allocation dashboard.
func (h *HTTPHandler) Unfinished(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, err := h.alloc.Unfinished(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"claims": claims,
		"total":  len(claims),
	})
}

// History returns a claim's full audit trail.
func (h *HTTPHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Claim ID is required", http.StatusBadRequest)
		return
	}

	entries, err := h.workflow.History(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"code":  string(apperrors.CodeOf(err)),
	})
}
