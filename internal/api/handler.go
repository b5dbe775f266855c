package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fature/cpa-engine/internal/domain"
	"github.com/fature/cpa-engine/internal/health"
	"github.com/fature/cpa-engine/internal/rules"
)

// Validator is the validation pipeline as the API consumes it.
type Validator interface {
	Validate(ctx context.Context, input domain.ValidationInput) domain.ValidationResult
	Stats() rules.StatsSnapshot
}

// Handler holds dependencies for API handlers.
type Handler struct {
	validator Validator
	store     domain.ConfigStore
	probe     *health.Probe
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(validator Validator, store domain.ConfigStore, probe *health.Probe, version string) *Handler {
	return &Handler{
		validator: validator,
		store:     store,
		probe:     probe,
		version:   version,
	}
}

// ValidateRequest is the request body for POST /api/v1/validate and each
// entry of a batch request.
type ValidateRequest struct {
	UserID           string  `json:"user_id"`
	AffiliateID      string  `json:"affiliate_id"`
	DepositAmount    float64 `json:"deposit_amount"`
	BetCount         int64   `json:"bet_count"`
	GGRAmount        float64 `json:"ggr_amount"`
	RegistrationDate string  `json:"registration_date"`
	ValidationOption string  `json:"validation_option,omitempty"`
}

// toInput validates the request fields and converts to the domain input.
func (r *ValidateRequest) toInput() (domain.ValidationInput, string) {
	if r.UserID == "" {
		return domain.ValidationInput{}, "user_id is required"
	}
	if r.AffiliateID == "" {
		return domain.ValidationInput{}, "affiliate_id is required"
	}
	if r.RegistrationDate == "" {
		return domain.ValidationInput{}, "registration_date is required"
	}

	registeredAt, err := time.Parse(time.RFC3339, r.RegistrationDate)
	if err != nil {
		return domain.ValidationInput{}, "registration_date must be RFC3339"
	}

	option := domain.ValidationOption(r.ValidationOption)
	if option == "" {
		option = domain.DefaultOption
	}
	if !option.Valid() {
		return domain.ValidationInput{}, "validation_option must be opcao1 or opcao2"
	}

	return domain.ValidationInput{
		AffiliateID:      r.AffiliateID,
		UserID:           r.UserID,
		DepositAmount:    r.DepositAmount,
		BetCount:         r.BetCount,
		GGRAmount:        r.GGRAmount,
		RegistrationDate: registeredAt,
		Option:           option,
	}, ""
}

// Validate handles POST /api/v1/validate.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	input, problem := req.toInput()
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	result := h.validator.Validate(r.Context(), input)
	writeData(w, http.StatusOK, result)
}

// BatchValidateRequest is the request body for POST /api/v1/validate/batch.
type BatchValidateRequest struct {
	Leads []ValidateRequest `json:"leads"`
}

// BatchValidateResponse summarizes a batch run.
type BatchValidateResponse struct {
	Total    int                       `json:"total"`
	Approved int                       `json:"approved"`
	Rejected int                       `json:"rejected"`
	Errors   int                       `json:"errors"`
	Results  []domain.ValidationResult `json:"results"`
}

const maxBatchSize = 500

// ValidateBatch handles POST /api/v1/validate/batch. Leads are processed
// in order; a malformed lead yields an error result without aborting the
// rest of the batch.
func (h *Handler) ValidateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if len(req.Leads) == 0 {
		writeError(w, http.StatusBadRequest, "leads must not be empty")
		return
	}
	if len(req.Leads) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "batch exceeds maximum of 500 leads")
		return
	}

	resp := BatchValidateResponse{
		Total:   len(req.Leads),
		Results: make([]domain.ValidationResult, 0, len(req.Leads)),
	}

	for _, lead := range req.Leads {
		input, problem := lead.toInput()
		if problem != "" {
			resp.Errors++
			resp.Results = append(resp.Results, domain.ValidationResult{
				AffiliateID: lead.AffiliateID,
				UserID:      lead.UserID,
				Result:      domain.ResultError,
				Reason:      problem,
				Timestamp:   time.Now().UTC(),
			})
			continue
		}

		result := h.validator.Validate(r.Context(), input)
		switch result.Result {
		case domain.ResultApproved:
			resp.Approved++
		case domain.ResultRejected:
			resp.Rejected++
		default:
			resp.Errors++
		}
		resp.Results = append(resp.Results, result)
	}

	writeData(w, http.StatusOK, resp)
}

// Config handles GET /api/v1/config: the currently resolvable validation
// configuration for both options. Absent keys are omitted.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	keys := []string{
		domain.OptionOne.MinDepositKey(),
		domain.OptionOne.MinBetsKey(),
		domain.OptionOne.MinGGRKey(),
		domain.OptionTwo.MinDepositKey(),
		domain.OptionTwo.MinBetsKey(),
		domain.OptionTwo.MinGGRKey(),
		domain.KeyValidationDays,
		domain.KeyFraudDetection,
	}

	configs := make(map[string]any, len(keys))
	for _, key := range keys {
		if res := h.store.Get(ctx, key); res.Present() {
			configs[key] = res.Value.Any()
		}
	}

	writeData(w, http.StatusOK, configs)
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.validator.Stats())
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.probe.Check(r.Context())

	payload := struct {
		health.Status
		Version string `json:"version"`
	}{Status: status, Version: h.version}

	writeJSON(w, http.StatusOK, payload)
}

// Ready handles GET /ready. The process is ready as soon as it serves HTTP:
// every dependency is optional at request time.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// envelope is the response wrapper for /api/v1 endpoints.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
