package domain

import (
	"time"
)

// ValidationOption selects which commission criteria set applies to a lead.
type ValidationOption string

const (
	// OptionOne validates deposit + bet count.
	OptionOne ValidationOption = "opcao1"

	// OptionTwo validates deposit + GGR.
	OptionTwo ValidationOption = "opcao2"

	// DefaultOption is used when the request does not name an option.
	DefaultOption = OptionOne
)

// Valid reports whether the option is one of the known criteria sets.
func (o ValidationOption) Valid() bool {
	return o == OptionOne || o == OptionTwo
}

// Configuration keys consumed by the validation pipeline. Option-scoped keys
// are derived per option; the remaining keys are global.
const (
	KeyValidationDays = "cpa.validacao.prazo_dias"
	KeyFraudDetection = "cpa.validacao.deteccao_fraude_ativa"

	keyPrefix = "cpa.validacao."
)

// MinDepositKey is the option-scoped minimum deposit threshold key.
func (o ValidationOption) MinDepositKey() string {
	return keyPrefix + string(o) + ".deposito_minimo"
}

// MinBetsKey is the option-scoped minimum bet count threshold key.
func (o ValidationOption) MinBetsKey() string {
	return keyPrefix + string(o) + ".numero_apostas"
}

// MinGGRKey is the option-scoped minimum GGR threshold key.
func (o ValidationOption) MinGGRKey() string {
	return keyPrefix + string(o) + ".ggr_minimo"
}

// ValidationInput is the activity snapshot for one lead, immutable for the
// duration of a single validation call.
type ValidationInput struct {
	AffiliateID      string           `json:"affiliate_id"`
	UserID           string           `json:"user_id"`
	DepositAmount    float64          `json:"deposit_amount"`
	BetCount         int64            `json:"bet_count"`
	GGRAmount        float64          `json:"ggr_amount"`
	RegistrationDate time.Time        `json:"registration_date"`
	Option           ValidationOption `json:"validation_option"`
}

// RuleOutcome records one criterion that was actually evaluated.
// Criteria whose configuration is absent are skipped and produce no outcome.
type RuleOutcome struct {
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
}

// Validation result statuses.
const (
	ResultApproved = "approved"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// ValidationResult is the verdict for one validation call. Created once per
// call and never mutated after return.
type ValidationResult struct {
	ValidationID string           `json:"validation_id"`
	AffiliateID  string           `json:"affiliate_id"`
	UserID       string           `json:"user_id"`
	Option       ValidationOption `json:"validation_option"`
	Result       string           `json:"result"`
	Reason       string           `json:"reason,omitempty"`
	Outcomes     []RuleOutcome    `json:"outcomes"`
	ConfigsUsed  map[string]any   `json:"configs_used,omitempty"`
	ElapsedMs    int64            `json:"elapsed_ms"`
	Timestamp    time.Time        `json:"timestamp"`
}

// Approved reports whether the lead met every evaluated criterion.
func (r *ValidationResult) Approved() bool {
	return r.Result == ResultApproved
}

// FraudVerdict is the output of the fraud heuristics pass.
// Computed fresh per call; stateless.
type FraudVerdict struct {
	Suspicious      bool     `json:"suspicious"`
	MatchedPatterns []string `json:"matched_patterns,omitempty"`
}
