// Package rules implements the CPA validation pipeline: criteria resolution,
// rule evaluation and the fraud heuristics gate.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fature/cpa-engine/internal/domain"
	"github.com/fature/cpa-engine/internal/fraud"
	"github.com/fature/cpa-engine/internal/metrics"
)

// Evaluator runs the validation pipeline for a lead. Criteria whose
// configuration cannot be resolved to a present value are skipped, so a
// config-service outage degrades to fewer criteria instead of failing calls.
type Evaluator struct {
	store   domain.ConfigStore
	fraud   *fraud.Detector
	bus     domain.EventBus
	metrics *metrics.Metrics
	stats   *Stats
	now     func() time.Time
}

// NewEvaluator wires the pipeline. bus and metrics may be nil.
func NewEvaluator(store domain.ConfigStore, detector *fraud.Detector, bus domain.EventBus, m *metrics.Metrics) *Evaluator {
	return &Evaluator{
		store:   store,
		fraud:   detector,
		bus:     bus,
		metrics: m,
		stats:   NewStats(),
		now:     time.Now,
	}
}

// Stats returns a snapshot of the in-process counters.
func (e *Evaluator) Stats() StatsSnapshot {
	return e.stats.Snapshot()
}

// Validate evaluates one lead and always returns a result: a panic anywhere
// in the pipeline is recovered into a result with the error status.
func (e *Evaluator) Validate(ctx context.Context, input domain.ValidationInput) (result domain.ValidationResult) {
	start := e.now()
	option := input.Option
	if option == "" {
		option = domain.DefaultOption
	}
	input.Option = option

	result = domain.ValidationResult{
		ValidationID: uuid.NewString(),
		AffiliateID:  input.AffiliateID,
		UserID:       input.UserID,
		Option:       option,
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("validation pipeline panic",
				"validation_id", result.ValidationID,
				"user_id", input.UserID,
				"panic", fmt.Sprint(r),
			)
			result.Result = domain.ResultError
			result.Reason = "internal validation failure"
			result.Outcomes = nil
		}

		result.ElapsedMs = e.now().Sub(start).Milliseconds()
		result.Timestamp = e.now().UTC()

		e.metrics.RecordValidation(result.Result, string(option), input.AffiliateID, e.now().Sub(start))
		e.stats.record(result.Result, option)
		e.publish(ctx, domain.TopicValidationCompleted, result)
	}()

	configs := make(map[string]any)
	outcomes := make([]domain.RuleOutcome, 0, 5)
	allPassed := true

	evaluate := func(res domain.Resolution, check func(domain.ConfigValue) (domain.RuleOutcome, bool)) {
		if !res.Present() {
			return
		}
		outcome, ok := check(res.Value)
		if !ok {
			return
		}
		configs[res.Key] = res.Value.Any()
		outcomes = append(outcomes, outcome)
		if !outcome.Passed {
			allPassed = false
		}
	}

	evaluate(e.store.Get(ctx, option.MinDepositKey()), func(v domain.ConfigValue) (domain.RuleOutcome, bool) {
		min, ok := v.AsFloat()
		if !ok {
			return domain.RuleOutcome{}, false
		}
		return domain.RuleOutcome{
			Description: fmt.Sprintf("deposit %.2f >= minimum %.2f", input.DepositAmount, min),
			Passed:      input.DepositAmount >= min,
		}, true
	})

	evaluate(e.store.Get(ctx, option.MinBetsKey()), func(v domain.ConfigValue) (domain.RuleOutcome, bool) {
		min, ok := v.AsInt()
		if !ok {
			return domain.RuleOutcome{}, false
		}
		return domain.RuleOutcome{
			Description: fmt.Sprintf("bet count %d >= minimum %d", input.BetCount, min),
			Passed:      input.BetCount >= min,
		}, true
	})

	evaluate(e.store.Get(ctx, option.MinGGRKey()), func(v domain.ConfigValue) (domain.RuleOutcome, bool) {
		min, ok := v.AsFloat()
		if !ok {
			return domain.RuleOutcome{}, false
		}
		return domain.RuleOutcome{
			Description: fmt.Sprintf("GGR %.2f >= minimum %.2f", input.GGRAmount, min),
			Passed:      input.GGRAmount >= min,
		}, true
	})

	evaluate(e.store.Get(ctx, domain.KeyValidationDays), func(v domain.ConfigValue) (domain.RuleOutcome, bool) {
		maxDays, ok := v.AsInt()
		if !ok {
			return domain.RuleOutcome{}, false
		}
		days := int64(e.now().Sub(input.RegistrationDate).Hours() / 24)
		return domain.RuleOutcome{
			Description: fmt.Sprintf("registered %d days ago, window %d days", days, maxDays),
			Passed:      days <= maxDays,
		}, true
	})

	if res := e.store.Get(ctx, domain.KeyFraudDetection); res.Present() {
		if enabled, ok := res.Value.AsBool(); ok && enabled {
			configs[res.Key] = res.Value.Any()
			verdict := e.fraud.Detect(input)
			outcomes = append(outcomes, domain.RuleOutcome{
				Description: fraudDescription(verdict),
				Passed:      !verdict.Suspicious,
			})
			if verdict.Suspicious {
				allPassed = false
				e.publishFraud(ctx, result.ValidationID, input, verdict)
			}
		}
	}

	result.Outcomes = outcomes
	result.ConfigsUsed = configs

	if len(outcomes) == 0 {
		slog.Warn("no validation criteria configured, approving by default",
			"validation_id", result.ValidationID,
			"option", option,
		)
		result.Result = domain.ResultApproved
		result.Reason = "no criteria configured"
		return result
	}

	if allPassed {
		result.Result = domain.ResultApproved
		return result
	}

	result.Result = domain.ResultRejected
	result.Reason = rejectionReason(outcomes)
	return result
}

func fraudDescription(verdict domain.FraudVerdict) string {
	if !verdict.Suspicious {
		return "no fraud patterns matched"
	}
	return "fraud patterns matched: " + strings.Join(verdict.MatchedPatterns, "; ")
}

func rejectionReason(outcomes []domain.RuleOutcome) string {
	failed := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Passed {
			failed = append(failed, o.Description)
		}
	}
	return strings.Join(failed, "; ")
}

func (e *Evaluator) publish(ctx context.Context, topic string, payload any) {
	if e.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("marshal event payload", "topic", topic, "error", err)
		return
	}
	if err := e.bus.Publish(ctx, topic, data); err != nil {
		slog.Warn("publish event", "topic", topic, "error", err)
	}
}

type fraudEvent struct {
	ValidationID    string    `json:"validation_id"`
	AffiliateID     string    `json:"affiliate_id"`
	UserID          string    `json:"user_id"`
	MatchedPatterns []string  `json:"matched_patterns"`
	Timestamp       time.Time `json:"timestamp"`
}

func (e *Evaluator) publishFraud(ctx context.Context, validationID string, input domain.ValidationInput, verdict domain.FraudVerdict) {
	e.publish(ctx, domain.TopicFraudFlagged, fraudEvent{
		ValidationID:    validationID,
		AffiliateID:     input.AffiliateID,
		UserID:          input.UserID,
		MatchedPatterns: verdict.MatchedPatterns,
		Timestamp:       e.now().UTC(),
	})
}
