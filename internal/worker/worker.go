// Package worker runs the asynchronous audit consumer for validation events.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fature/cpa-engine/internal/domain"
)

// AuditWorker subscribes to completed validations and writes a structured
// audit record for each one. Audit is best-effort: the validation path never
// waits on it.
type AuditWorker struct {
	bus  domain.EventBus
	subs []domain.Subscription
}

// NewAuditWorker creates a worker bound to the given bus.
func NewAuditWorker(bus domain.EventBus) *AuditWorker {
	return &AuditWorker{bus: bus}
}

// Start subscribes to the validation topics.
func (w *AuditWorker) Start(ctx context.Context) error {
	completed, err := w.bus.Subscribe(ctx, domain.TopicValidationCompleted, w.handleCompleted)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.TopicValidationCompleted, err)
	}
	w.subs = append(w.subs, completed)

	flagged, err := w.bus.Subscribe(ctx, domain.TopicFraudFlagged, w.handleFraudFlagged)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.TopicFraudFlagged, err)
	}
	w.subs = append(w.subs, flagged)

	slog.Info("audit worker started")
	return nil
}

// Stop cancels the subscriptions.
func (w *AuditWorker) Stop() {
	for _, sub := range w.subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("audit worker unsubscribe failed",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subs = nil
	slog.Info("audit worker stopped")
}

func (w *AuditWorker) handleCompleted(ctx context.Context, msg *domain.Message) error {
	var result domain.ValidationResult
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		slog.Error("audit worker: bad validation payload",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	slog.Info("validation audit",
		"validation_id", result.ValidationID,
		"affiliate_id", result.AffiliateID,
		"user_id", result.UserID,
		"option", result.Option,
		"result", result.Result,
		"reason", result.Reason,
		"criteria_evaluated", len(result.Outcomes),
		"elapsed_ms", result.ElapsedMs,
	)
	return nil
}

func (w *AuditWorker) handleFraudFlagged(ctx context.Context, msg *domain.Message) error {
	var event struct {
		ValidationID    string   `json:"validation_id"`
		AffiliateID     string   `json:"affiliate_id"`
		UserID          string   `json:"user_id"`
		MatchedPatterns []string `json:"matched_patterns"`
	}
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		slog.Error("audit worker: bad fraud payload",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	slog.Warn("fraud audit",
		"validation_id", event.ValidationID,
		"affiliate_id", event.AffiliateID,
		"user_id", event.UserID,
		"matched_patterns", event.MatchedPatterns,
	)
	return nil
}
