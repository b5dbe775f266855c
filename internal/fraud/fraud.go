// Package fraud provides the CEL-based heuristics pass over validation input.
package fraud

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/fature/cpa-engine/internal/domain"
)

// pattern is one suspicious-activity check. Thresholds are compile-time
// constants baked into the expressions, not sourced from configuration.
type pattern struct {
	name        string
	description string
	expression  string
}

var patterns = []pattern{
	{
		name:        "high_deposit_low_bets",
		description: "high deposit (> 1000) with low bet count (< 5)",
		expression:  "deposit_amount > 1000.0 && bet_count < 5",
	},
	{
		name:        "deep_negative_ggr",
		description: "GGR below -500",
		expression:  "ggr_amount < -500.0",
	},
	{
		name:        "bet_burst_after_registration",
		description: "high bet volume (> 50) within one day of registration",
		expression:  "bet_count > 50 && days_since_registration <= 1.0",
	},
	{
		name:        "excessive_average_stake",
		description: "average stake per bet above 200",
		expression:  "avg_bet_amount > 200.0",
	},
	{
		name:        "ggr_deposit_mismatch",
		description: "GGR above twice the deposit amount",
		expression:  "ggr_amount > deposit_amount * 2.0",
	},
}

type compiledPattern struct {
	pattern
	program cel.Program
}

// Detector evaluates the fraud patterns against a validation input.
// Stateless after construction; safe for concurrent use.
type Detector struct {
	programs []compiledPattern
	now      func() time.Time
}

// NewDetector compiles the pattern expressions.
func NewDetector() (*Detector, error) {
	env, err := cel.NewEnv(
		cel.Variable("deposit_amount", cel.DoubleType),
		cel.Variable("bet_count", cel.IntType),
		cel.Variable("ggr_amount", cel.DoubleType),
		cel.Variable("days_since_registration", cel.DoubleType),
		cel.Variable("avg_bet_amount", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	programs := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		ast, issues := env.Compile(p.expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile pattern %s: %w", p.name, issues.Err())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build program for pattern %s: %w", p.name, err)
		}
		programs = append(programs, compiledPattern{pattern: p, program: program})
	}

	return &Detector{
		programs: programs,
		now:      time.Now,
	}, nil
}

// Detect runs the patterns in order and collects matches. The check is total:
// an evaluation fault is logged and treated as no-match, so a heuristics bug
// never blocks a legitimate approval.
func (d *Detector) Detect(input domain.ValidationInput) domain.FraudVerdict {
	avgBet := 0.0
	if input.BetCount > 0 {
		avgBet = input.DepositAmount / float64(input.BetCount)
	}

	daysSinceRegistration := d.now().Sub(input.RegistrationDate).Hours() / 24

	activation := map[string]any{
		"deposit_amount":          input.DepositAmount,
		"bet_count":               input.BetCount,
		"ggr_amount":              input.GGRAmount,
		"days_since_registration": daysSinceRegistration,
		"avg_bet_amount":          avgBet,
	}

	var verdict domain.FraudVerdict
	for _, p := range d.programs {
		out, _, err := p.program.Eval(activation)
		if err != nil {
			slog.Warn("fraud pattern evaluation failed",
				"pattern", p.name,
				"error", err,
			)
			continue
		}
		if matched, ok := out.(types.Bool); ok && bool(matched) {
			verdict.Suspicious = true
			verdict.MatchedPatterns = append(verdict.MatchedPatterns, p.description)
		}
	}

	return verdict
}
