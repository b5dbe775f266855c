package fraud

import (
	"strings"
	"testing"
	"time"

	"github.com/fature/cpa-engine/internal/domain"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector()
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	d.now = func() time.Time {
		return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	}
	return d
}

func TestDetect(t *testing.T) {
	registeredDaysAgo := func(d *Detector, days int) time.Time {
		return d.now().AddDate(0, 0, -days)
	}

	t.Run("CleanInput", func(t *testing.T) {
		d := newTestDetector(t)
		verdict := d.Detect(domain.ValidationInput{
			DepositAmount:    100,
			BetCount:         20,
			GGRAmount:        50,
			RegistrationDate: registeredDaysAgo(d, 10),
		})
		if verdict.Suspicious {
			t.Errorf("expected clean verdict, matched %v", verdict.MatchedPatterns)
		}
	})

	t.Run("HighDepositLowBets", func(t *testing.T) {
		d := newTestDetector(t)
		verdict := d.Detect(domain.ValidationInput{
			DepositAmount:    2000,
			BetCount:         3,
			GGRAmount:        100,
			RegistrationDate: registeredDaysAgo(d, 10),
		})
		if !verdict.Suspicious {
			t.Fatal("expected suspicious verdict")
		}
		if !matchedAny(verdict, "high deposit") {
			t.Errorf("expected high-deposit pattern, matched %v", verdict.MatchedPatterns)
		}
	})

	t.Run("DeepNegativeGGR", func(t *testing.T) {
		d := newTestDetector(t)
		verdict := d.Detect(domain.ValidationInput{
			DepositAmount:    100,
			BetCount:         20,
			GGRAmount:        -600,
			RegistrationDate: registeredDaysAgo(d, 10),
		})
		if !matchedAny(verdict, "GGR below") {
			t.Errorf("expected negative-GGR pattern, matched %v", verdict.MatchedPatterns)
		}
	})

	t.Run("BetBurstAfterRegistration", func(t *testing.T) {
		d := newTestDetector(t)
		verdict := d.Detect(domain.ValidationInput{
			DepositAmount:    100,
			BetCount:         60,
			GGRAmount:        50,
			RegistrationDate: d.now().Add(-6 * time.Hour),
		})
		if !matchedAny(verdict, "within one day") {
			t.Errorf("expected bet-burst pattern, matched %v", verdict.MatchedPatterns)
		}
	})

	t.Run("ExcessiveAverageStake", func(t *testing.T) {
		d := newTestDetector(t)
		verdict := d.Detect(domain.ValidationInput{
			DepositAmount:    900,
			BetCount:         2,
			GGRAmount:        50,
			RegistrationDate: registeredDaysAgo(d, 10),
		})
		if !matchedAny(verdict, "average stake") {
			t.Errorf("expected average-stake pattern, matched %v", verdict.MatchedPatterns)
		}
	})

	t.Run("GGRDepositMismatch", func(t *testing.T) {
		d := newTestDetector(t)
		verdict := d.Detect(domain.ValidationInput{
			DepositAmount:    100,
			BetCount:         20,
			GGRAmount:        250,
			RegistrationDate: registeredDaysAgo(d, 10),
		})
		if !matchedAny(verdict, "twice the deposit") {
			t.Errorf("expected GGR-mismatch pattern, matched %v", verdict.MatchedPatterns)
		}
	})

	t.Run("MultiplePatternsAccumulate", func(t *testing.T) {
		d := newTestDetector(t)
		// Matches high-deposit-low-bets and excessive average stake.
		verdict := d.Detect(domain.ValidationInput{
			DepositAmount:    2000,
			BetCount:         3,
			GGRAmount:        100,
			RegistrationDate: registeredDaysAgo(d, 10),
		})
		if len(verdict.MatchedPatterns) < 2 {
			t.Errorf("expected at least 2 matches, got %v", verdict.MatchedPatterns)
		}
	})

	t.Run("ZeroBetsAvoidsDivisionByZero", func(t *testing.T) {
		d := newTestDetector(t)
		verdict := d.Detect(domain.ValidationInput{
			DepositAmount:    500,
			BetCount:         0,
			GGRAmount:        0,
			RegistrationDate: registeredDaysAgo(d, 10),
		})
		if matchedAny(verdict, "average stake") {
			t.Errorf("zero bets must not trip the average-stake pattern, matched %v", verdict.MatchedPatterns)
		}
	})
}

func matchedAny(verdict domain.FraudVerdict, fragment string) bool {
	for _, p := range verdict.MatchedPatterns {
		if strings.Contains(p, fragment) {
			return true
		}
	}
	return false
}
