package rules

import (
	"sync"

	"github.com/fature/cpa-engine/internal/domain"
)

// Stats accumulates in-process validation counters. Reset on restart.
type Stats struct {
	mu       sync.Mutex
	total    int64
	approved int64
	rejected int64
	errors   int64
	byOption map[domain.ValidationOption]int64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Total        int64            `json:"total_validations"`
	Approved     int64            `json:"approved"`
	Rejected     int64            `json:"rejected"`
	Errors       int64            `json:"errors"`
	ApprovalRate float64          `json:"approval_rate"`
	ByOption     map[string]int64 `json:"by_option"`
}

// NewStats creates an empty counter set.
func NewStats() *Stats {
	return &Stats{byOption: make(map[domain.ValidationOption]int64)}
}

func (s *Stats) record(result string, option domain.ValidationOption) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	switch result {
	case domain.ResultApproved:
		s.approved++
	case domain.ResultRejected:
		s.rejected++
	default:
		s.errors++
	}
	s.byOption[option]++
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byOption := make(map[string]int64, len(s.byOption))
	for option, n := range s.byOption {
		byOption[string(option)] = n
	}
	rate := 0.0
	if s.total > 0 {
		rate = float64(s.approved) / float64(s.total)
	}
	return StatsSnapshot{
		Total:        s.total,
		Approved:     s.approved,
		Rejected:     s.rejected,
		Errors:       s.errors,
		ApprovalRate: rate,
		ByOption:     byOption,
	}
}
