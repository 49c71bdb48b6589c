package validator

import (
	"sync"

	"github.com/c360/balanceguard/result"
)

// Stats summarizes every request the validator handled.
type Stats struct {
	TotalValidations   int64            `json:"total_validations"`
	FailedValidations  int64            `json:"failed_validations"`
	SuccessRate        float64          `json:"success_rate"`
	ErrorsByRule       map[string]int64 `json:"errors_by_rule"`
	ErrorsByBubbleType map[string]int64 `json:"errors_by_bubble_type"`
}

type stats struct {
	total        int64
	failed       int64
	byRule       map[string]int64
	byBubbleType map[string]int64
}

func newStats() stats {
	return stats{
		byRule:       make(map[string]int64),
		byBubbleType: make(map[string]int64),
	}
}

func (s *stats) record(mu *sync.Mutex, bubbleType string, out *result.ProcessedResult) {
	mu.Lock()
	defer mu.Unlock()

	s.total++
	if out.Valid {
		return
	}
	s.failed++
	s.byBubbleType[bubbleType]++
	for _, issue := range out.Errors {
		s.byRule[issue.Rule]++
	}
}

// Stats returns a copy of the request statistics.
func (v *Validator) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := Stats{
		TotalValidations:   v.stats.total,
		FailedValidations:  v.stats.failed,
		ErrorsByRule:       make(map[string]int64, len(v.stats.byRule)),
		ErrorsByBubbleType: make(map[string]int64, len(v.stats.byBubbleType)),
	}
	if out.TotalValidations > 0 {
		out.SuccessRate = float64(out.TotalValidations-out.FailedValidations) / float64(out.TotalValidations) * 100
	}
	for k, n := range v.stats.byRule {
		out.ErrorsByRule[k] = n
	}
	for k, n := range v.stats.byBubbleType {
		out.ErrorsByBubbleType[k] = n
	}
	return out
}

// ResetStats clears the request statistics.
func (v *Validator) ResetStats() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stats = newStats()
}
