package result

import "time"

// NoHistoryMessage is reported by Analytics before any request was processed.
const NoHistoryMessage = "No validation history available"

// Analytics summarizes processed requests.
type Analytics struct {
	Message               string        `json:"message,omitempty"`
	TotalValidations      int64         `json:"total_validations"`
	SuccessRate           float64       `json:"success_rate"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
	HistorySize           int           `json:"history_size"`
	Recent                *RecentTrend  `json:"recent,omitempty"`
}

// RecentTrend covers the newest requests in the history.
type RecentTrend struct {
	Window          int     `json:"window"`
	SuccessRate     float64 `json:"success_rate"`
	AverageErrors   float64 `json:"average_errors"`
	AverageWarnings float64 `json:"average_warnings"`
	// AutoFixRate is the percentage of requests that applied at least one fix.
	AutoFixRate float64 `json:"auto_fix_rate"`
}

type lifetimeTotals struct {
	count          int64
	valid          int64
	processingTime time.Duration
}

func (p *Processor) addToHistory(r *ProcessedResult) {
	entry := HistoryEntry{
		Timestamp:        r.Metadata.Timestamp,
		Valid:            r.Valid,
		ErrorCount:       len(r.Errors),
		WarningCount:     len(r.Warnings),
		ProcessingTime:   r.Metadata.ProcessingTime,
		RulesExecuted:    len(r.RulesApplied),
		AutoFixesApplied: len(r.Metadata.AppliedFixes),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lifetime.count++
	if entry.Valid {
		p.lifetime.valid++
	}
	p.lifetime.processingTime += entry.ProcessingTime

	if err := p.history.Append(entry); err != nil {
		p.logger.Debug("Result history unavailable", "error", err)
	}
}

// Analytics reports lifetime totals and the trend of the last 20 requests.
func (p *Processor) Analytics() Analytics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.lifetime.count == 0 || p.history.Len() == 0 {
		return Analytics{Message: NoHistoryMessage}
	}

	a := Analytics{
		TotalValidations:      p.lifetime.count,
		SuccessRate:           percent(p.lifetime.valid, p.lifetime.count),
		AverageProcessingTime: p.lifetime.processingTime / time.Duration(p.lifetime.count),
		HistorySize:           p.history.Len(),
	}

	recent := p.history.Last(recentWindow)
	trend := &RecentTrend{Window: len(recent)}
	var valid, fixed int64
	var errorsTotal, warningsTotal int
	for _, entry := range recent {
		if entry.Valid {
			valid++
		}
		if entry.AutoFixesApplied > 0 {
			fixed++
		}
		errorsTotal += entry.ErrorCount
		warningsTotal += entry.WarningCount
	}
	n := int64(len(recent))
	trend.SuccessRate = percent(valid, n)
	trend.AutoFixRate = percent(fixed, n)
	trend.AverageErrors = float64(errorsTotal) / float64(n)
	trend.AverageWarnings = float64(warningsTotal) / float64(n)
	a.Recent = trend
	return a
}

// History returns the analytics records, oldest first.
func (p *Processor) History() []HistoryEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.history.Snapshot()
}

// ClearHistory resets the history and lifetime totals.
func (p *Processor) ClearHistory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history.Reset()
	p.lifetime = lifetimeTotals{}
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
