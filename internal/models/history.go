package models

// HistoryItem is one completed grading, immutable once appended to the ledger.
type HistoryItem struct {
	ID          string        `json:"id"`
	Date        string        `json:"date"`
	TestName    string        `json:"testName"`
	StudentName string        `json:"studentName"`
	Score       float64       `json:"score"`
	MaxScore    float64       `json:"maxScore"`
	Result      GradingResult `json:"result"`
}

// HistoryDateLayout is the calendar format used for HistoryItem.Date.
const HistoryDateLayout = "2006-01-02"

// DefaultTestName is used when a grading is recorded without a test name.
const DefaultTestName = "Untitled Assessment"

// Clone returns a deep copy of the item.
func (h HistoryItem) Clone() HistoryItem {
	clone := h
	clone.Result = h.Result.Clone()
	return clone
}

// Band classifies the entry for history listings: >= 80% high, >= 50% medium.
func (h HistoryItem) Band() PerformanceBand {
	p := percentage(h.Score, h.MaxScore)
	switch {
	case p >= 80:
		return PerformanceHigh
	case p >= 50:
		return PerformanceMedium
	default:
		return PerformanceLow
	}
}
