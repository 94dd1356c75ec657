package models

import "math"

// QuestionResult is the per-question slice of a grading result.
type QuestionResult struct {
	QuestionID string  `json:"questionId"`
	Score      float64 `json:"score" validate:"gte=0,ltefield=MaxScore"`
	MaxScore   float64 `json:"maxScore" validate:"gte=0"`
	Feedback   string  `json:"feedback"`
}

// GradingResult is the structured evaluation returned by the grading service.
// Breakdown keeps the question order produced by the service.
type GradingResult struct {
	StudentName     string           `json:"studentName"`
	Transcription   string           `json:"transcription"`
	TotalScore      float64          `json:"totalScore" validate:"gte=0,ltefield=MaxTotalScore"`
	MaxTotalScore   float64          `json:"maxTotalScore" validate:"gte=0"`
	SummaryFeedback string           `json:"summaryFeedback"`
	Breakdown       []QuestionResult `json:"breakdown" validate:"dive"`
}

// Clone returns a deep copy so callers cannot alias the breakdown slice.
func (r GradingResult) Clone() GradingResult {
	clone := r
	if r.Breakdown != nil {
		clone.Breakdown = make([]QuestionResult, len(r.Breakdown))
		copy(clone.Breakdown, r.Breakdown)
	}
	return clone
}

// Percentage returns the rounded share of the maximum score.
func (r GradingResult) Percentage() int {
	return percentage(r.TotalScore, r.MaxTotalScore)
}

// PerformanceBand buckets a percentage the way result cards are coloured.
type PerformanceBand string

const (
	PerformanceHigh   PerformanceBand = "high"
	PerformanceMedium PerformanceBand = "medium"
	PerformanceLow    PerformanceBand = "low"
)

// Band classifies the result: >= 80% high, >= 60% medium.
func (r GradingResult) Band() PerformanceBand {
	p := r.Percentage()
	switch {
	case p >= 80:
		return PerformanceHigh
	case p >= 60:
		return PerformanceMedium
	default:
		return PerformanceLow
	}
}

func percentage(score, max float64) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(score / max * 100))
}
