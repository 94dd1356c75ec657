package dto

import "github.com/noah-isme/gradx-api/internal/models"

// HistoryItemResponse is a ledger entry as listed to clients.
type HistoryItemResponse struct {
	ID          string                `json:"id"`
	Date        string                `json:"date"`
	TestName    string                `json:"test_name"`
	StudentName string                `json:"student_name"`
	Score       float64               `json:"score"`
	MaxScore    float64               `json:"max_score"`
	Band        string                `json:"band"`
	Result      GradingResultResponse `json:"result"`
}

// NewHistoryItemResponse converts a history item into a DTO.
func NewHistoryItemResponse(item models.HistoryItem) HistoryItemResponse {
	return HistoryItemResponse{
		ID:          item.ID,
		Date:        item.Date,
		TestName:    item.TestName,
		StudentName: item.StudentName,
		Score:       item.Score,
		MaxScore:    item.MaxScore,
		Band:        string(item.Band()),
		Result:      NewGradingResultResponse(item.Result),
	}
}

// NewHistoryItemResponseSlice converts ledger items keeping their order.
func NewHistoryItemResponseSlice(items []models.HistoryItem) []HistoryItemResponse {
	out := make([]HistoryItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewHistoryItemResponse(item))
	}
	return out
}
