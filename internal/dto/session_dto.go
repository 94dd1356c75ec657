package dto

import (
	"github.com/noah-isme/gradx-api/internal/models"
)

// TestNameRequest updates the session's test name.
type TestNameRequest struct {
	TestName string `json:"test_name" validate:"max=200"`
}

// RubricRequest switches the rubric mode and/or replaces the text rubric.
type RubricRequest struct {
	Mode *string `json:"mode" validate:"omitempty,oneof=file text"`
	Text *string `json:"text" validate:"omitempty,max=20000"`
}

// AcceptGradeRequest optionally carries the name the grader confirmed.
type AcceptGradeRequest struct {
	StudentName string `json:"student_name" validate:"max=200"`
}

// ArtifactResponse summarises an uploaded document without its content.
type ArtifactResponse struct {
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// NewArtifactResponse converts an artifact, returning nil for an empty slot.
func NewArtifactResponse(artifact *models.UploadedArtifact) *ArtifactResponse {
	if artifact == nil {
		return nil
	}
	return &ArtifactResponse{
		Name:      artifact.Name,
		MimeType:  artifact.MimeType,
		SizeBytes: artifact.SizeBytes,
		Checksum:  artifact.Checksum,
	}
}

// QuestionResultResponse is one row of the score breakdown.
type QuestionResultResponse struct {
	QuestionID string  `json:"question_id"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Feedback   string  `json:"feedback"`
}

// GradingResultResponse is the serialized grading result with derived display fields.
type GradingResultResponse struct {
	StudentName     string                   `json:"student_name"`
	Transcription   string                   `json:"transcription"`
	TotalScore      float64                  `json:"total_score"`
	MaxTotalScore   float64                  `json:"max_total_score"`
	Percentage      int                      `json:"percentage"`
	Band            string                   `json:"band"`
	SummaryFeedback string                   `json:"summary_feedback"`
	Breakdown       []QuestionResultResponse `json:"breakdown"`
}

// NewGradingResultResponse converts a grading result preserving breakdown order.
func NewGradingResultResponse(result models.GradingResult) GradingResultResponse {
	breakdown := make([]QuestionResultResponse, 0, len(result.Breakdown))
	for _, q := range result.Breakdown {
		breakdown = append(breakdown, QuestionResultResponse{
			QuestionID: q.QuestionID,
			Score:      q.Score,
			MaxScore:   q.MaxScore,
			Feedback:   q.Feedback,
		})
	}
	return GradingResultResponse{
		StudentName:     result.StudentName,
		Transcription:   result.Transcription,
		TotalScore:      result.TotalScore,
		MaxTotalScore:   result.MaxTotalScore,
		Percentage:      result.Percentage(),
		Band:            string(result.Band()),
		SummaryFeedback: result.SummaryFeedback,
		Breakdown:       breakdown,
	}
}

// SessionResponse is the serialized session snapshot.
type SessionResponse struct {
	State           string                 `json:"state"`
	TestName        string                 `json:"test_name"`
	RubricMode      string                 `json:"rubric_mode"`
	RubricText      string                 `json:"rubric_text"`
	StudentArtifact *ArtifactResponse      `json:"student_artifact"`
	RubricArtifact  *ArtifactResponse      `json:"rubric_artifact"`
	Result          *GradingResultResponse `json:"result"`
	Error           string                 `json:"error,omitempty"`
	Accepted        bool                   `json:"accepted"`
	Submitted       bool                   `json:"submitted"`
	CanStartGrading bool                   `json:"can_start_grading"`
	HistoryCount    int                    `json:"history_count"`
	ChatCount       int                    `json:"chat_count"`
}

// NewSessionResponse converts a session snapshot into a DTO.
func NewSessionResponse(snapshot models.SessionSnapshot) SessionResponse {
	response := SessionResponse{
		State:           string(snapshot.State),
		TestName:        snapshot.TestName,
		RubricMode:      string(snapshot.RubricMode),
		RubricText:      snapshot.RubricText,
		StudentArtifact: NewArtifactResponse(snapshot.StudentArtifact),
		RubricArtifact:  NewArtifactResponse(snapshot.RubricArtifact),
		Error:           snapshot.Error,
		Accepted:        snapshot.Accepted,
		Submitted:       snapshot.Submitted,
		CanStartGrading: snapshot.CanStartGrading,
		HistoryCount:    snapshot.HistoryCount,
		ChatCount:       snapshot.ChatCount,
	}
	if snapshot.Result != nil {
		result := NewGradingResultResponse(*snapshot.Result)
		response.Result = &result
	}
	return response
}
