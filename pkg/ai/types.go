package ai

import (
	"context"
	"errors"
)

// ErrUnusableResponse indicates the model answered but the payload could not be used.
var ErrUnusableResponse = errors.New("unusable model response")

// GradeRequest carries the artefacts sent to the grading model. Binary documents are base64 encoded.
type GradeRequest struct {
	StudentScript string
	Rubric        string
	RubricIsFile  bool
}

// QuestionScore is the per-question evaluation produced by the model.
type QuestionScore struct {
	QuestionID string  `json:"questionId"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"maxScore"`
	Feedback   string  `json:"feedback"`
}

// GradeResult is the structured grading returned by a Grader.
type GradeResult struct {
	StudentName     string          `json:"studentName"`
	Transcription   string          `json:"transcription"`
	TotalScore      float64         `json:"totalScore"`
	MaxTotalScore   float64         `json:"maxTotalScore"`
	SummaryFeedback string          `json:"summaryFeedback"`
	Breakdown       []QuestionScore `json:"breakdown"`
}

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of a grading conversation.
type Turn struct {
	Role Role
	Text string
}

// ConversationContext is re-sent with every chat turn.
type ConversationContext struct {
	RubricSummary string
	Result        GradeResult
}

// PlanRequest describes the lesson plan to generate.
type PlanRequest struct {
	Topic    string
	Grade    string
	Language string
	Context  string
}

// Grader transcribes and evaluates an answer script against a rubric.
type Grader interface {
	Grade(ctx context.Context, req GradeRequest) (GradeResult, error)
}

// Conversationalist answers follow-up questions about a grading.
type Conversationalist interface {
	Converse(ctx context.Context, prior []Turn, text string, cc ConversationContext) (string, error)
}

// Planner produces lesson plans as heading-marked text.
type Planner interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (string, error)
}
