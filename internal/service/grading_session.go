package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gradx-api/internal/models"
	"github.com/noah-isme/gradx-api/internal/observability"
	"github.com/noah-isme/gradx-api/pkg/ai"
)

const (
	// DefaultTestName is the test name of a fresh session.
	DefaultTestName = "Unit Test 1"
	// DefaultRubricText pre-fills the text rubric.
	DefaultRubricText = "Question 1 (5 marks)..."
	// DefaultGradingTimeout bounds a single grading call.
	DefaultGradingTimeout = 120 * time.Second
	// RubricFileSummary stands in for a PDF rubric in chat context.
	RubricFileSummary = "Rubric provided as PDF."
)

type sessionAction string

const (
	actionStart       sessionAction = "start"
	actionComplete    sessionAction = "complete"
	actionFail        sessionAction = "fail"
	actionAccept      sessionAction = "accept"
	actionSubmit      sessionAction = "submit"
	actionRedo        sessionAction = "redo"
	actionLoadHistory sessionAction = "load_history"
	actionReset       sessionAction = "reset"
)

var sessionTransitions = map[models.SessionState]map[sessionAction]models.SessionState{
	models.SessionStateSetup: {
		actionStart:       models.SessionStateProcessing,
		actionLoadHistory: models.SessionStateResults,
		actionReset:       models.SessionStateSetup,
	},
	models.SessionStateProcessing: {
		actionComplete: models.SessionStateResults,
		actionFail:     models.SessionStateSetup,
		actionReset:    models.SessionStateSetup,
	},
	models.SessionStateResults: {
		actionAccept:      models.SessionStateResults,
		actionSubmit:      models.SessionStateResults,
		actionRedo:        models.SessionStateProcessing,
		actionLoadHistory: models.SessionStateResults,
		actionReset:       models.SessionStateSetup,
	},
}

func transition(from models.SessionState, action sessionAction) (models.SessionState, error) {
	next, ok := sessionTransitions[from][action]
	if !ok {
		return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
	}
	return next, nil
}

// SessionConfig tunes the grading session.
type SessionConfig struct {
	GradingTimeout time.Duration
	// ConfirmedStudentName overrides the transcribed name on accept when set.
	ConfirmedStudentName string
}

// GradingSession owns the single active grading workflow.
type GradingSession interface {
	Snapshot() models.SessionSnapshot
	SetArtifact(slot models.ArtifactSlot, file RawFile) (models.UploadedArtifact, error)
	ClearArtifact(slot models.ArtifactSlot) error
	SetRubricMode(mode models.RubricMode) error
	SetRubricText(text string) error
	SetTestName(name string) error
	StartGrading(ctx context.Context) (models.GradingResult, error)
	RedoEvaluation(ctx context.Context) (models.GradingResult, error)
	AcceptGrade(ctx context.Context, confirmedName string) (models.GradingResult, error)
	SubmitGrade(ctx context.Context) (models.GradingResult, error)
	LoadFromHistory(id string) (models.GradingResult, error)
	Reset()
	History() []models.HistoryItem
	SendMessage(ctx context.Context, text string) (models.ChatMessage, error)
	Thread() []models.ChatMessage
}

type gradingSession struct {
	mu sync.Mutex

	state      models.SessionState
	testName   string
	rubricMode models.RubricMode
	rubricText string
	result     *models.GradingResult
	errMessage string
	accepted   bool
	submitted  bool

	generation uint64
	cancel     context.CancelFunc

	artifacts     ArtifactStore
	ledger        HistoryLedger
	grader        ai.Grader
	chat          ChatRefinement
	notifications NotificationQueue
	validator     *validator.Validate
	cfg           SessionConfig
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewGradingSession constructs a session in SETUP with default inputs.
func NewGradingSession(artifacts ArtifactStore, ledger HistoryLedger, grader ai.Grader, chat ChatRefinement, notifications NotificationQueue, validate *validator.Validate, cfg SessionConfig, logger zerolog.Logger) GradingSession {
	if cfg.GradingTimeout <= 0 {
		cfg.GradingTimeout = DefaultGradingTimeout
	}
	cfg.ConfirmedStudentName = strings.TrimSpace(cfg.ConfirmedStudentName)
	if validate == nil {
		validate = validator.New()
	}

	return &gradingSession{
		state:         models.SessionStateSetup,
		testName:      DefaultTestName,
		rubricMode:    models.RubricModeFile,
		rubricText:    DefaultRubricText,
		artifacts:     artifacts,
		ledger:        ledger,
		grader:        grader,
		chat:          chat,
		notifications: notifications,
		validator:     validate,
		cfg:           cfg,
		logger:        logger.With().Str("component", "grading_session").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/gradx-api/internal/service/session"),
		now:           time.Now,
	}
}

func (s *gradingSession) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, _ := s.artifacts.Artifact(models.ArtifactSlotStudent)
	rubric, _ := s.artifacts.Artifact(models.ArtifactSlotRubric)

	snapshot := models.SessionSnapshot{
		State:           s.state,
		TestName:        s.testName,
		RubricMode:      s.rubricMode,
		RubricText:      s.rubricText,
		StudentArtifact: student,
		RubricArtifact:  rubric,
		Error:           s.errMessage,
		Accepted:        s.accepted,
		Submitted:       s.submitted,
		CanStartGrading: s.state == models.SessionStateSetup && s.readyLocked(),
		HistoryCount:    s.ledger.Len(),
		ChatCount:       s.chat.Len(),
	}
	if s.result != nil {
		result := s.result.Clone()
		snapshot.Result = &result
	}
	return snapshot
}

func (s *gradingSession) SetArtifact(slot models.ArtifactSlot, file RawFile) (models.UploadedArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSetupLocked(); err != nil {
		return models.UploadedArtifact{}, err
	}
	return s.artifacts.SetArtifact(slot, file)
}

func (s *gradingSession) ClearArtifact(slot models.ArtifactSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSetupLocked(); err != nil {
		return err
	}
	return s.artifacts.ClearArtifact(slot)
}

func (s *gradingSession) SetRubricMode(mode models.RubricMode) error {
	if !mode.Valid() {
		return ErrInvalidRubricMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSetupLocked(); err != nil {
		return err
	}
	s.rubricMode = mode
	return nil
}

func (s *gradingSession) SetRubricText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSetupLocked(); err != nil {
		return err
	}
	s.rubricText = text
	return nil
}

func (s *gradingSession) SetTestName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSetupLocked(); err != nil {
		return err
	}
	s.testName = name
	return nil
}

func (s *gradingSession) StartGrading(ctx context.Context) (models.GradingResult, error) {
	return s.grade(ctx, actionStart)
}

func (s *gradingSession) RedoEvaluation(ctx context.Context) (models.GradingResult, error) {
	return s.grade(ctx, actionRedo)
}

func (s *gradingSession) grade(ctx context.Context, action sessionAction) (models.GradingResult, error) {
	s.mu.Lock()
	next, err := transition(s.state, action)
	if err != nil {
		s.mu.Unlock()
		return models.GradingResult{}, err
	}
	if !s.readyLocked() {
		s.mu.Unlock()
		return models.GradingResult{}, ErrSessionNotReady
	}

	request, err := s.gradeRequestLocked()
	if err != nil {
		s.mu.Unlock()
		return models.GradingResult{}, err
	}

	s.state = next
	s.errMessage = ""
	s.generation++
	generation := s.generation
	testName := s.testName

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.GradingTimeout)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	ctx, span := s.tracer.Start(callCtx, "session.grade", trace.WithAttributes(
		attribute.String("session.action", string(action)),
		attribute.Bool("session.rubric_is_file", request.RubricIsFile),
	))
	defer span.End()

	start := time.Now()
	raw, callErr := s.grader.Grade(ctx, request)
	observability.GradingDuration().Observe(time.Since(start).Seconds())

	var result models.GradingResult
	if callErr == nil {
		result = toGradingResult(raw)
		if err := s.validator.Struct(result); err != nil {
			callErr = fmt.Errorf("grading result violates score invariants: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		observability.GradingOutcomes().WithLabelValues("stale").Inc()
		span.SetAttributes(attribute.Bool("session.stale", true))
		s.logger.Info().Str("action", string(action)).Msg("discarding grading completion for a superseded session")
		return models.GradingResult{}, ErrStaleGrading
	}
	s.cancel = nil

	if callErr != nil {
		s.state, _ = transition(s.state, actionFail)
		s.errMessage = GradingFailureMessage
		s.result = nil
		s.accepted = false
		s.submitted = false
		s.chat.Clear()
		span.RecordError(callErr)
		span.SetStatus(codes.Error, "grading failed")
		observability.GradingOutcomes().WithLabelValues("failure").Inc()
		s.logger.Error().Err(callErr).Str("action", string(action)).Msg("grading failed")
		return models.GradingResult{}, ErrGradingFailed
	}

	s.state, _ = transition(s.state, actionComplete)
	stored := result.Clone()
	s.result = &stored
	s.accepted = false
	s.submitted = false
	s.chat.Seed(seedMessage(result))
	observability.GradingOutcomes().WithLabelValues("success").Inc()

	item := models.HistoryItem{
		TestName:    testName,
		StudentName: result.StudentName,
		Score:       result.TotalScore,
		MaxScore:    result.MaxTotalScore,
		Result:      result.Clone(),
	}
	if _, err := s.ledger.Append(context.WithoutCancel(ctx), item); err != nil {
		s.logger.Warn().Err(err).Msg("grading kept in memory but history was not persisted")
	}

	return result.Clone(), nil
}

func (s *gradingSession) AcceptGrade(ctx context.Context, confirmedName string) (models.GradingResult, error) {
	s.mu.Lock()
	next, err := transition(s.state, actionAccept)
	if err != nil {
		s.mu.Unlock()
		return models.GradingResult{}, err
	}
	s.state = next

	name := strings.TrimSpace(confirmedName)
	if name == "" {
		name = s.cfg.ConfirmedStudentName
	}
	if name != "" {
		s.result.StudentName = name
	}
	s.accepted = true
	result := s.result.Clone()
	s.mu.Unlock()

	if _, err := s.notifications.Notify(ctx, models.NotificationAccepted, result.StudentName); err != nil {
		s.logger.Warn().Err(err).Msg("failed to raise accepted notification")
	}
	return result, nil
}

func (s *gradingSession) SubmitGrade(ctx context.Context) (models.GradingResult, error) {
	s.mu.Lock()
	next, err := transition(s.state, actionSubmit)
	if err != nil {
		s.mu.Unlock()
		return models.GradingResult{}, err
	}
	s.state = next
	s.submitted = true
	result := s.result.Clone()
	s.mu.Unlock()

	if _, err := s.notifications.Notify(ctx, models.NotificationSubmitted, result.StudentName); err != nil {
		s.logger.Warn().Err(err).Msg("failed to raise submitted notification")
	}
	return result, nil
}

func (s *gradingSession) LoadFromHistory(id string) (models.GradingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := transition(s.state, actionLoadHistory)
	if err != nil {
		return models.GradingResult{}, err
	}
	item, ok := s.ledger.Get(id)
	if !ok {
		return models.GradingResult{}, ErrHistoryItemNotFound
	}

	result := item.Result.Clone()
	s.state = next
	s.result = &result
	s.testName = item.TestName
	s.errMessage = ""
	s.accepted = false
	s.submitted = false
	s.chat.Clear()

	return result.Clone(), nil
}

func (s *gradingSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state, _ = transition(s.state, actionReset)
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.artifacts.ClearAll()
	s.result = nil
	s.errMessage = ""
	s.accepted = false
	s.submitted = false
	s.chat.Clear()
}

func (s *gradingSession) History() []models.HistoryItem {
	return s.ledger.Items()
}

// SendMessage asks a follow-up question about the active result. Only allowed in RESULTS.
func (s *gradingSession) SendMessage(ctx context.Context, text string) (models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state != models.SessionStateResults || s.result == nil {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrNoActiveResult
	}
	cc := ai.ConversationContext{
		RubricSummary: s.rubricSummaryLocked(),
		Result:        toGradeResult(*s.result),
	}
	generation := s.chat.Generation()
	s.mu.Unlock()

	message, err := s.chat.Send(ctx, generation, text, cc)
	if errors.Is(err, ErrStaleChat) {
		s.logger.Info().Msg("chat reply dropped after the session changed")
	}
	return message, err
}

func (s *gradingSession) Thread() []models.ChatMessage {
	return s.chat.Thread()
}

func (s *gradingSession) requireSetupLocked() error {
	if s.state != models.SessionStateSetup {
		return fmt.Errorf("%w: inputs are editable only in %s", ErrInvalidTransition, models.SessionStateSetup)
	}
	return nil
}

func (s *gradingSession) readyLocked() bool {
	student, _ := s.artifacts.Artifact(models.ArtifactSlotStudent)
	if student == nil {
		return false
	}
	if s.rubricMode == models.RubricModeFile {
		rubric, _ := s.artifacts.Artifact(models.ArtifactSlotRubric)
		return rubric != nil
	}
	return strings.TrimSpace(s.rubricText) != ""
}

func (s *gradingSession) gradeRequestLocked() (ai.GradeRequest, error) {
	student, err := s.artifacts.Artifact(models.ArtifactSlotStudent)
	if err != nil || student == nil {
		return ai.GradeRequest{}, ErrSessionNotReady
	}
	request := ai.GradeRequest{StudentScript: student.Content}
	if s.rubricMode == models.RubricModeFile {
		rubric, err := s.artifacts.Artifact(models.ArtifactSlotRubric)
		if err != nil || rubric == nil {
			return ai.GradeRequest{}, ErrSessionNotReady
		}
		request.Rubric = rubric.Content
		request.RubricIsFile = true
		return request, nil
	}
	request.Rubric = s.rubricText
	return request, nil
}

func (s *gradingSession) rubricSummaryLocked() string {
	if s.rubricMode == models.RubricModeText {
		return s.rubricText
	}
	return RubricFileSummary
}

func seedMessage(result models.GradingResult) string {
	name := strings.TrimSpace(result.StudentName)
	if name == "" {
		name = "the script"
	}
	return fmt.Sprintf("I've finished grading %s. The total score is %s/%s. How can I assist you further?",
		name, formatScore(result.TotalScore), formatScore(result.MaxTotalScore))
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func toGradingResult(raw ai.GradeResult) models.GradingResult {
	breakdown := make([]models.QuestionResult, 0, len(raw.Breakdown))
	for _, q := range raw.Breakdown {
		breakdown = append(breakdown, models.QuestionResult{
			QuestionID: q.QuestionID,
			Score:      q.Score,
			MaxScore:   q.MaxScore,
			Feedback:   q.Feedback,
		})
	}
	return models.GradingResult{
		StudentName:     strings.TrimSpace(raw.StudentName),
		Transcription:   raw.Transcription,
		TotalScore:      raw.TotalScore,
		MaxTotalScore:   raw.MaxTotalScore,
		SummaryFeedback: raw.SummaryFeedback,
		Breakdown:       breakdown,
	}
}

func toGradeResult(result models.GradingResult) ai.GradeResult {
	breakdown := make([]ai.QuestionScore, 0, len(result.Breakdown))
	for _, q := range result.Breakdown {
		breakdown = append(breakdown, ai.QuestionScore{
			QuestionID: q.QuestionID,
			Score:      q.Score,
			MaxScore:   q.MaxScore,
			Feedback:   q.Feedback,
		})
	}
	return ai.GradeResult{
		StudentName:     result.StudentName,
		Transcription:   result.Transcription,
		TotalScore:      result.TotalScore,
		MaxTotalScore:   result.MaxTotalScore,
		SummaryFeedback: result.SummaryFeedback,
		Breakdown:       breakdown,
	}
}
