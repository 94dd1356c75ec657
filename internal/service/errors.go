package service

import "errors"

// ValidationError marks input rejected before it reaches session state.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func newValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

var (
	// ErrUnsupportedFormat indicates an artifact is not a PDF.
	ErrUnsupportedFormat = newValidationError("only PDF documents are supported")
	// ErrArtifactEmpty indicates an artifact without content.
	ErrArtifactEmpty = newValidationError("uploaded file is empty")
	// ErrArtifactTooLarge indicates an artifact above the configured size limit.
	ErrArtifactTooLarge = newValidationError("file exceeds maximum allowed size")
	// ErrUnknownSlot indicates an artifact slot other than student or rubric.
	ErrUnknownSlot = newValidationError("unknown artifact slot")
	// ErrInvalidRubricMode indicates a rubric mode other than file or text.
	ErrInvalidRubricMode = newValidationError("rubric mode must be file or text")
)

var (
	// ErrInvalidTransition indicates the action is not allowed in the current session state.
	ErrInvalidTransition = errors.New("action not allowed in current session state")
	// ErrSessionNotReady indicates grading was requested before both inputs were provided.
	ErrSessionNotReady = errors.New("student script and rubric are required before grading")
	// ErrGradingFailed is returned when the grading service call fails for any reason.
	ErrGradingFailed = errors.New("grading failed")
	// ErrStaleGrading indicates a grading completion arrived after the session moved on.
	ErrStaleGrading = errors.New("grading result discarded because the session changed")
	// ErrHistoryItemNotFound indicates an unknown history id.
	ErrHistoryItemNotFound = errors.New("history item not found")
	// ErrHistoryPersist indicates the ledger could not be written to durable storage.
	ErrHistoryPersist = errors.New("failed to persist history")
	// ErrNoActiveResult indicates a chat turn without an active grading result.
	ErrNoActiveResult = errors.New("no active grading result")
	// ErrEmptyMessage indicates a blank chat message.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrStaleChat indicates the thread was cleared while the turn was queued or in flight.
	ErrStaleChat = errors.New("chat reply discarded because the session changed")
	// ErrChatTurnFailed is returned when the chat service call fails.
	ErrChatTurnFailed = errors.New("chat turn failed")
	// ErrUnknownNotificationKind indicates a notification kind outside accepted and submitted.
	ErrUnknownNotificationKind = errors.New("unknown notification kind")
	// ErrLessonPlanFailed is returned when lesson plan generation fails.
	ErrLessonPlanFailed = errors.New("failed to generate lesson plan")
	// ErrUnknownExportFormat indicates a lesson plan export format that is not supported.
	ErrUnknownExportFormat = errors.New("unknown export format")
)

// GradingFailureMessage is the user-facing error stored on the session after a failed grading.
const GradingFailureMessage = "Failed to grade the script. Please ensure the PDF is clear and try again."
