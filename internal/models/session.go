package models

import "time"

// SessionState is the lifecycle position of the grading session.
type SessionState string

const (
	SessionStateSetup      SessionState = "SETUP"
	SessionStateProcessing SessionState = "PROCESSING"
	SessionStateResults    SessionState = "RESULTS"
)

// ArtifactSlot names the two upload slots of a session.
type ArtifactSlot string

const (
	ArtifactSlotStudent ArtifactSlot = "student"
	ArtifactSlotRubric  ArtifactSlot = "rubric"
)

// AcceptedArtifactType is the only document type the grading service accepts.
const AcceptedArtifactType = "application/pdf"

// UploadedArtifact is a validated document encoded for transport to the grading service.
type UploadedArtifact struct {
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	Content   string `json:"-"`
	SizeBytes int64  `json:"sizeBytes"`
	Checksum  string `json:"checksum"`
}

// RubricMode selects which rubric variant is active.
type RubricMode string

const (
	RubricModeFile RubricMode = "file"
	RubricModeText RubricMode = "text"
)

// Valid reports whether the mode is one of the known variants.
func (m RubricMode) Valid() bool {
	return m == RubricModeFile || m == RubricModeText
}

// RubricSpecification is the active rubric variant: exactly one of Artifact or Content is meaningful.
type RubricSpecification struct {
	Kind     RubricMode
	Artifact *UploadedArtifact
	Content  string
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatMessage is one entry of the refinement thread.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSnapshot is an immutable view of the grading session.
type SessionSnapshot struct {
	State           SessionState
	TestName        string
	RubricMode      RubricMode
	RubricText      string
	StudentArtifact *UploadedArtifact
	RubricArtifact  *UploadedArtifact
	Result          *GradingResult
	Error           string
	Accepted        bool
	Submitted       bool
	CanStartGrading bool
	HistoryCount    int
	ChatCount       int
}
