package service

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"mime"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradx-api/internal/models"
	"github.com/noah-isme/gradx-api/internal/observability"
)

// RawFile is an upload as received from the client, before validation.
type RawFile struct {
	Name         string
	DeclaredType string
	Data         []byte
}

// ArtifactStore holds the validated student script and rubric documents.
type ArtifactStore interface {
	SetArtifact(slot models.ArtifactSlot, file RawFile) (models.UploadedArtifact, error)
	ClearArtifact(slot models.ArtifactSlot) error
	Artifact(slot models.ArtifactSlot) (*models.UploadedArtifact, error)
	ClearAll()
}

type artifactStore struct {
	mu      sync.RWMutex
	slots   map[models.ArtifactSlot]models.UploadedArtifact
	maxSize int64
	logger  zerolog.Logger
}

// NewArtifactStore constructs an empty store accepting files up to maxSizeMB.
func NewArtifactStore(maxSizeMB int, logger zerolog.Logger) ArtifactStore {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &artifactStore{
		slots:   make(map[models.ArtifactSlot]models.UploadedArtifact, 2),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		logger:  logger.With().Str("component", "artifact_store").Logger(),
	}
}

func (s *artifactStore) SetArtifact(slot models.ArtifactSlot, file RawFile) (models.UploadedArtifact, error) {
	if !validSlot(slot) {
		return models.UploadedArtifact{}, ErrUnknownSlot
	}

	artifact, err := s.validate(file)
	if err != nil {
		s.logger.Debug().Err(err).Str("slot", string(slot)).Str("file", file.Name).Msg("artifact rejected")
		return models.UploadedArtifact{}, err
	}

	s.mu.Lock()
	s.slots[slot] = artifact
	s.mu.Unlock()

	return artifact, nil
}

func (s *artifactStore) ClearArtifact(slot models.ArtifactSlot) error {
	if !validSlot(slot) {
		return ErrUnknownSlot
	}
	s.mu.Lock()
	delete(s.slots, slot)
	s.mu.Unlock()
	return nil
}

func (s *artifactStore) Artifact(slot models.ArtifactSlot) (*models.UploadedArtifact, error) {
	if !validSlot(slot) {
		return nil, ErrUnknownSlot
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.slots[slot]
	if !ok {
		return nil, nil
	}
	return &artifact, nil
}

func (s *artifactStore) ClearAll() {
	s.mu.Lock()
	s.slots = make(map[models.ArtifactSlot]models.UploadedArtifact, 2)
	s.mu.Unlock()
}

func (s *artifactStore) validate(file RawFile) (models.UploadedArtifact, error) {
	if len(file.Data) == 0 {
		observability.ArtifactRejected().WithLabelValues("empty").Inc()
		return models.UploadedArtifact{}, ErrArtifactEmpty
	}
	if int64(len(file.Data)) > s.maxSize {
		observability.ArtifactRejected().WithLabelValues("size").Inc()
		return models.UploadedArtifact{}, ErrArtifactTooLarge
	}
	if declaredMediaType(file.DeclaredType) != models.AcceptedArtifactType {
		observability.ArtifactRejected().WithLabelValues("declared_type").Inc()
		return models.UploadedArtifact{}, ErrUnsupportedFormat
	}
	if !mimetype.Detect(file.Data).Is(models.AcceptedArtifactType) {
		observability.ArtifactRejected().WithLabelValues("content_type").Inc()
		return models.UploadedArtifact{}, ErrUnsupportedFormat
	}

	sum := sha256.Sum256(file.Data)
	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = "document.pdf"
	}

	return models.UploadedArtifact{
		Name:      name,
		MimeType:  models.AcceptedArtifactType,
		Content:   base64.StdEncoding.EncodeToString(file.Data),
		SizeBytes: int64(len(file.Data)),
		Checksum:  hex.EncodeToString(sum[:]),
	}, nil
}

func declaredMediaType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}

func validSlot(slot models.ArtifactSlot) bool {
	return slot == models.ArtifactSlotStudent || slot == models.ArtifactSlotRubric
}
