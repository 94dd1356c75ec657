package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradx-api/internal/models"
)

func TestArtifactStoreAcceptsPDF(t *testing.T) {
	store := NewArtifactStore(5, testLogger())

	artifact, err := store.SetArtifact(models.ArtifactSlotStudent, RawFile{
		Name:         "script.pdf",
		DeclaredType: "Application/PDF; charset=binary",
		Data:         samplePDF,
	})
	require.NoError(t, err)
	require.Equal(t, models.AcceptedArtifactType, artifact.MimeType)
	require.Equal(t, int64(len(samplePDF)), artifact.SizeBytes)

	decoded, err := base64.StdEncoding.DecodeString(artifact.Content)
	require.NoError(t, err)
	require.Equal(t, samplePDF, decoded)

	sum := sha256.Sum256(samplePDF)
	require.Equal(t, hex.EncodeToString(sum[:]), artifact.Checksum)

	stored, err := store.Artifact(models.ArtifactSlotStudent)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "script.pdf", stored.Name)

	empty, err := store.Artifact(models.ArtifactSlotRubric)
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestArtifactStoreRejections(t *testing.T) {
	cases := map[string]struct {
		slot models.ArtifactSlot
		file RawFile
		want error
	}{
		"declared image": {
			slot: models.ArtifactSlotStudent,
			file: RawFile{Name: "scan.jpg", DeclaredType: "image/jpeg", Data: samplePDF},
			want: ErrUnsupportedFormat,
		},
		"missing declared type": {
			slot: models.ArtifactSlotStudent,
			file: RawFile{Name: "scan.pdf", Data: samplePDF},
			want: ErrUnsupportedFormat,
		},
		"content is not a pdf": {
			slot: models.ArtifactSlotRubric,
			file: RawFile{Name: "rubric.pdf", DeclaredType: "application/pdf", Data: []byte("Question 1 (5 marks)")},
			want: ErrUnsupportedFormat,
		},
		"empty": {
			slot: models.ArtifactSlotStudent,
			file: RawFile{Name: "empty.pdf", DeclaredType: "application/pdf"},
			want: ErrArtifactEmpty,
		},
		"too large": {
			slot: models.ArtifactSlotStudent,
			file: RawFile{Name: "big.pdf", DeclaredType: "application/pdf", Data: append(append([]byte{}, samplePDF...), bytes.Repeat([]byte("a"), 2*1024*1024)...)},
			want: ErrArtifactTooLarge,
		},
		"unknown slot": {
			slot: "answer_key",
			file: pdfFile("key.pdf"),
			want: ErrUnknownSlot,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			store := NewArtifactStore(1, testLogger())
			_, err := store.SetArtifact(tc.slot, tc.file)
			require.ErrorIs(t, err, tc.want)
			require.True(t, IsValidationError(err))
		})
	}
}

func TestArtifactStoreFailureKeepsPreviousArtifact(t *testing.T) {
	store := NewArtifactStore(5, testLogger())
	_, err := store.SetArtifact(models.ArtifactSlotRubric, pdfFile("rubric-v1.pdf"))
	require.NoError(t, err)

	_, err = store.SetArtifact(models.ArtifactSlotRubric, RawFile{Name: "rubric.docx", DeclaredType: "application/msword", Data: []byte("doc")})
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	stored, err := store.Artifact(models.ArtifactSlotRubric)
	require.NoError(t, err)
	require.Equal(t, "rubric-v1.pdf", stored.Name)
}

func TestArtifactStoreClear(t *testing.T) {
	store := NewArtifactStore(5, testLogger())
	_, err := store.SetArtifact(models.ArtifactSlotStudent, pdfFile("a.pdf"))
	require.NoError(t, err)
	_, err = store.SetArtifact(models.ArtifactSlotRubric, pdfFile("b.pdf"))
	require.NoError(t, err)

	require.NoError(t, store.ClearArtifact(models.ArtifactSlotStudent))
	student, _ := store.Artifact(models.ArtifactSlotStudent)
	require.Nil(t, student)
	rubric, _ := store.Artifact(models.ArtifactSlotRubric)
	require.NotNil(t, rubric)

	store.ClearAll()
	rubric, _ = store.Artifact(models.ArtifactSlotRubric)
	require.Nil(t, rubric)

	require.ErrorIs(t, store.ClearArtifact("other"), ErrUnknownSlot)
}
