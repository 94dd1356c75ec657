package ai

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"
)

func TestGeminiHistoryOpensWithUserTurn(t *testing.T) {
	history := geminiHistory([]Turn{
		{Role: RoleModel, Text: "I've finished grading Asha."},
		{Role: RoleUser, Text: "Why did Q2 lose marks?"},
		{Role: RoleModel, Text: "The working was missing."},
	}, "opening")

	require.Len(t, history, 4)
	require.Equal(t, "user", history[0].Role)
	require.Equal(t, genai.Text("opening"), history[0].Parts[0])
	require.Equal(t, "model", history[1].Role)
	require.Equal(t, "user", history[2].Role)
	require.Equal(t, "model", history[3].Role)
}

func TestGeminiHistoryMergesRepeatedRoles(t *testing.T) {
	history := geminiHistory([]Turn{
		{Role: RoleUser, Text: "first"},
		{Role: RoleUser, Text: "second"},
		{Role: RoleModel, Text: "answer"},
	}, "opening")

	require.Len(t, history, 2)
	require.Equal(t, "user", history[0].Role)
	require.Len(t, history[0].Parts, 2)
	require.Equal(t, "model", history[1].Role)
}

func TestGeminiHistoryEmpty(t *testing.T) {
	history := geminiHistory(nil, "opening")
	require.Len(t, history, 1)
	require.Equal(t, "user", history[0].Role)
}
