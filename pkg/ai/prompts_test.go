package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPromptsRender(t *testing.T) {
	prompts, err := DefaultPrompts()
	require.NoError(t, err)

	text, err := prompts.Render(PromptGradingUser, GradeRequest{Rubric: "Q1 (5 marks): define osmosis"})
	require.NoError(t, err)
	require.Contains(t, text, "Q1 (5 marks): define osmosis")
	require.NotContains(t, text, "second PDF")

	file, err := prompts.Render(PromptGradingUser, GradeRequest{Rubric: "ignored", RubricIsFile: true})
	require.NoError(t, err)
	require.Contains(t, file, "second PDF")
	require.NotContains(t, file, "ignored")

	plan, err := prompts.Render(PromptPlanUser, PlanRequest{Topic: "Fractions", Grade: "5th Grade", Language: "Hindi", Context: "Rural School"})
	require.NoError(t, err)
	require.Contains(t, plan, "Topic: Fractions")
	require.Contains(t, plan, "Write the whole plan in Hindi.")
}

func TestLoadPromptsRejectsIncompleteSet(t *testing.T) {
	_, err := LoadPrompts([]byte("grading:\n  system: hi\n"))
	require.Error(t, err)

	_, err = LoadPrompts([]byte("grading: [unterminated"))
	require.Error(t, err)
}

func TestRenderUnknownPrompt(t *testing.T) {
	prompts, err := DefaultPrompts()
	require.NoError(t, err)

	_, err = prompts.Render("nope", nil)
	require.Error(t, err)
}

func TestRenderChatSystemEmbedsResult(t *testing.T) {
	prompts, err := DefaultPrompts()
	require.NoError(t, err)

	text, err := renderChatSystem(prompts, ConversationContext{
		RubricSummary: "Rubric provided as PDF.",
		Result:        GradeResult{StudentName: "Asha", TotalScore: 7, MaxTotalScore: 10},
	})
	require.NoError(t, err)
	require.Contains(t, text, "Rubric provided as PDF.")
	require.Contains(t, text, `"studentName": "Asha"`)
}
