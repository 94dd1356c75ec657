package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const validGrading = `{
  "studentName": "Priya",
  "transcription": "Q1 ...",
  "totalScore": 7.5,
  "maxTotalScore": 10,
  "summaryFeedback": "Solid work.",
  "breakdown": [
    {"questionId": "Q1", "score": 4.5, "maxScore": 5, "feedback": "Minor slip."},
    {"questionId": "Q2", "score": 3, "maxScore": 5, "feedback": "Incomplete."}
  ]
}`

func TestParseGradeResponse(t *testing.T) {
	result, err := ParseGradeResponse(validGrading)
	require.NoError(t, err)
	require.Equal(t, "Priya", result.StudentName)
	require.Equal(t, 7.5, result.TotalScore)
	require.Len(t, result.Breakdown, 2)
	require.Equal(t, "Q1", result.Breakdown[0].QuestionID)
	require.Equal(t, "Q2", result.Breakdown[1].QuestionID)
}

func TestParseGradeResponseStripsFences(t *testing.T) {
	result, err := ParseGradeResponse("```json\n" + validGrading + "\n```")
	require.NoError(t, err)
	require.Equal(t, 10.0, result.MaxTotalScore)
}

func TestParseGradeResponseRejectsInvalidPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":            "   ",
		"not json":         "The student scored 7/10.",
		"missing fields":   `{"studentName": "Priya"}`,
		"negative score":   `{"studentName":"","transcription":"","totalScore":-1,"maxTotalScore":10,"summaryFeedback":"","breakdown":[]}`,
		"string score":     `{"studentName":"","transcription":"","totalScore":"7","maxTotalScore":10,"summaryFeedback":"","breakdown":[]}`,
		"bad breakdown":    `{"studentName":"","transcription":"","totalScore":1,"maxTotalScore":10,"summaryFeedback":"","breakdown":[{"questionId":"Q1"}]}`,
		"breakdown object": `{"studentName":"","transcription":"","totalScore":1,"maxTotalScore":10,"summaryFeedback":"","breakdown":{}}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGradeResponse(payload)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrUnusableResponse))
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	require.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}```"))
	require.Equal(t, `{"a":1}`, StripCodeFences(`  {"a":1} `))
}
