package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-market-coach/learning"
)

func TestAskQuizScoresAnswers(t *testing.T) {
	quiz := []learning.QuizQuestion{
		{Question: "Q1", Options: []string{"x", "y", "z", "w"}, CorrectOptionIndex: 2, Explanation: "because"},
		{Question: "Q2", Options: []string{"x", "y", "z", "w"}, CorrectOptionIndex: 0, Explanation: "because"},
	}

	var out bytes.Buffer
	require.NoError(t, askQuiz(&out, strings.NewReader("C\nb\n"), quiz))

	assert.Contains(t, out.String(), "correct!")
	assert.Contains(t, out.String(), "the answer is a")
	assert.Contains(t, out.String(), "Score: 1/2")
}

func TestAskQuizStopsAtEOF(t *testing.T) {
	quiz := []learning.QuizQuestion{
		{Question: "Q1", Options: []string{"x", "y"}, CorrectOptionIndex: 0},
		{Question: "Q2", Options: []string{"x", "y"}, CorrectOptionIndex: 1},
	}

	var out bytes.Buffer
	require.NoError(t, askQuiz(&out, strings.NewReader("a"), quiz))
	assert.Contains(t, out.String(), "Score: 1/2")
	assert.NotContains(t, out.String(), "Q2")
}

func TestPrintReportStripsHeadingMarkers(t *testing.T) {
	var out bytes.Buffer
	printReport(&out, "# 1. Company Snapshot\n\n- **Ticker**: `AAPL`\n---")

	assert.Contains(t, out.String(), "1. Company Snapshot")
	assert.NotContains(t, out.String(), "# 1.")
	assert.NotContains(t, out.String(), "---")
}
