package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/testprep/internal/assessment"
	"github.com/pavelanni/testprep/internal/bank"
	appI18n "github.com/pavelanni/testprep/internal/i18n"
)

func quizContext(t *testing.T, lang string) context.Context {
	t.Helper()
	require.NoError(t, appI18n.Init("en"))
	return appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(lang))
}

func sampleBank(t *testing.T) *assessment.Bank {
	t.Helper()
	b, err := bank.Sample().Bank()
	require.NoError(t, err)
	return b
}

func TestTakeQuiz_SixtyPercent(t *testing.T) {
	ctx := quizContext(t, "en")
	// Sample answers are 3, 2, 3, 3, 2 when counted from one.
	input := strings.Join([]string{"3", "n", "2", "n", "3", "n", "1", "n", "s", "y"}, "\n")
	var out bytes.Buffer

	rep, err := takeQuiz(ctx, strings.NewReader(input), &out, sampleBank(t))
	require.NoError(t, err)
	assert.Equal(t, 60.0, rep.ScorePercent)
	assert.Equal(t, assessment.Counts{Correct: 3, Incorrect: 1, Unanswered: 1}, rep.Counts)
	assert.Contains(t, out.String(), "Score: 60% (3 correct, 1 incorrect, 1 unanswered)")
	assert.Contains(t, out.String(), "1 question left unanswered.")
	assert.Contains(t, out.String(), "Not answered")
	assert.True(t, strings.HasPrefix(out.String(), "Think Plus Test Prep\n"))
}

func TestTakeQuiz_Commands(t *testing.T) {
	ctx := quizContext(t, "en")
	input := strings.Join([]string{
		"9",      // out of range
		"g 5",    // jump to the last item
		"2",      // right answer for item 5
		"c",      // clear it again
		"dance",  // unknown
		"p", "p", // back to item 3
		"s", "n", // declined submit
	}, "\n")
	var out bytes.Buffer

	rep, err := takeQuiz(ctx, strings.NewReader(input), &out, sampleBank(t))
	require.NoError(t, err, "end of input submits the attempt")
	assert.Equal(t, 5, rep.Counts.Unanswered)
	assert.Contains(t, out.String(), "That choice is out of range.")
	assert.Contains(t, out.String(), "Unknown command: dance")
	assert.Contains(t, out.String(), "Question 5 of 5")
	assert.Contains(t, out.String(), "Question 3 of 5")
}

func TestTakeQuiz_Quit(t *testing.T) {
	ctx := quizContext(t, "en")
	_, err := takeQuiz(ctx, strings.NewReader("1\nq\n"), &bytes.Buffer{}, sampleBank(t))
	assert.True(t, errors.Is(err, errQuit))
}

func TestTakeQuiz_Hindi(t *testing.T) {
	ctx := quizContext(t, "hi")
	var out bytes.Buffer
	_, err := takeQuiz(ctx, strings.NewReader("3\n"), &out, sampleBank(t))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "प्रश्न 1 / 5")
	assert.Contains(t, out.String(), "परीक्षा परिणाम")
	assert.Contains(t, out.String(), "थिंक प्लस टेस्ट प्रेप")
}
