package whitelist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// perfectAnswers hits at least two keywords of every primary question
var perfectAnswers = []string{
	"Tengo 18, casi 19",
	"Metagaming es usar información OOC dentro del juego",
	"RK es revenge kill y CK es character kill, la muerte definitiva del personaje",
	"Sí, tengo experiencia en servidores de roleplay de FiveM",
	"Quiero roleplay serio y conocer una comunidad nueva",
	"Levantar las manos y cooperar sin resistir",
	"Me gustaría rolear como civil o policía",
	"Roleplay es interpretar un personaje como en la vida real",
}

func TestEvaluatePerfectRun(t *testing.T) {

	eval := Evaluate(perfectAnswers, PrimaryRubric)

	require.Equal(t, 100.0, eval.Percentage)
	assert.True(t, eval.AutoApprove)
	assert.False(t, eval.NeedsSupplementary)
	assert.Equal(t, RecommendationAutoApprove, eval.Recommendation)
	for _, score := range eval.AnswerScores {
		assert.Equal(t, 10, score)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {

	first := Evaluate(perfectAnswers, PrimaryRubric)
	second := Evaluate(perfectAnswers, PrimaryRubric)
	assert.Equal(t, first, second)
}

func TestEvaluateScoringTiers(t *testing.T) {

	rubric := []Rubric{{Question: "q", Keywords: []string{"alpha", "beta"}, Weight: 10}}

	tests := []struct {
		name     string
		answer   string
		expected int
	}{
		{"two keywords", "alpha and beta", 10},
		{"one keyword", "only alpha here", 7},
		{"no keywords but long", "a long enough answer", 4},
		{"no keywords and short", "nope", 0},
		{"empty", "", 0},
		// Length is counted in characters, so nine accented letters stay
		// below the tried-to-answer threshold despite their byte size
		{"accented below threshold", "ñáéíóúñáé", 0},
		{"accented at threshold", "ñáéíóúñáéí", 4},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			eval := Evaluate([]string{test.answer}, rubric)
			assert.Equal(t, test.expected, eval.AnswerScores[0])
		})
	}
}

func TestEvaluateKeywordsMatchCaseInsensitive(t *testing.T) {

	rubric := []Rubric{{Question: "q", Keywords: []string{"metagaming", "ooc"}, Weight: 10}}
	eval := Evaluate([]string{"METAGAMING es usar info OOC"}, rubric)
	assert.Equal(t, 10, eval.AnswerScores[0])
}

func TestEvaluateWeighting(t *testing.T) {

	// A perfect answer on the heavy question and a blank on the light one
	rubric := []Rubric{
		{Question: "light", Keywords: []string{"x", "y"}, Weight: 20},
		{Question: "heavy", Keywords: []string{"x", "y"}, Weight: 80},
	}
	eval := Evaluate([]string{"", "x y"}, rubric)
	assert.Equal(t, 80.0, eval.Percentage)
}

func TestEvaluateMissingAnswersScoreZero(t *testing.T) {

	eval := Evaluate(perfectAnswers[:4], PrimaryRubric)
	require.Len(t, eval.AnswerScores, len(PrimaryRubric))
	for _, score := range eval.AnswerScores[4:] {
		assert.Equal(t, 0, score)
	}
	assert.Less(t, eval.Percentage, 100.0)
}

func TestEvaluateRecommendationBands(t *testing.T) {

	rubric := []Rubric{
		{Question: "a", Keywords: []string{"alpha", "beta"}, Weight: 10},
		{Question: "b", Keywords: []string{"gamma", "delta"}, Weight: 10},
	}

	tests := []struct {
		name           string
		answers        []string
		percentage     float64
		recommendation string
		supplementary  bool
	}{
		{"auto approval", []string{"alpha beta", "gamma delta"}, 100, RecommendationAutoApprove, false},
		{"recommended", []string{"alpha beta", "only gamma"}, 85, RecommendationApprove, false},
		{"manual review", []string{"only alpha", "only gamma"}, 70, RecommendationManualReview, false},
		{"supplementary", []string{"long enough text", "long enough text"}, 40, RecommendationSupplementary, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			eval := Evaluate(test.answers, rubric)
			assert.Equal(t, test.percentage, eval.Percentage)
			assert.Equal(t, test.recommendation, eval.Recommendation)
			assert.Equal(t, test.supplementary, eval.NeedsSupplementary)
		})
	}
}

func TestEvaluateCombinedWeighting(t *testing.T) {

	combined := EvaluateCombined(
		Evaluation{Percentage: 50},
		Evaluation{Percentage: 100},
	)
	assert.InDelta(t, 65.0, combined.Combined, 0.001)
	assert.Equal(t, RecommendationCombinedReview, combined.Recommendation)
	assert.False(t, combined.AutoApprove)
}

func TestEvaluateCombinedBands(t *testing.T) {

	tests := []struct {
		name           string
		primary        float64
		secondary      float64
		recommendation string
		autoApprove    bool
	}{
		{"auto", 100, 100, RecommendationCombinedAuto, true},
		{"approve", 90, 80, RecommendationCombinedApprove, false},
		{"review", 70, 60, RecommendationCombinedReview, false},
		{"reject", 50, 50, RecommendationCombinedReject, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			combined := EvaluateCombined(Evaluation{Percentage: test.primary}, Evaluation{Percentage: test.secondary})
			assert.Equal(t, test.recommendation, combined.Recommendation)
			assert.Equal(t, test.autoApprove, combined.AutoApprove)
		})
	}
}

func TestQuestionsPreserveRubricOrder(t *testing.T) {

	questions := Questions(PrimaryRubric)
	require.Len(t, questions, len(PrimaryRubric))
	for i, entry := range PrimaryRubric {
		assert.Equal(t, entry.Question, questions[i])
	}
}

func TestPrimaryRubricWeightsSumToHundred(t *testing.T) {

	total := 0
	for _, entry := range PrimaryRubric {
		total += entry.Weight
	}
	assert.Equal(t, 100, total)
}

func TestRubricKeywordsAreLowercase(t *testing.T) {

	// Matching lowercases the answer only, so keywords have to be stored
	// lowercase already
	for _, rubric := range [][]Rubric{PrimaryRubric, SecondaryRubric} {
		for _, entry := range rubric {
			for _, keyword := range entry.Keywords {
				assert.Equal(t, strings.ToLower(keyword), keyword)
			}
		}
	}
}
