package classifier_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absence-assistant/internal/classifier"
	"absence-assistant/internal/models"
)

func newTestClassifier(t *testing.T, opts ...classifier.Option) (*classifier.Classifier, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	return classifier.New(logger, opts...), hook
}

func TestClassify_Table(t *testing.T) {
	c, _ := newTestClassifier(t)

	tests := []struct {
		input  string
		reason models.Reason
	}{
		{"unwell", models.ReasonSick},
		{"Sick", models.ReasonSick},
		{"I'm feeling UNWELL today", models.ReasonSick},
		{"under the wether", models.ReasonSick},
		{"Mâlade", models.ReasonSick},
		{"worked from home", models.ReasonRemoteNotLogged},
		{"WFH", models.ReasonRemoteNotLogged},
		{"remote_not_logged", models.ReasonRemoteNotLogged},
		{"no show", models.ReasonUnjustified},
		{"skipped work", models.ReasonUnjustified},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := c.Classify(tt.input)
			assert.Equal(t, tt.reason, got.Reason)
			assert.GreaterOrEqual(t, got.Confidence, classifier.DefaultThreshold)
			assert.False(t, got.LowConfidence)
			assert.Equal(t, tt.input, got.Input)
		})
	}
}

func TestClassify_UnwellIsSickWithFullConfidence(t *testing.T) {
	c, _ := newTestClassifier(t)

	got := c.Classify("unwell")

	assert.Equal(t, models.ReasonSick, got.Reason)
	assert.Equal(t, 100.0, got.Confidence)
	assert.Equal(t, "unwell", got.MatchedSynonym)
}

func TestClassify_NonsenseFallsBackAndLogs(t *testing.T) {
	c, hook := newTestClassifier(t)

	got := c.Classify("xyxyxy")

	assert.Equal(t, models.ReasonUnjustified, got.Reason)
	assert.Less(t, got.Confidence, classifier.DefaultThreshold)
	assert.True(t, got.LowConfidence)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "xyxyxy", entry.Data["input"])
}

func TestClassify_EmptyInputNeverFails(t *testing.T) {
	c, _ := newTestClassifier(t)

	for _, input := range []string{"", "   ", "!!!", "---"} {
		got := c.Classify(input)
		assert.Equal(t, models.ReasonUnjustified, got.Reason, "input %q", input)
		assert.Equal(t, 0.0, got.Confidence)
		assert.True(t, got.LowConfidence)
	}
}

func TestClassify_TiesResolveToMoreSpecificReason(t *testing.T) {
	c, _ := newTestClassifier(t)

	got := c.Classify("sick and worked remote")

	assert.Equal(t, models.ReasonSick, got.Reason)
}

func TestClassify_ThresholdMustBeExceeded(t *testing.T) {
	// GIVEN: a scorer that always lands exactly on the threshold
	flat := classifier.ScorerFunc(func(a, b string) float64 { return classifier.DefaultThreshold })
	c, _ := newTestClassifier(t, classifier.WithScorer(flat))

	// THEN: the match is not trusted
	got := c.Classify("sick")
	assert.True(t, got.LowConfidence)
	assert.Equal(t, models.ReasonUnjustified, got.Reason)
}

func TestClassify_CustomFallbackAndSynonyms(t *testing.T) {
	c, _ := newTestClassifier(t,
		classifier.WithSynonyms(map[models.Reason][]string{
			models.ReasonSick: {"grippe"},
		}),
		classifier.WithFallback(models.ReasonRemoteNotLogged),
		classifier.WithThreshold(80),
	)

	assert.Equal(t, models.ReasonSick, c.Classify("Grippé").Reason)
	assert.Equal(t, models.ReasonRemoteNotLogged, c.Classify("unwell").Reason)
}

// =============================================================================
// SCORER
// =============================================================================

func TestNormalize(t *testing.T) {
	assert.Equal(t, "i m feeling unwell", classifier.Normalize("  I'm   FEELING - unwell!! "))
	assert.Equal(t, "remote not logged", classifier.Normalize("remote_not_logged"))
	assert.Equal(t, "fievre", classifier.Normalize("Fièvre"))
	assert.Equal(t, "", classifier.Normalize("?!"))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, classifier.Ratio("abc", "abc"))
	assert.Equal(t, 0.0, classifier.Ratio("", "abc"))
	assert.Equal(t, 0.0, classifier.Ratio("xyz", "abc"))
	assert.InDelta(t, 61.54, classifier.Ratio("kitten", "sitting"), 0.01)
}

func TestTokenSetScorer(t *testing.T) {
	s := classifier.TokenSetScorer{}

	assert.Equal(t, 100.0, s.Score("weather the under", "under the weather"))
	assert.Equal(t, 100.0, s.Score("feeling unwell today", "unwell"))
	assert.Greater(t, s.Score("under the wether", "under the weather"), 90.0)
	assert.Less(t, s.Score("xyxyxy", "sick"), 10.0)
}
