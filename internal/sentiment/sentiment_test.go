package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternbury/commentsync/internal/store"
)

type scriptedAnalyzer struct {
	label string
	err   error
	calls int
}

func (s *scriptedAnalyzer) Analyze(_ context.Context, _ string) (string, float64, error) {
	s.calls++
	if s.err != nil {
		return "", 0, s.err
	}
	return s.label, 0.8, nil
}

func snapshotWith(comments ...store.Comment) *store.Snapshot {
	return &store.Snapshot{
		ContentID: "content-1",
		PostID:    "post-1",
		Comments:  comments,
	}
}

func TestClassifySkipsLabeled(t *testing.T) {
	a := &scriptedAnalyzer{label: "positive"}
	snap := snapshotWith(
		store.Comment{ID: "c1", Message: "nice"},
		store.Comment{ID: "c2", Message: "already done", Sentiment: &store.Sentiment{Label: store.SentimentNegative, AnalyzedAt: time.Now()}},
	)

	res := Classify(context.Background(), a, snap, false)

	assert.Equal(t, 1, res.Analyzed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, a.calls, "labeled comment must not hit the analyzer")
	assert.Equal(t, store.SentimentNegative, snap.Comments[1].Sentiment.Label, "existing label untouched")
}

func TestClassifyForceRelabels(t *testing.T) {
	a := &scriptedAnalyzer{label: "neutral"}
	snap := snapshotWith(
		store.Comment{ID: "c1", Message: "meh", Sentiment: &store.Sentiment{Label: store.SentimentPositive}},
	)

	res := Classify(context.Background(), a, snap, true)

	assert.Equal(t, 1, res.Analyzed)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, store.SentimentNeutral, snap.Comments[0].Sentiment.Label)
}

func TestClassifyEmptyMessageIsNeutral(t *testing.T) {
	a := &scriptedAnalyzer{label: "positive"}
	snap := snapshotWith(store.Comment{ID: "c1", Message: "   "})

	res := Classify(context.Background(), a, snap, false)

	assert.Equal(t, 1, res.Analyzed)
	assert.Equal(t, 0, a.calls, "blank text never reaches the analyzer")
	require.NotNil(t, snap.Comments[0].Sentiment)
	assert.Equal(t, store.SentimentNeutral, snap.Comments[0].Sentiment.Label)
}

func TestClassifyFailureDoesNotAbort(t *testing.T) {
	a := &scriptedAnalyzer{err: errors.New("model down")}
	snap := snapshotWith(
		store.Comment{ID: "c1", Message: "one"},
		store.Comment{ID: "c2", Message: "two"},
	)

	res := Classify(context.Background(), a, snap, false)

	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 2, a.calls)
	assert.Nil(t, snap.Comments[0].Sentiment)
}

func TestClassifyNormalizesBogusLabels(t *testing.T) {
	a := &scriptedAnalyzer{label: "VERY HAPPY"}
	snap := snapshotWith(store.Comment{ID: "c1", Message: "woo"})

	Classify(context.Background(), a, snap, false)

	require.NotNil(t, snap.Comments[0].Sentiment)
	assert.Equal(t, store.SentimentNeutral, snap.Comments[0].Sentiment.Label)
}

func TestLexiconAnalyzer(t *testing.T) {
	a := LexiconAnalyzer{}

	label, _, err := a.Analyze(context.Background(), "I love this, it is great!")
	require.NoError(t, err)
	assert.Equal(t, "positive", label)

	label, _, err = a.Analyze(context.Background(), "terrible quality, total waste")
	require.NoError(t, err)
	assert.Equal(t, "negative", label)

	label, _, err = a.Analyze(context.Background(), "arrived on tuesday")
	require.NoError(t, err)
	assert.Equal(t, "neutral", label)
}

func TestLexiconAnalyzerConfidence(t *testing.T) {
	a := LexiconAnalyzer{}

	// Two positive hits against one negative: confidence leans on the winner.
	label, conf, err := a.Analyze(context.Background(), "great product, great price, bad box")
	require.NoError(t, err)
	assert.Equal(t, "positive", label)
	assert.InDelta(t, 0.5+0.5*2.0/3.0, conf, 1e-9)

	// Balanced hits come back neutral at the midpoint.
	label, conf, err = a.Analyze(context.Background(), "love it but awful delivery")
	require.NoError(t, err)
	assert.Equal(t, "neutral", label)
	assert.InDelta(t, 0.5, conf, 1e-9)
}
