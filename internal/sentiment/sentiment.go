// Package sentiment labels stored comments as positive, negative or neutral.
package sentiment

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/ternbury/commentsync/internal/store"
)

// Analyzer produces a sentiment label for a single piece of text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (label string, confidence float64, err error)
}

// Result summarizes one classification pass over a snapshot.
type Result struct {
	Analyzed int
	Skipped  int
	Failed   int
}

// Classify walks the snapshot and fills in missing sentiment labels.
// Already-labeled comments are left alone unless force is set, so repeated
// passes over the same snapshot do no redundant work. Classification
// failures are logged and counted but never abort the pass. The snapshot is
// mutated in place.
func Classify(ctx context.Context, a Analyzer, snap *store.Snapshot, force bool) Result {
	var res Result
	for i := range snap.Comments {
		c := &snap.Comments[i]
		if c.Sentiment != nil && !force {
			res.Skipped++
			continue
		}
		if strings.TrimSpace(c.Message) == "" {
			c.Sentiment = &store.Sentiment{
				Label:      store.SentimentNeutral,
				Confidence: 0,
				AnalyzedAt: time.Now().UTC(),
			}
			res.Analyzed++
			continue
		}
		label, conf, err := a.Analyze(ctx, c.Message)
		if err != nil {
			log.Printf("sentiment: comment %s: %v", c.ID, err)
			res.Failed++
			continue
		}
		c.Sentiment = &store.Sentiment{
			Label:      normalizeLabel(label),
			Confidence: conf,
			AnalyzedAt: time.Now().UTC(),
		}
		res.Analyzed++
	}
	return res
}

func normalizeLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case store.SentimentPositive:
		return store.SentimentPositive
	case store.SentimentNegative:
		return store.SentimentNegative
	default:
		return store.SentimentNeutral
	}
}
