package sentiment

import (
	"context"
	"strings"
)

// LexiconAnalyzer is the default analyzer: a small word list that requires
// no API key and gives deterministic labels. Good enough for dashboards,
// swapped for the model-backed analyzer when one is configured.
type LexiconAnalyzer struct{}

var positiveWords = map[string]bool{
	"love": true, "great": true, "awesome": true, "amazing": true,
	"excellent": true, "good": true, "nice": true, "beautiful": true,
	"fantastic": true, "wonderful": true, "best": true, "perfect": true,
	"thanks": true, "thank": true, "cool": true, "helpful": true,
}

var negativeWords = map[string]bool{
	"hate": true, "terrible": true, "awful": true, "bad": true,
	"worst": true, "horrible": true, "scam": true, "broken": true,
	"disappointed": true, "disappointing": true, "useless": true,
	"waste": true, "late": true, "refund": true, "angry": true,
}

func (LexiconAnalyzer) Analyze(_ context.Context, text string) (string, float64, error) {
	var pos, neg, total int
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:'\"()")
		if w == "" {
			continue
		}
		total++
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	if total == 0 || pos == neg {
		return "neutral", 0.5, nil
	}
	hits := pos + neg
	conf := 0.5 + 0.5*float64(max(pos, neg))/float64(hits)
	if pos > neg {
		return "positive", conf, nil
	}
	return "negative", conf, nil
}
