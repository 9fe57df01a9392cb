package engine

import (
	"strings"
	"time"

	"github.com/CATrainer/revu-sub000/internal/interactions"
	"github.com/CATrainer/revu-sub000/internal/rules"
)

// Word lists for the sentiment fallback when no precomputed label exists.
var (
	positiveWords = []string{
		"love", "great", "awesome", "amazing", "thank", "excellent",
		"perfect", "best", "helpful", "fantastic",
	}
	negativeWords = []string{
		"hate", "terrible", "awful", "worst", "scam", "angry",
		"disappointed", "broken", "useless", "waste",
	}
)

// evaluateDeterministic judges one non-AI condition against an interaction.
// It never fails: unknown kinds and missing params return (false, 0.3).
func evaluateDeterministic(c rules.Condition, in *interactions.Interaction) (bool, float64) {
	switch c.Kind {
	case rules.KindSentiment:
		if c.Sentiment == nil {
			return false, 0.3
		}
		return evaluateSentiment(c.Sentiment, in)
	case rules.KindSubscriber:
		if c.Subscriber == nil {
			return false, 0.3
		}
		if in.AuthorIsSubscriber == c.Subscriber.Required {
			return true, 0.8
		}
		return false, 0.2
	case rules.KindKeywords:
		if c.Keywords == nil {
			return false, 0.3
		}
		return evaluateKeywords(c.Keywords, in.Content)
	case rules.KindCommentLength:
		if c.Length == nil {
			return false, 0.3
		}
		if c.Length.Op.Compare(len([]rune(in.Content)), c.Length.Value) {
			return true, 0.7
		}
		return false, 0.3
	case rules.KindVideoAge:
		if c.VideoAge == nil {
			return false, 0.3
		}
		return evaluateVideoAge(c.VideoAge, in)
	default:
		return false, 0.3
	}
}

func evaluateSentiment(p *rules.SentimentParams, in *interactions.Interaction) (bool, float64) {
	want := strings.ToLower(p.Value)

	// Exact match against a precomputed label when available.
	if in.Sentiment != "" {
		if strings.ToLower(in.Sentiment) == want {
			return true, 0.9
		}
		return false, 0.2
	}

	// Coarse keyword fallback.
	text := strings.ToLower(in.Content)
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}

	label := "neutral"
	confidence := 0.4
	switch {
	case pos > neg:
		label = "positive"
		confidence = 0.6
	case neg > pos:
		label = "negative"
		confidence = 0.6
	}

	if label == want {
		return true, confidence
	}
	return false, 0.4
}

// evaluateKeywords applies case-insensitive substring matching. Confidence
// starts at 0.5 and shifts 0.2 per satisfied or violated clause.
func evaluateKeywords(p *rules.KeywordParams, content string) (bool, float64) {
	text := strings.ToLower(content)
	matched := true
	confidence := 0.5

	if len(p.Any) > 0 {
		hit := false
		for _, term := range p.Any {
			if strings.Contains(text, strings.ToLower(term)) {
				hit = true
				break
			}
		}
		if hit {
			confidence += 0.2
		} else {
			matched = false
			confidence -= 0.2
		}
	}

	if len(p.All) > 0 {
		all := true
		for _, term := range p.All {
			if !strings.Contains(text, strings.ToLower(term)) {
				all = false
				break
			}
		}
		if all {
			confidence += 0.2
		} else {
			matched = false
			confidence -= 0.2
		}
	}

	if len(p.None) > 0 {
		clean := true
		for _, term := range p.None {
			if strings.Contains(text, strings.ToLower(term)) {
				clean = false
				break
			}
		}
		if clean {
			confidence += 0.2
		} else {
			matched = false
			confidence -= 0.2
		}
	}

	return matched, clamp(confidence)
}

func evaluateVideoAge(p *rules.VideoAgeParams, in *interactions.Interaction) (bool, float64) {
	if in.PublishedAt == nil || in.CreatedAt.IsZero() {
		return false, 0.4
	}
	days := int(in.CreatedAt.Sub(*in.PublishedAt) / (24 * time.Hour))
	if p.Op.Compare(days, p.Days) {
		return true, 0.7
	}
	return false, 0.3
}

// clamp bounds confidence to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
