package engine

import (
	"testing"
	"time"

	"github.com/CATrainer/revu-sub000/internal/interactions"
	"github.com/CATrainer/revu-sub000/internal/rules"
)

func TestEvaluateSentimentLabel(t *testing.T) {
	cond := rules.Condition{Kind: rules.KindSentiment, Sentiment: &rules.SentimentParams{Value: "negative"}}

	matched, conf := evaluateDeterministic(cond, &interactions.Interaction{Sentiment: "negative", Content: "whatever"})
	if !matched || conf != 0.9 {
		t.Errorf("label match: got (%v, %v), want (true, 0.9)", matched, conf)
	}

	matched, conf = evaluateDeterministic(cond, &interactions.Interaction{Sentiment: "positive", Content: "whatever"})
	if matched || conf != 0.2 {
		t.Errorf("label mismatch: got (%v, %v), want (false, 0.2)", matched, conf)
	}
}

func TestEvaluateSentimentFallback(t *testing.T) {
	cond := rules.Condition{Kind: rules.KindSentiment, Sentiment: &rules.SentimentParams{Value: "negative"}}

	// No label, content clearly negative.
	matched, conf := evaluateDeterministic(cond, &interactions.Interaction{Content: "this is a scam, terrible product"})
	if !matched || conf != 0.6 {
		t.Errorf("fallback negative: got (%v, %v), want (true, 0.6)", matched, conf)
	}

	// No label, neutral content, looking for negative.
	matched, conf = evaluateDeterministic(cond, &interactions.Interaction{Content: "what camera do you use"})
	if matched || conf != 0.4 {
		t.Errorf("fallback neutral: got (%v, %v), want (false, 0.4)", matched, conf)
	}
}

func TestEvaluateSubscriber(t *testing.T) {
	cond := rules.Condition{Kind: rules.KindSubscriber, Subscriber: &rules.SubscriberParams{Required: true}}

	matched, conf := evaluateDeterministic(cond, &interactions.Interaction{AuthorIsSubscriber: true})
	if !matched || conf != 0.8 {
		t.Errorf("subscriber: got (%v, %v), want (true, 0.8)", matched, conf)
	}

	matched, conf = evaluateDeterministic(cond, &interactions.Interaction{AuthorIsSubscriber: false})
	if matched || conf != 0.2 {
		t.Errorf("non-subscriber: got (%v, %v), want (false, 0.2)", matched, conf)
	}
}

func TestEvaluateKeywords(t *testing.T) {
	cond := rules.Condition{Kind: rules.KindKeywords, Keywords: &rules.KeywordParams{
		Any:  []string{"refund"},
		None: []string{"scam"},
	}}

	matched, conf := evaluateDeterministic(cond, &interactions.Interaction{Content: "I want a refund please"})
	if !matched {
		t.Error("expected match for refund comment")
	}
	if conf < 0.5 {
		t.Errorf("expected confidence >= 0.5, got %v", conf)
	}

	matched, _ = evaluateDeterministic(cond, &interactions.Interaction{Content: "refund scam alert"})
	if matched {
		t.Error("none clause should block the match")
	}
}

func TestEvaluateKeywordsConfidenceClamped(t *testing.T) {
	cond := rules.Condition{Kind: rules.KindKeywords, Keywords: &rules.KeywordParams{
		Any:  []string{"refund"},
		All:  []string{"refund", "now"},
		None: []string{"thanks"},
	}}

	_, conf := evaluateDeterministic(cond, &interactions.Interaction{Content: "refund now"})
	if conf != 1.0 {
		t.Errorf("expected clamped confidence 1.0, got %v", conf)
	}
}

func TestEvaluateCommentLength(t *testing.T) {
	cond := rules.Condition{Kind: rules.KindCommentLength, Length: &rules.LengthParams{Op: rules.CmpLT, Value: 5}}

	// Multi-byte runes count as one character each.
	matched, conf := evaluateDeterministic(cond, &interactions.Interaction{Content: "héllo"})
	if matched {
		t.Error("5 runes is not < 5")
	}
	if conf != 0.3 {
		t.Errorf("expected 0.3, got %v", conf)
	}

	matched, conf = evaluateDeterministic(cond, &interactions.Interaction{Content: "hi"})
	if !matched || conf != 0.7 {
		t.Errorf("got (%v, %v), want (true, 0.7)", matched, conf)
	}
}

func TestEvaluateVideoAge(t *testing.T) {
	published := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	created := published.Add(10 * 24 * time.Hour)
	cond := rules.Condition{Kind: rules.KindVideoAge, VideoAge: &rules.VideoAgeParams{Op: rules.CmpGT, Days: 7}}

	matched, conf := evaluateDeterministic(cond, &interactions.Interaction{PublishedAt: &published, CreatedAt: created})
	if !matched || conf != 0.7 {
		t.Errorf("got (%v, %v), want (true, 0.7)", matched, conf)
	}

	// Missing publish timestamp.
	matched, conf = evaluateDeterministic(cond, &interactions.Interaction{CreatedAt: created})
	if matched || conf != 0.4 {
		t.Errorf("missing timestamp: got (%v, %v), want (false, 0.4)", matched, conf)
	}
}

func TestEvaluateUnknownKind(t *testing.T) {
	matched, conf := evaluateDeterministic(rules.Condition{Kind: "regex_match"}, &interactions.Interaction{Content: "x"})
	if matched || conf != 0.3 {
		t.Errorf("got (%v, %v), want (false, 0.3)", matched, conf)
	}
}

func TestEvaluateMissingParams(t *testing.T) {
	kinds := []rules.ConditionKind{
		rules.KindSentiment, rules.KindSubscriber, rules.KindKeywords,
		rules.KindCommentLength, rules.KindVideoAge,
	}
	for _, kind := range kinds {
		matched, conf := evaluateDeterministic(rules.Condition{Kind: kind}, &interactions.Interaction{Content: "x"})
		if matched || conf != 0.3 {
			t.Errorf("%s with nil params: got (%v, %v), want (false, 0.3)", kind, matched, conf)
		}
	}
}
