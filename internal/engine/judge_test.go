package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CATrainer/revu-sub000/internal/llm"
)

// fakeProvider returns canned responses and counts calls.
type fakeProvider struct {
	content string
	err     error
	calls   int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content, Model: req.Model}, nil
}

func TestJudgeParsesJSONVerdict(t *testing.T) {
	provider := &fakeProvider{content: `{"match": true, "confidence": 0.85}`}
	judge := NewJudge(provider, "test-model", 10*time.Minute, 100)

	matched, conf := judge.Evaluate(context.Background(), "when is the next video?", "asks about upload schedule", "scope-1")
	if !matched || conf != 0.85 {
		t.Errorf("got (%v, %v), want (true, 0.85)", matched, conf)
	}
}

func TestJudgeExtractsJSONFromProse(t *testing.T) {
	provider := &fakeProvider{content: `Sure! Here is my verdict: {"match": false, "confidence": 0.7} Hope that helps.`}
	judge := NewJudge(provider, "test-model", 10*time.Minute, 100)

	matched, conf := judge.Evaluate(context.Background(), "nice", "complains about pricing", "scope-1")
	if matched || conf != 0.7 {
		t.Errorf("got (%v, %v), want (false, 0.7)", matched, conf)
	}
}

func TestJudgeKeywordFallback(t *testing.T) {
	provider := &fakeProvider{content: "Yes, it clearly matches the criterion."}
	judge := NewJudge(provider, "test-model", 10*time.Minute, 100)

	matched, conf := judge.Evaluate(context.Background(), "x", "y", "scope-1")
	if !matched || conf != 0.5 {
		t.Errorf("affirmative prose: got (%v, %v), want (true, 0.5)", matched, conf)
	}

	provider2 := &fakeProvider{content: "It does not."}
	judge2 := NewJudge(provider2, "test-model", 10*time.Minute, 100)
	matched, conf = judge2.Evaluate(context.Background(), "x", "y", "scope-1")
	if matched || conf != 0.5 {
		t.Errorf("negative prose: got (%v, %v), want (false, 0.5)", matched, conf)
	}
}

func TestJudgeProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	judge := NewJudge(provider, "test-model", 10*time.Minute, 100)

	matched, conf := judge.Evaluate(context.Background(), "x", "y", "scope-1")
	if matched || conf != 0.4 {
		t.Errorf("got (%v, %v), want (false, 0.4)", matched, conf)
	}

	// Errors are not cached so the judge can recover.
	judge.Evaluate(context.Background(), "x", "y", "scope-1")
	if provider.calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", provider.calls)
	}
}

func TestJudgeUnavailableProvider(t *testing.T) {
	judge := NewJudge(llm.Unavailable(), "test-model", 10*time.Minute, 100)

	matched, conf := judge.Evaluate(context.Background(), "x", "y", "scope-1")
	if matched || conf != 0.4 {
		t.Errorf("got (%v, %v), want (false, 0.4)", matched, conf)
	}
}

func TestJudgeCachesVerdicts(t *testing.T) {
	provider := &fakeProvider{content: `{"match": true, "confidence": 0.9}`}
	judge := NewJudge(provider, "test-model", 10*time.Minute, 100)
	ctx := context.Background()

	judge.Evaluate(ctx, "Great video, loved it!", "expresses praise", "scope-1")
	// Near-duplicate text buckets to the same fingerprint.
	judge.Evaluate(ctx, "great video loved it", "expresses praise", "scope-1")
	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}

	// Different criteria is a different key.
	judge.Evaluate(ctx, "great video loved it", "asks a question", "scope-1")
	if provider.calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", provider.calls)
	}

	// Different scope is a different key.
	judge.Evaluate(ctx, "great video loved it", "expresses praise", "scope-2")
	if provider.calls != 3 {
		t.Errorf("expected 3 provider calls, got %d", provider.calls)
	}
}

func TestJudgeClampsConfidence(t *testing.T) {
	provider := &fakeProvider{content: `{"match": true, "confidence": 3.5}`}
	judge := NewJudge(provider, "test-model", 10*time.Minute, 100)

	_, conf := judge.Evaluate(context.Background(), "x", "y", "scope-1")
	if conf != 1.0 {
		t.Errorf("got %v, want 1.0", conf)
	}
}
