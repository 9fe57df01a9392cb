package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/CATrainer/revu-sub000/internal/llm"
)

// judgment is a cached AI verdict on one (comment, criteria) pair.
type judgment struct {
	Matches    bool
	Confidence float64
}

// Judge evaluates natural-language conditions by asking the LLM provider for
// a strict-JSON verdict. Results are cached by a bucketing fingerprint so
// near-duplicate comments reuse one judgment. The judge never fails: provider
// errors and unparseable replies degrade to documented low-confidence answers.
type Judge struct {
	provider llm.Provider
	model    string
	cache    *ttlCache[judgment]
}

const judgeSystemPrompt = `You evaluate whether a social media comment matches a criterion.
Respond ONLY with a JSON object of the form {"match": true|false, "confidence": 0.0-1.0} and nothing else.`

// NewJudge creates a Judge with the given cache TTL and capacity.
func NewJudge(provider llm.Provider, model string, ttl time.Duration, maxEntries int) *Judge {
	return &Judge{
		provider: provider,
		model:    model,
		cache:    newTTLCache[judgment](ttl, maxEntries),
	}
}

// Evaluate judges the interaction text against the criteria prompt. The scope
// key partitions the cache between channels/orgs sharing one engine instance.
func (j *Judge) Evaluate(ctx context.Context, text, criteria, scopeKey string) (bool, float64) {
	key := cacheKey(Fingerprint(text), criteria, scopeKey)
	if cached, ok := j.cache.get(key); ok {
		return cached.Matches, cached.Confidence
	}

	prompt := fmt.Sprintf("Criterion: %s\n\nComment:\n%s\n\nDoes the comment match the criterion?", criteria, text)

	resp, err := j.provider.Complete(ctx, llm.CompletionRequest{
		Model: j.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: judgeSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   128,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		// Unavailable or failing providers must not break evaluation; answer
		// "no" with low confidence and do not cache so recovery is possible.
		if !llm.IsUnavailable(err) {
			log.Printf("ai judge: provider error: %v", err)
		}
		return false, 0.4
	}

	verdict := parseJudgment(resp.Content)
	j.cache.put(key, verdict)
	return verdict.Matches, verdict.Confidence
}

// Stats returns the judge cache counters.
func (j *Judge) Stats() CacheStats {
	return j.cache.stats()
}

// parseJudgment extracts the first JSON object found anywhere in the reply.
// If none parses, a keyword scan for affirmative tokens decides the match at
// confidence 0.5.
func parseJudgment(content string) judgment {
	jsonStr := content
	if idx := strings.Index(content, "{"); idx >= 0 {
		jsonStr = content[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}

	var parsed struct {
		Match      bool    `json:"match"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err == nil {
		return judgment{Matches: parsed.Match, Confidence: clamp(parsed.Confidence)}
	}

	lower := strings.ToLower(content)
	if strings.Contains(lower, "true") || strings.Contains(lower, "yes") {
		return judgment{Matches: true, Confidence: 0.5}
	}
	return judgment{Matches: false, Confidence: 0.5}
}
