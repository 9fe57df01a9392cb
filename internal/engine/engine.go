package engine

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/CATrainer/revu-sub000/internal/events"
	"github.com/CATrainer/revu-sub000/internal/executions"
	"github.com/CATrainer/revu-sub000/internal/interactions"
	"github.com/CATrainer/revu-sub000/internal/rules"
)

// EvaluationResult is the outcome of judging one rule against one interaction.
// MatchedConditions lists the 1-based positions of conditions that held
// individually, regardless of how the logic expression combined them.
type EvaluationResult struct {
	Matches           bool    `json:"matches"`
	Confidence        float64 `json:"confidence"`
	MatchedConditions []int   `json:"matched_conditions"`
}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	InteractionsProcessed int64      `json:"interactions_processed"`
	RulesEvaluated        int64      `json:"rules_evaluated"`
	RulesMatched          int64      `json:"rules_matched"`
	ActionsExecuted       int64      `json:"actions_executed"`
	RuleCache             CacheStats `json:"rule_cache"`
	JudgeCache            CacheStats `json:"judge_cache"`
}

// Evaluator runs active rules against interactions: it evaluates conditions,
// combines them through each rule's logic expression, executes actions on
// match, and records every evaluation in the execution log. Rule outcomes are
// cached by interaction fingerprint so bursts of near-duplicate comments skip
// re-evaluation.
type Evaluator struct {
	ruleStore        *rules.Store
	interactionStore *interactions.Store
	executionStore   *executions.Store
	executor         *Executor
	judge            *Judge
	hub              *events.Hub

	ruleCache *ttlCache[EvaluationResult]

	interactionsProcessed atomic.Int64
	rulesEvaluated        atomic.Int64
	rulesMatched          atomic.Int64
	actionsExecuted       atomic.Int64
}

// NewEvaluator wires the engine together. hub may be nil when no event feed
// is wanted (tests, CLI).
func NewEvaluator(ruleStore *rules.Store, interactionStore *interactions.Store, executionStore *executions.Store,
	executor *Executor, judge *Judge, hub *events.Hub, ruleTTL time.Duration, cacheMax int) *Evaluator {
	return &Evaluator{
		ruleStore:        ruleStore,
		interactionStore: interactionStore,
		executionStore:   executionStore,
		executor:         executor,
		judge:            judge,
		hub:              hub,
		ruleCache:        newTTLCache[EvaluationResult](ruleTTL, cacheMax),
	}
}

// EvaluateRule judges one rule against one interaction. It never fails:
// condition evaluators degrade to low-confidence answers, and a broken logic
// expression falls back to AND of all conditions. A rule with no conditions
// never matches.
func (e *Evaluator) EvaluateRule(ctx context.Context, rule *rules.Rule, in *interactions.Interaction) EvaluationResult {
	e.rulesEvaluated.Add(1)

	if len(rule.Conditions) == 0 {
		return EvaluationResult{Matches: false, Confidence: 1.0, MatchedConditions: []int{}}
	}

	key := ruleCacheKey(rule, in)
	if cached, ok := e.ruleCache.get(key); ok {
		return cached
	}

	// Every condition is evaluated; the logic expression may reference any of
	// them, so there is no short-circuiting.
	outcomes := make([]bool, len(rule.Conditions))
	matched := []int{}
	var confidenceSum float64
	for i, c := range rule.Conditions {
		var ok bool
		var conf float64
		if c.Kind == rules.KindNaturalLanguage {
			if c.Natural == nil {
				ok, conf = false, 0.3
			} else {
				ok, conf = e.judge.Evaluate(ctx, in.Content, c.Natural.Prompt, in.ScopeID)
			}
		} else {
			ok, conf = evaluateDeterministic(c, in)
		}
		outcomes[i] = ok
		confidenceSum += conf
		if ok {
			matched = append(matched, i+1)
		}
	}

	result := EvaluationResult{
		Matches:           rules.CombineLogic(rule.Logic, outcomes),
		Confidence:        confidenceSum / float64(len(rule.Conditions)),
		MatchedConditions: matched,
	}
	e.ruleCache.put(key, result)
	return result
}

// ProcessInteraction evaluates all active rules against the interaction in
// priority order, executing the actions of every matching rule. A failure in
// one rule's actions never stops the remaining rules. It returns the
// execution records appended for this interaction.
func (e *Evaluator) ProcessInteraction(ctx context.Context, interactionID string) ([]executions.Record, error) {
	in, err := e.interactionStore.GetByID(ctx, interactionID)
	if err != nil {
		return nil, fmt.Errorf("loading interaction: %w", err)
	}
	if in == nil {
		return nil, fmt.Errorf("interaction not found: %s", interactionID)
	}

	active, err := e.ruleStore.ListActive(ctx, in.ScopeID)
	if err != nil {
		return nil, fmt.Errorf("loading active rules: %w", err)
	}

	e.interactionsProcessed.Add(1)

	var records []executions.Record
	for i := range active {
		rule := &active[i]
		result := e.EvaluateRule(ctx, rule, in)

		if !result.Matches {
			records = e.appendRecord(ctx, records, executions.Record{
				RuleID:        rule.ID,
				InteractionID: in.ID,
				Matched:       false,
				Confidence:    result.Confidence,
			})
			continue
		}

		e.rulesMatched.Add(1)
		for _, action := range rule.Actions {
			actionResult := e.executor.Execute(ctx, action, rule, in)
			e.actionsExecuted.Add(1)
			records = e.appendRecord(ctx, records, executions.Record{
				RuleID:        rule.ID,
				InteractionID: in.ID,
				Matched:       true,
				Confidence:    result.Confidence,
				Action:        string(action.Kind),
				Result:        actionResult.Status,
				Detail:        actionResult.Detail,
			})
			if e.hub != nil {
				e.hub.Publish(events.Event{
					RuleID:        rule.ID,
					RuleName:      rule.Name,
					InteractionID: in.ID,
					Action:        string(action.Kind),
					Matched:       true,
				})
			}
		}

		// Actions mutate the interaction; later rules see the updated state.
		if refreshed, err := e.interactionStore.GetByID(ctx, in.ID); err == nil && refreshed != nil {
			in = refreshed
		}
	}

	return records, nil
}

// Snapshot returns the current engine counters and cache statistics.
func (e *Evaluator) Snapshot() Stats {
	return Stats{
		InteractionsProcessed: e.interactionsProcessed.Load(),
		RulesEvaluated:        e.rulesEvaluated.Load(),
		RulesMatched:          e.rulesMatched.Load(),
		ActionsExecuted:       e.actionsExecuted.Load(),
		RuleCache:             e.ruleCache.stats(),
		JudgeCache:            e.judge.Stats(),
	}
}

func (e *Evaluator) appendRecord(ctx context.Context, records []executions.Record, rec executions.Record) []executions.Record {
	stored, err := e.executionStore.Append(ctx, rec)
	if err != nil {
		log.Printf("engine: recording execution for rule %s: %v", rec.RuleID, err)
		return append(records, rec)
	}
	return append(records, *stored)
}

// ruleCacheKey covers everything the evaluation depends on: the rule's
// identity and definition, plus the interaction attributes the evaluators
// read. A rule edit or a materially different comment changes the key.
func ruleCacheKey(rule *rules.Rule, in *interactions.Interaction) string {
	return cacheKey(
		rule.ID,
		rule.Logic,
		rule.ConditionsHash(),
		in.ScopeID,
		Fingerprint(in.Content),
		in.Sentiment,
		strconv.FormatBool(in.AuthorIsSubscriber),
	)
}
