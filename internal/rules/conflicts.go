package rules

import (
	"fmt"
	"math"
	"strings"
)

// ConflictReport is the result of statically comparing a candidate rule
// against the existing active rules before activation.
type ConflictReport struct {
	OK                  bool                 `json:"ok"`
	Overlaps            []Overlap            `json:"overlaps"`
	Warnings            []string             `json:"warnings"`
	PrioritySuggestions []PrioritySuggestion `json:"priority_suggestions"`
	LoopRisks           []string             `json:"loop_risks"`
	LogicErrors         []string             `json:"logic_errors"`
}

// Overlap records one existing rule whose trigger conditions can fire on the
// same interactions as the candidate.
type Overlap struct {
	RuleID           string `json:"rule_id"`
	RuleName         string `json:"rule_name"`
	Severity         string `json:"severity"` // high, medium, low
	CompetingActions bool   `json:"competing_actions"`
	Reason           string `json:"reason"`
}

// PrioritySuggestion recommends an execution ordering between two rules whose
// actions compete.
type PrioritySuggestion struct {
	FirstRuleID  string `json:"first_rule_id"`
	SecondRuleID string `json:"second_rule_id"`
	Reason       string `json:"reason"`
}

// replyTokens are words common in a bot's own generated replies. A rule whose
// keyword conditions match these could re-trigger on its own output.
var replyTokens = []string{
	"thanks", "thank you", "appreciate", "glad", "welcome", "happy to help",
}

// FindConflicts compares the candidate against the existing rules and returns
// a structured report. Soft-deleted and disabled rules in existing are skipped.
func FindConflicts(candidate Rule, existing []Rule) ConflictReport {
	report := ConflictReport{
		Overlaps:            []Overlap{},
		Warnings:            []string{},
		PrioritySuggestions: []PrioritySuggestion{},
		LoopRisks:           []string{},
		LogicErrors:         []string{},
	}

	report.LogicErrors = append(report.LogicErrors, ValidateLogic(candidate.Logic, len(candidate.Conditions))...)

	if len(candidate.Conditions) == 0 {
		report.Warnings = append(report.Warnings, "rule has no conditions and will never match")
	}
	if len(candidate.Actions) == 0 {
		report.Warnings = append(report.Warnings, "rule has no actions")
	}

	candConstraints := extractConstraints(candidate)

	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID || other.Deleted || !other.Enabled {
			continue
		}

		otherConstraints := extractConstraints(*other)
		if !constraintsOverlap(candConstraints, otherConstraints) {
			continue
		}

		competing := actionsCompete(candidate.Actions, other.Actions)
		overlap := Overlap{
			RuleID:           other.ID,
			RuleName:         other.Name,
			CompetingActions: competing,
		}

		switch {
		case competing:
			overlap.Severity = "high"
			overlap.Reason = fmt.Sprintf("overlapping trigger conditions with competing actions (%s vs %s)",
				strongestAction(candidate.Actions), strongestAction(other.Actions))
		case sharedRequiredKeywords(candConstraints, otherConstraints) || sameSentiment(candConstraints, otherConstraints):
			overlap.Severity = "medium"
			overlap.Reason = "overlapping trigger conditions on the same keywords or sentiment"
		default:
			overlap.Severity = "low"
			overlap.Reason = "trigger conditions can match the same interactions"
		}
		report.Overlaps = append(report.Overlaps, overlap)

		if competing {
			report.PrioritySuggestions = append(report.PrioritySuggestions,
				suggestPriority(candidate, *other))
			if candidate.Priority == other.Priority {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"rule %q has the same priority (%d) with competing actions; ordering between them is undefined",
					other.Name, other.Priority))
			}
		}
	}

	report.LoopRisks = append(report.LoopRisks, loopRisks(candidate)...)

	report.OK = len(report.Overlaps) == 0 && len(report.LogicErrors) == 0 && len(report.LoopRisks) == 0
	return report
}

// constraintSet is the simplified matching model used for overlap analysis.
// Missing bounds are treated as +/- infinity; empty strings and nil pointers
// mean "unconstrained".
type constraintSet struct {
	sentiment  string
	subscriber *bool
	lengthMin  float64
	lengthMax  float64
	ageMin     float64
	ageMax     float64
	any        []string
	all        []string
	none       []string
}

func extractConstraints(r Rule) constraintSet {
	cs := constraintSet{
		lengthMin: math.Inf(-1),
		lengthMax: math.Inf(1),
		ageMin:    math.Inf(-1),
		ageMax:    math.Inf(1),
	}

	for _, c := range r.Conditions {
		switch c.Kind {
		case KindSentiment:
			if c.Sentiment != nil {
				cs.sentiment = strings.ToLower(c.Sentiment.Value)
			}
		case KindSubscriber:
			if c.Subscriber != nil {
				required := c.Subscriber.Required
				cs.subscriber = &required
			}
		case KindKeywords:
			if c.Keywords != nil {
				cs.any = append(cs.any, lowerAll(c.Keywords.Any)...)
				cs.all = append(cs.all, lowerAll(c.Keywords.All)...)
				cs.none = append(cs.none, lowerAll(c.Keywords.None)...)
			}
		case KindCommentLength:
			if c.Length != nil {
				lo, hi := comparatorInterval(c.Length.Op, c.Length.Value)
				cs.lengthMin = math.Max(cs.lengthMin, lo)
				cs.lengthMax = math.Min(cs.lengthMax, hi)
			}
		case KindVideoAge:
			if c.VideoAge != nil {
				lo, hi := comparatorInterval(c.VideoAge.Op, c.VideoAge.Days)
				cs.ageMin = math.Max(cs.ageMin, lo)
				cs.ageMax = math.Min(cs.ageMax, hi)
			}
		}
	}
	return cs
}

// comparatorInterval converts op+value into a closed interval over integers.
func comparatorInterval(op Comparator, value int) (float64, float64) {
	v := float64(value)
	switch op {
	case CmpGTE:
		return v, math.Inf(1)
	case CmpGT:
		return v + 1, math.Inf(1)
	case CmpLTE:
		return math.Inf(-1), v
	case CmpLT:
		return math.Inf(-1), v - 1
	case CmpEQ:
		return v, v
	default:
		return math.Inf(-1), math.Inf(1)
	}
}

// constraintsOverlap implements the wildcard-friendly overlap test: a
// dimension only separates two rules when both constrain it incompatibly.
func constraintsOverlap(a, b constraintSet) bool {
	if a.sentiment != "" && b.sentiment != "" && a.sentiment != b.sentiment {
		return false
	}
	if a.subscriber != nil && b.subscriber != nil && *a.subscriber != *b.subscriber {
		return false
	}
	if a.lengthMin > b.lengthMax || b.lengthMin > a.lengthMax {
		return false
	}
	if a.ageMin > b.ageMax || b.ageMin > a.ageMax {
		return false
	}
	// One rule's forbidden keywords disqualify the overlap only when the
	// other rule requires one of them.
	if forbidsRequired(a.none, b) || forbidsRequired(b.none, a) {
		return false
	}
	return true
}

func forbidsRequired(none []string, other constraintSet) bool {
	required := append(append([]string{}, other.any...), other.all...)
	for _, n := range none {
		for _, req := range required {
			if n == req {
				return true
			}
		}
	}
	return false
}

func sharedRequiredKeywords(a, b constraintSet) bool {
	aReq := append(append([]string{}, a.any...), a.all...)
	bReq := append(append([]string{}, b.any...), b.all...)
	for _, x := range aReq {
		for _, y := range bReq {
			if x == y {
				return true
			}
		}
	}
	return false
}

func sameSentiment(a, b constraintSet) bool {
	return a.sentiment != "" && a.sentiment == b.sentiment
}

// Action competition: delete competes with generate and flag; flag competes
// with generate. auto_respond is generate-class.
func actionClass(kind ActionKind) string {
	switch kind {
	case ActionDeleteComment:
		return "delete"
	case ActionFlagForReview:
		return "flag"
	case ActionGenerateResponse, ActionAutoRespond:
		return "generate"
	default:
		return "other"
	}
}

var competingClasses = map[[2]string]bool{
	{"delete", "generate"}: true,
	{"generate", "delete"}: true,
	{"delete", "flag"}:     true,
	{"flag", "delete"}:     true,
	{"flag", "generate"}:   true,
	{"generate", "flag"}:   true,
}

func actionsCompete(a, b []Action) bool {
	for _, x := range a {
		for _, y := range b {
			if competingClasses[[2]string{actionClass(x.Kind), actionClass(y.Kind)}] {
				return true
			}
		}
	}
	return false
}

// actionPreference is the fixed tie-break order: delete > flag > generate.
func actionPreference(class string) int {
	switch class {
	case "delete":
		return 3
	case "flag":
		return 2
	case "generate":
		return 1
	default:
		return 0
	}
}

func strongestAction(actions []Action) string {
	best := "other"
	for _, a := range actions {
		if c := actionClass(a.Kind); actionPreference(c) > actionPreference(best) {
			best = c
		}
	}
	return best
}

// Specificity measures how narrowly a rule's conditions constrain matching
// interactions: one point per condition, two per required-all keyword term,
// one per any keyword term. The weights are fixed contract values.
func Specificity(r Rule) int {
	score := len(r.Conditions)
	for _, c := range r.Conditions {
		if c.Kind == KindKeywords && c.Keywords != nil {
			score += 2 * len(c.Keywords.All)
			score += len(c.Keywords.Any)
		}
	}
	return score
}

func suggestPriority(candidate, other Rule) PrioritySuggestion {
	candSpec, otherSpec := Specificity(candidate), Specificity(other)

	switch {
	case candSpec > otherSpec:
		return PrioritySuggestion{
			FirstRuleID:  candidate.ID,
			SecondRuleID: other.ID,
			Reason: fmt.Sprintf("%q is more specific (%d vs %d) and should run first",
				candidate.Name, candSpec, otherSpec),
		}
	case otherSpec > candSpec:
		return PrioritySuggestion{
			FirstRuleID:  other.ID,
			SecondRuleID: candidate.ID,
			Reason: fmt.Sprintf("%q is more specific (%d vs %d) and should run first",
				other.Name, otherSpec, candSpec),
		}
	}

	// Specificity tie: fall back to the fixed action preference order.
	if actionPreference(strongestAction(candidate.Actions)) >= actionPreference(strongestAction(other.Actions)) {
		return PrioritySuggestion{
			FirstRuleID:  candidate.ID,
			SecondRuleID: other.ID,
			Reason: fmt.Sprintf("%s actions take precedence over %s actions",
				strongestAction(candidate.Actions), strongestAction(other.Actions)),
		}
	}
	return PrioritySuggestion{
		FirstRuleID:  other.ID,
		SecondRuleID: candidate.ID,
		Reason: fmt.Sprintf("%s actions take precedence over %s actions",
			strongestAction(other.Actions), strongestAction(candidate.Actions)),
	}
}

// loopRisks flags rules that could re-trigger on the bot's own replies.
func loopRisks(r Rule) []string {
	var risks []string

	generates := false
	for _, a := range r.Actions {
		if actionClass(a.Kind) == "generate" {
			generates = true
			break
		}
	}
	if !generates {
		return risks
	}

	// Always advisory: the engine has no built-in safeguard excluding the
	// bot's own replies from re-evaluation.
	risks = append(risks, "rule generates responses but has no condition excluding the bot's own replies; generated replies may be re-evaluated")

	for _, c := range r.Conditions {
		if c.Kind != KindKeywords || c.Keywords == nil {
			continue
		}
		terms := append(append([]string{}, c.Keywords.Any...), c.Keywords.All...)
		for _, term := range lowerAll(terms) {
			for _, reply := range replyTokens {
				if strings.Contains(reply, term) || strings.Contains(term, reply) {
					risks = append(risks, fmt.Sprintf(
						"keyword %q matches common reply language; this rule could trigger on its own generated replies", term))
				}
			}
		}
	}
	return risks
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}
