package engine

import (
	"context"
	"fmt"

	"github.com/CATrainer/revu-sub000/internal/approvals"
	"github.com/CATrainer/revu-sub000/internal/interactions"
	"github.com/CATrainer/revu-sub000/internal/llm"
	"github.com/CATrainer/revu-sub000/internal/rules"
)

// Priority floors applied by flag_for_review per severity. Flagging only ever
// raises an interaction's priority.
const (
	floorLow    = 30
	floorMedium = 60
	floorHigh   = 90
)

// ActionResult records the outcome of one executed action.
type ActionResult struct {
	Status     string `json:"status"` // applied, unsupported, failed
	Detail     string `json:"detail,omitempty"`
	ApprovalID string `json:"approval_id,omitempty"`
}

// Executor applies rule actions to interactions. Every action is best effort:
// an action failure is recorded, never propagated into the evaluation loop.
type Executor struct {
	interactionStore *interactions.Store
	approvalStore    *approvals.Store
	provider         llm.Provider
	model            string
}

// NewExecutor creates an action executor.
func NewExecutor(interactionStore *interactions.Store, approvalStore *approvals.Store, provider llm.Provider, model string) *Executor {
	return &Executor{
		interactionStore: interactionStore,
		approvalStore:    approvalStore,
		provider:         provider,
		model:            model,
	}
}

// Execute applies one action to the interaction.
func (e *Executor) Execute(ctx context.Context, action rules.Action, rule *rules.Rule, in *interactions.Interaction) ActionResult {
	switch action.Kind {
	case rules.ActionAutoRespond:
		return e.autoRespond(ctx, action, in)
	case rules.ActionGenerateResponse:
		return e.generateResponse(ctx, rule, in)
	case rules.ActionDeleteComment:
		// Platform-side deletion happens asynchronously; locally the
		// interaction is archived, never hard-deleted by a rule.
		if err := e.interactionStore.UpdateStatus(ctx, in.ID, interactions.StatusArchived); err != nil {
			return failed(err)
		}
		return ActionResult{Status: "applied", Detail: "queued for platform deletion"}
	case rules.ActionFlagForReview:
		return e.flagForReview(ctx, action, in)
	case rules.ActionAddTag:
		if action.Tag == "" {
			return ActionResult{Status: "failed", Detail: "add_tag requires a tag"}
		}
		if err := e.interactionStore.AddTag(ctx, in.ID, action.Tag); err != nil {
			return failed(err)
		}
		return ActionResult{Status: "applied", Detail: "tagged " + action.Tag}
	case rules.ActionRouteToView:
		if action.View == "" {
			return ActionResult{Status: "failed", Detail: "route_to_view requires a view"}
		}
		if err := e.interactionStore.SetRoutedView(ctx, in.ID, action.View); err != nil {
			return failed(err)
		}
		return ActionResult{Status: "applied", Detail: "routed to " + action.View}
	case rules.ActionUpdateStatus:
		if err := e.interactionStore.UpdateStatus(ctx, in.ID, action.Status); err != nil {
			return failed(err)
		}
		return ActionResult{Status: "applied", Detail: "status set to " + string(action.Status)}
	default:
		return ActionResult{Status: "unsupported", Detail: "unknown action kind: " + string(action.Kind)}
	}
}

// autoRespond queues a fixed response for dispatch without human review.
func (e *Executor) autoRespond(ctx context.Context, action rules.Action, in *interactions.Interaction) ActionResult {
	if action.ResponseText == "" {
		return ActionResult{Status: "failed", Detail: "auto_respond requires response_text"}
	}
	if err := e.interactionStore.SetPendingResponse(ctx, in.ID, action.ResponseText, true); err != nil {
		return failed(err)
	}
	return ActionResult{Status: "applied", Detail: "response queued for auto-send"}
}

const draftSystemPrompt = `You draft short, friendly replies to social media comments on behalf of a creator.
Match the commenter's tone, stay under 3 sentences, and never promise anything specific.
Respond with the reply text only.`

// generateResponse drafts a reply via the AI provider and enqueues it for
// human approval. The draft is never sent automatically.
func (e *Executor) generateResponse(ctx context.Context, rule *rules.Rule, in *interactions.Interaction) ActionResult {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: draftSystemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Comment from %s:\n%s", in.AuthorName, in.Content)},
		},
		MaxTokens:   256,
		Temperature: 0.7,
	})
	if err != nil {
		if llm.IsUnavailable(err) {
			return ActionResult{Status: "failed", Detail: "ai provider not configured"}
		}
		return failed(err)
	}

	if err := e.interactionStore.SetPendingResponse(ctx, in.ID, resp.Content, false); err != nil {
		return failed(err)
	}

	priority := in.PriorityScore
	ruleID, reason := "", "rule-generated draft"
	if rule != nil {
		ruleID = rule.ID
		reason = "drafted by rule " + rule.Name
	}
	approvalID, err := e.approvalStore.Enqueue(ctx, approvals.Approval{
		InteractionID: in.ID,
		RuleID:        ruleID,
		ResponseText:  resp.Content,
		Reason:        reason,
		Priority:      priority,
	})
	if err != nil {
		return failed(err)
	}
	return ActionResult{Status: "applied", Detail: "draft queued for approval", ApprovalID: approvalID}
}

// flagForReview marks the interaction flagged and raises its priority to the
// severity floor. Missing or unknown severity counts as medium.
func (e *Executor) flagForReview(ctx context.Context, action rules.Action, in *interactions.Interaction) ActionResult {
	floor := floorMedium
	switch action.Severity {
	case "low":
		floor = floorLow
	case "high":
		floor = floorHigh
	}

	if err := e.interactionStore.UpdateStatus(ctx, in.ID, interactions.StatusFlagged); err != nil {
		return failed(err)
	}
	if err := e.interactionStore.RaisePriority(ctx, in.ID, floor); err != nil {
		return failed(err)
	}
	return ActionResult{Status: "applied", Detail: fmt.Sprintf("flagged at priority floor %d", floor)}
}

func failed(err error) ActionResult {
	return ActionResult{Status: "failed", Detail: err.Error()}
}
