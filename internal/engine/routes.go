package engine

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CATrainer/revu-sub000/internal/interactions"
	"github.com/CATrainer/revu-sub000/internal/rules"
)

// RegisterRoutes mounts the engine API routes. The stored-rule test route
// lives here rather than in the rules package because it needs the evaluator.
func RegisterRoutes(r chi.Router, evaluator *Evaluator, ruleStore *rules.Store) {
	r.Route("/api/engine", func(r chi.Router) {
		r.Get("/stats", handleStats(evaluator))
		r.Post("/process/{interactionID}", handleProcess(evaluator))
		r.Post("/test", handleTest(evaluator))
	})
	r.Post("/api/rules/{id}/test", handleTestStored(evaluator, ruleStore))
}

func handleStats(evaluator *Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(evaluator.Snapshot())
	}
}

// handleProcess runs all active rules against a stored interaction and
// returns the execution records.
func handleProcess(evaluator *Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "interactionID")
		records, err := evaluator.ProcessInteraction(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

type testRequest struct {
	Rule        rules.Rule               `json:"rule"`
	Interaction interactions.Interaction `json:"interaction"`
}

// handleTestStored evaluates a stored rule against a posted sample
// interaction without executing any actions.
func handleTestStored(evaluator *Evaluator, ruleStore *rules.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rule, err := ruleStore.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if rule == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}

		var in interactions.Interaction
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		result := evaluator.EvaluateRule(r.Context(), rule, &in)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// handleTest evaluates an ad-hoc rule against an ad-hoc interaction without
// persisting or executing anything. Used by the rule builder's dry-run.
func handleTest(evaluator *Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		result := evaluator.EvaluateRule(r.Context(), &req.Rule, &req.Interaction)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
