package executions

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the execution log API routes.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/executions", func(r chi.Router) {
		r.Get("/", handleList(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{}
		if v := r.URL.Query().Get("rule_id"); v != "" {
			filter.RuleID = v
		}
		if v := r.URL.Query().Get("interaction_id"); v != "" {
			filter.InteractionID = v
		}
		if r.URL.Query().Get("matched") == "true" {
			filter.MatchedOnly = true
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		records, err := store.List(r.Context(), filter)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []Record{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}
