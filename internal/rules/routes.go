package rules

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the rule management API routes. Conflict checks run
// automatically on create and enable; the report is returned alongside the
// rule but never blocks activation (the detector is advisory).
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/rules", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Post("/", handleCreate(store))
		r.Post("/check", handleCheck(store))
		r.Get("/{id}", handleGetByID(store))
		r.Put("/{id}", handleUpdate(store))
		r.Post("/{id}/enable", handleSetEnabled(store, true))
		r.Post("/{id}/disable", handleSetEnabled(store, false))
		r.Delete("/{id}", handleDelete(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scopeID := r.URL.Query().Get("scope_id")

		var (
			items []Rule
			err   error
		)
		if r.URL.Query().Get("active") == "true" {
			items, err = store.ListActive(r.Context(), scopeID)
		} else {
			items, err = store.List(r.Context(), scopeID)
		}
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if items == nil {
			items = []Rule{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(items)
	}
}

type ruleWithReport struct {
	Rule     *Rule          `json:"rule"`
	Conflict ConflictReport `json:"conflict_report"`
}

func handleCreate(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rule Rule
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if rule.Name == "" {
			http.Error(w, `{"error":"name is required"}`, http.StatusBadRequest)
			return
		}

		existing, err := store.ListActive(r.Context(), rule.ScopeID)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		report := FindConflicts(rule, existing)

		created, err := store.Create(r.Context(), rule)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(ruleWithReport{Rule: created, Conflict: report})
	}
}

// handleCheck runs the conflict detector without persisting anything.
func handleCheck(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rule Rule
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		existing, err := store.ListActive(r.Context(), rule.ScopeID)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(FindConflicts(rule, existing))
	}
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rule, err := store.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if rule == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rule)
	}
}

func handleUpdate(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var rule Rule
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		rule.ID = id

		existing, err := store.ListActive(r.Context(), rule.ScopeID)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		report := FindConflicts(rule, existing)

		if err := store.Update(r.Context(), rule); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		updated, err := store.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ruleWithReport{Rule: updated, Conflict: report})
	}
}

func handleSetEnabled(store *Store, enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var report *ConflictReport
		if enabled {
			rule, err := store.GetByID(r.Context(), id)
			if err != nil {
				http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
				return
			}
			if rule == nil {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			existing, err := store.ListActive(r.Context(), rule.ScopeID)
			if err != nil {
				http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
				return
			}
			rep := FindConflicts(*rule, existing)
			report = &rep
		}

		if err := store.SetEnabled(r.Context(), id, enabled); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{"enabled": enabled}
		if report != nil {
			resp["conflict_report"] = report
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func handleDelete(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.SoftDelete(r.Context(), id); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
