package approvals

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/CATrainer/revu-sub000/internal/interactions"
)

// RegisterRoutes mounts the approval queue API routes. Deciding an approval
// also transitions the underlying interaction: approve marks it answered,
// reject returns it to read.
func RegisterRoutes(r chi.Router, store *Store, interactionStore *interactions.Store) {
	r.Route("/api/approvals", func(r chi.Router) {
		r.Get("/", handleListPending(store))
		r.Get("/stats", handleStats(store))
		r.Get("/{id}", handleGetByID(store))
		r.Post("/{id}/approve", handleDecide(store, interactionStore, StatusApproved))
		r.Post("/{id}/reject", handleDecide(store, interactionStore, StatusRejected))
	})
}

func handleListPending(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		approvals, err := store.ListPending(r.Context(), limit)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if approvals == nil {
			approvals = []Approval{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(approvals)
	}
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		a, err := store.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if a == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(a)
	}
}

type decideRequest struct {
	DecidedBy string `json:"decided_by"`
}

func handleDecide(store *Store, interactionStore *interactions.Store, status Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req decideRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.DecidedBy == "" {
			req.DecidedBy = "anonymous"
		}

		a, err := store.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if a == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}

		if err := store.Decide(r.Context(), id, status, req.DecidedBy); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		next := interactions.StatusAnswered
		if status == StatusRejected {
			next = interactions.StatusRead
		}
		if err := interactionStore.UpdateStatus(r.Context(), a.InteractionID, next); err != nil {
			// The approval decision stands; the interaction may have been
			// deleted in the meantime.
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": string(status)})
	}
}

func handleStats(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := store.PendingCount(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"pending_count": count})
	}
}
