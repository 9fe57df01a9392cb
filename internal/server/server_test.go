package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CATrainer/revu-sub000/internal/db"
	"github.com/CATrainer/revu-sub000/internal/executions"
	"github.com/CATrainer/revu-sub000/internal/interactions"
	"github.com/CATrainer/revu-sub000/internal/llm"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	s := New(Config{Port: 0}, database, llm.Unavailable(), "test-model", EngineConfig{
		RuleCacheTTL:    5 * time.Minute,
		JudgeCacheTTL:   10 * time.Minute,
		CacheMaxEntries: 100,
	})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload interface{}, out interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealthz(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestEndToEndRuleFlow(t *testing.T) {
	ts := setupTestServer(t)

	// Create a rule that tags refund requests.
	var created struct {
		Rule struct {
			ID string `json:"id"`
		} `json:"rule"`
	}
	resp := postJSON(t, ts.URL+"/api/rules", map[string]interface{}{
		"name":     "tag refunds",
		"scope_id": "channel-1",
		"enabled":  true,
		"conditions": []map[string]interface{}{
			{"kind": "keywords", "keywords": map[string]interface{}{"any": []string{"refund"}}},
		},
		"actions": []map[string]interface{}{
			{"kind": "add_tag", "tag": "refund"},
		},
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create rule: expected 201, got %d", resp.StatusCode)
	}
	if created.Rule.ID == "" {
		t.Fatal("expected rule ID in response")
	}

	// Ingest an interaction.
	var in interactions.Interaction
	resp = postJSON(t, ts.URL+"/api/interactions", map[string]interface{}{
		"external_id": "yt-1",
		"platform":    "youtube",
		"author_name": "viewer42",
		"content":     "can I get a refund?",
		"scope_id":    "channel-1",
	}, &in)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create interaction: expected 201, got %d", resp.StatusCode)
	}

	// Run the engine against it.
	var records []executions.Record
	resp = postJSON(t, ts.URL+"/api/engine/process/"+in.ID, map[string]interface{}{}, &records)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("process: expected 200, got %d", resp.StatusCode)
	}
	if len(records) != 1 || !records[0].Matched || records[0].Result != "applied" {
		t.Fatalf("unexpected records: %+v", records)
	}

	// The tag landed on the interaction.
	getResp, err := http.Get(ts.URL + "/api/interactions/" + in.ID)
	if err != nil {
		t.Fatalf("GET interaction: %v", err)
	}
	defer getResp.Body.Close()
	var updated interactions.Interaction
	if err := json.NewDecoder(getResp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !updated.HasTag("refund") {
		t.Errorf("expected refund tag, got %v", updated.Tags)
	}

	// And the execution log has it too.
	logResp, err := http.Get(ts.URL + "/api/executions?matched=true")
	if err != nil {
		t.Fatalf("GET executions: %v", err)
	}
	defer logResp.Body.Close()
	var logged []executions.Record
	if err := json.NewDecoder(logResp.Body).Decode(&logged); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(logged) != 1 {
		t.Errorf("expected 1 logged execution, got %d", len(logged))
	}
}

func TestStoredRuleDryRun(t *testing.T) {
	ts := setupTestServer(t)

	var created struct {
		Rule struct {
			ID string `json:"id"`
		} `json:"rule"`
	}
	postJSON(t, ts.URL+"/api/rules", map[string]interface{}{
		"name":     "tag refunds",
		"scope_id": "channel-1",
		"enabled":  true,
		"conditions": []map[string]interface{}{
			{"kind": "keywords", "keywords": map[string]interface{}{"any": []string{"refund"}}},
		},
		"actions": []map[string]interface{}{
			{"kind": "add_tag", "tag": "refund"},
		},
	}, &created)

	var result struct {
		Matches           bool  `json:"matches"`
		MatchedConditions []int `json:"matched_conditions"`
	}
	resp := postJSON(t, ts.URL+"/api/rules/"+created.Rule.ID+"/test", map[string]interface{}{
		"content":  "can I get a refund?",
		"scope_id": "channel-1",
	}, &result)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("test route: expected 200, got %d", resp.StatusCode)
	}
	if !result.Matches || len(result.MatchedConditions) != 1 {
		t.Errorf("unexpected dry-run result: %+v", result)
	}

	// Dry runs never act: no interaction exists, nothing is logged.
	logResp, err := http.Get(ts.URL + "/api/executions")
	if err != nil {
		t.Fatalf("GET executions: %v", err)
	}
	defer logResp.Body.Close()
	var logged []executions.Record
	if err := json.NewDecoder(logResp.Body).Decode(&logged); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(logged) != 0 {
		t.Errorf("expected empty execution log, got %d records", len(logged))
	}
}

func TestEngineStatsRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/api/engine/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stats map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"rules_evaluated", "rule_cache", "judge_cache"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("missing %q in stats payload", key)
		}
	}
}
