//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestErrorWritesFailureEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "No files provided")

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}

	var got UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.OK() {
		t.Error("Expected success=false")
	}
	if got.ErrorText() != "No files provided" {
		t.Errorf("Expected error text, got %q", got.ErrorText())
	}
}

func TestQueryResponseEntries(t *testing.T) {
	resp := &QueryResponse{Context: []ContextChunk{{Source: "doc1.pdf", Score: 0.87, Text: "..."}}}

	entries := resp.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Percent() != "87%" {
		t.Errorf("Expected 87%%, got %s", entries[0].Percent())
	}

	var empty *QueryResponse
	if empty.Entries() != nil {
		t.Error("Expected nil entries for nil response")
	}
}
