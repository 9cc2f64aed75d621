package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("writes status and body", func(t *testing.T) {
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusCreated, map[string]string{"token": "abc"})

		if rec.Code != http.StatusCreated {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["token"] != "abc" {
			t.Errorf("body[token] = %q, want %q", body["token"], "abc")
		}
	})

	t.Run("encodes structs", func(t *testing.T) {
		rec := httptest.NewRecorder()

		type payload struct {
			ID     string `json:"id"`
			Active bool   `json:"is_active"`
		}
		WriteJSON(rec, http.StatusOK, payload{ID: "x1", Active: true})

		var body payload
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.ID != "x1" || !body.Active {
			t.Errorf("body = %+v, want {x1 true}", body)
		}
	})
}

func TestWriteError(t *testing.T) {
	t.Run("writes error envelope", func(t *testing.T) {
		rec := httptest.NewRecorder()

		WriteError(rec, http.StatusNotFound, "not_found", "link not found", nil)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}

		var resp ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if resp.Error != "not_found" {
			t.Errorf("error code = %q, want %q", resp.Error, "not_found")
		}
		if resp.Message != "link not found" {
			t.Errorf("message = %q, want %q", resp.Message, "link not found")
		}
	})

	t.Run("includes details when provided", func(t *testing.T) {
		rec := httptest.NewRecorder()

		WriteError(rec, http.StatusBadRequest, "invalid_input", "bad page",
			map[string]string{"field": "page"})

		var resp ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		details, ok := resp.Details.(map[string]any)
		if !ok {
			t.Fatalf("details type = %T, want map", resp.Details)
		}
		if details["field"] != "page" {
			t.Errorf("details[field] = %v, want page", details["field"])
		}
	})

	t.Run("omits empty optional fields", func(t *testing.T) {
		rec := httptest.NewRecorder()

		WriteError(rec, http.StatusServiceUnavailable, "unavailable", "", nil)

		body := rec.Body.String()
		if want := `"error":"unavailable"`; !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
		if strings.Contains(body, "message") || strings.Contains(body, "details") {
			t.Errorf("body %q should omit empty message/details", body)
		}
	})
}
