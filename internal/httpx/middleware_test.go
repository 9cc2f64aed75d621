package httpx

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	t.Run("generates request ID when absent", func(t *testing.T) {
		var captured string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if captured == "" {
			t.Fatal("request ID not set on context")
		}
		if _, err := uuid.Parse(captured); err != nil {
			t.Errorf("generated request ID %q is not a UUID: %v", captured, err)
		}
		if got := rec.Header().Get(RequestIDHeader); got != captured {
			t.Errorf("response header = %q, want %q", got, captured)
		}
	})

	t.Run("honors existing request ID header", func(t *testing.T) {
		var captured string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-id-123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if captured != "upstream-id-123" {
			t.Errorf("request ID = %q, want upstream-id-123", captured)
		}
	})
}

func TestGetRequestID(t *testing.T) {
	t.Run("returns empty for missing ID", func(t *testing.T) {
		if got := GetRequestID(t.Context()); got != "" {
			t.Errorf("GetRequestID() = %q, want empty", got)
		}
	})

	t.Run("round-trips via WithRequestID", func(t *testing.T) {
		ctx := WithRequestID(t.Context(), "rid-1")
		if got := GetRequestID(ctx); got != "rid-1" {
			t.Errorf("GetRequestID() = %q, want rid-1", got)
		}
	})
}

func TestChain(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mw("first"), mw("second"), mw("third"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"first", "second", "third", "handler"}
	if len(order) != len(want) {
		t.Fatalf("execution order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
	}
}

func TestLogger(t *testing.T) {
	t.Run("logs method path and status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		req := httptest.NewRequest("GET", "/s/secret-token?password=hunter2", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		out := buf.String()
		if !strings.Contains(out, `"method":"GET"`) {
			t.Errorf("log missing method: %s", out)
		}
		if !strings.Contains(out, `"status":418`) {
			t.Errorf("log missing status: %s", out)
		}
		if strings.Contains(out, "hunter2") {
			t.Errorf("log leaked query string: %s", out)
		}
	})
}

func TestRecovery(t *testing.T) {
	t.Run("recovers from panic with 500", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
		if !strings.Contains(buf.String(), "panic recovered") {
			t.Errorf("panic not logged: %s", buf.String())
		}
	})

	t.Run("passes through without panic", func(t *testing.T) {
		logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

		handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})
}

func TestCORS(t *testing.T) {
	t.Run("allows all origins by default", func(t *testing.T) {
		handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin = %q, want *", got)
		}
	})

	t.Run("echoes allowed origin", func(t *testing.T) {
		handler := CORS([]string{"https://app.example.com"})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://app.example.com")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("Allow-Origin = %q, want the request origin", got)
		}
	})

	t.Run("ignores unlisted origin", func(t *testing.T) {
		handler := CORS([]string{"https://app.example.com"})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("short-circuits preflight", func(t *testing.T) {
		called := false
		handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
		if called {
			t.Error("preflight request reached the handler")
		}
	})
}
