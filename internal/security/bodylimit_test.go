package security

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimit(t *testing.T) {
	cases := []struct {
		name          string
		max           int64
		body          string
		contentLength int64
		want          int
	}{
		{name: "within limit", max: 32, body: `{"productId":"p1"}`, want: http.StatusOK},
		{name: "streamed body over limit", max: 5, body: "excessive", contentLength: -1, want: http.StatusRequestEntityTooLarge},
		{name: "declared length over limit", max: 5, body: "ok", contentLength: 100, want: http.StatusRequestEntityTooLarge},
		{name: "default limit", body: strings.Repeat("x", DefaultMaxBody+1), contentLength: -1, want: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := BodyLimit{Max: tc.max}.Middleware(okHandler())
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(tc.body))
			if tc.contentLength != 0 {
				req.ContentLength = tc.contentLength
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
			if tc.want == http.StatusRequestEntityTooLarge && !strings.Contains(rr.Body.String(), "PAYLOAD_TOO_LARGE") {
				t.Fatalf("expected PAYLOAD_TOO_LARGE error code, got %s", rr.Body.String())
			}
		})
	}
}

func TestBodyLimitBuffersAcceptedBody(t *testing.T) {
	payload := `{"productId":"p1","quantity":2}`
	handler := BodyLimit{Max: 128}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var first struct {
			ProductID string `json:"productId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&first); err != nil {
			t.Fatalf("first decode: %v", err)
		}
		if r.ContentLength != int64(len(payload)) {
			t.Fatalf("expected content length %d, got %d", len(payload), r.ContentLength)
		}
		if first.ProductID != "p1" {
			t.Fatalf("unexpected product id %q", first.ProductID)
		}
		rest, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read rest: %v", err)
		}
		if strings.TrimSpace(string(rest)) != "" {
			t.Fatalf("expected body fully consumed, got %q", rest)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/event-products", strings.NewReader(payload))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}
