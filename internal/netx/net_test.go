package netx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGetJSON(t *testing.T) {
	client := &http.Client{Timeout: time.Second}

	t.Run("success 200 OK", func(t *testing.T) {
		var gotAccept, gotMethod string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotAccept = r.Header.Get("Accept")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"keys":[{"kid":"k1"}]}`))
		}))
		defer ts.Close()

		var out struct {
			Keys []struct {
				Kid string `json:"kid"`
			} `json:"keys"`
		}
		if err := GetJSON(context.Background(), client, ts.URL+"/.well-known/jwks.json", &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodGet {
			t.Fatalf("method = %q, want GET", gotMethod)
		}
		if gotAccept != "application/json" {
			t.Fatalf("Accept = %q, want application/json", gotAccept)
		}
		if len(out.Keys) != 1 || out.Keys[0].Kid != "k1" {
			t.Fatalf("unexpected decode result: %+v", out)
		}
	})

	t.Run("non-200 -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}))
		defer ts.Close()

		var out map[string]any
		err := GetJSON(context.Background(), client, ts.URL, &out)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "upstream down") {
			t.Fatalf("error = %q, want status and body", err.Error())
		}
	})

	t.Run("invalid json -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		defer ts.Close()

		var out map[string]any
		err := GetJSON(context.Background(), client, ts.URL, &out)
		if !errors.Is(err, ErrInvalidBody) {
			t.Fatalf("error = %v, want ErrInvalidBody", err)
		}
	})

	t.Run("unreachable host -> error", func(t *testing.T) {
		var out map[string]any
		err := GetJSON(context.Background(), client, "http://127.0.0.1:1/jwks.json", &out)
		if err == nil {
			t.Fatal("expected dial error, got nil")
		}
		if errors.Is(err, ErrInvalidBody) {
			t.Fatalf("dial error reported as invalid body: %v", err)
		}
	})
}
