package rate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"kakeibo/internal/currency"
)

func TestRefreshSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"EUR","rates":{"JPY":157.3,"USD":1.1}}`))
	}))
	defer srv.Close()

	h := NewHolder()
	f := NewFetcher(srv.URL, h)
	got, err := f.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got != 157.3 || h.Rate() != 157.3 {
		t.Errorf("rate = %v / holder %v, want 157.3", got, h.Rate())
	}
	if h.FetchedAt().IsZero() {
		t.Errorf("FetchedAt not set")
	}
}

func TestRefreshKeepsPreviousOnFailure(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}},
		{"missing jpy", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"rates":{"USD":1.1}}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			h := NewHolder()
			f := NewFetcher(srv.URL, h)
			got, err := f.Refresh(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if got != currency.DefaultRate || h.Rate() != currency.DefaultRate {
				t.Errorf("rate = %v / holder %v, want default %v", got, h.Rate(), currency.DefaultRate)
			}
		})
	}
}

func TestHolderDefault(t *testing.T) {
	h := NewHolder()
	if h.Rate() != currency.DefaultRate {
		t.Errorf("initial rate = %v, want %v", h.Rate(), currency.DefaultRate)
	}
	if !h.FetchedAt().IsZero() {
		t.Errorf("FetchedAt should be zero before first fetch")
	}
}
