package ml

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"RegulatoryScanner/internal/domain"
)

var vocabulary = []string{"Food", "Drugs", "Medical Devices", "Cosmetics"}

func TestClientClassify(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["title"] != "Drug recall" {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"relevance":"HIGH","categories":["Drugs","Drugs"],"analysis":" Importers must hold stock. "}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret", vocabulary)
	cls, err := client.Classify(context.Background(), domain.Candidate{Title: "Drug recall"})
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cls.Relevance != domain.RelevanceHigh {
		t.Fatalf("unexpected relevance: %s", cls.Relevance)
	}
	if len(cls.Categories) != 1 || cls.Categories[0] != "Drugs" {
		t.Fatalf("unexpected categories: %v", cls.Categories)
	}
	if cls.AIAnalysis != "Importers must hold stock." {
		t.Fatalf("unexpected analysis: %q", cls.AIAnalysis)
	}
}

func TestClientClassifyRejectsUnknownLabels(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bad relevance": `{"relevance":"critical","categories":[]}`,
		"bad category":  `{"relevance":"low","categories":["Tobacco"]}`,
	}

	for name, payload := range cases {
		payload := payload
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(payload))
			}))
			defer server.Close()

			cls, err := NewClient(server.URL, "", vocabulary).Classify(context.Background(), domain.Candidate{Title: "x"})
			var clsErr *domain.ClassificationError
			if !errors.As(err, &clsErr) {
				t.Fatalf("expected ClassificationError, got %v", err)
			}
			if cls.Relevance != domain.RelevanceLow || len(cls.Categories) != 0 {
				t.Fatalf("expected default classification, got %+v", cls)
			}
		})
	}
}

func TestClientClassifyServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", vocabulary).Classify(context.Background(), domain.Candidate{Title: "x"})
	if err == nil {
		t.Fatalf("expected error on 500")
	}
}
