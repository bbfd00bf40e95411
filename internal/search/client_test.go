package search_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DavidStojani/pdf-management-sub000/internal/search"
)

func TestIndexWritesDocumentByID(t *testing.T) {
	var gotMethod, gotPath string
	var gotDoc search.IndexableDocument
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotDoc); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "created"})
	}))
	t.Cleanup(server.Close)

	client := search.NewClient(search.WithBaseURL(server.URL), search.WithIndexName("documents"))
	doc := search.IndexableDocument{
		ID:             7,
		Filename:       "invoice.pdf",
		Owner:          "alice",
		Title:          "Invoice 2023",
		DateOnDocument: "2023-03-15",
		Tags:           []string{"invoice", "finance"},
		Text:           "Invoice Statement Total due: 42.00",
	}
	if err := client.Index(context.Background(), doc); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %s", gotMethod)
	}
	if gotPath != "/documents/_doc/7" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotDoc.Title != "Invoice 2023" || len(gotDoc.Tags) != 2 {
		t.Fatalf("unexpected indexed document %#v", gotDoc)
	}
}

func TestIndexRequiresDocumentID(t *testing.T) {
	client := search.NewClient()
	if err := client.Index(context.Background(), search.IndexableDocument{}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestIndexReportsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"index_not_found_exception"}`, http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := search.NewClient(search.WithBaseURL(server.URL))
	err := client.Index(context.Background(), search.IndexableDocument{ID: 1})
	if err == nil {
		t.Fatal("expected error for http failure")
	}
}
