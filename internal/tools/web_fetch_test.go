package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebFetchToolValidateRequiresURL(t *testing.T) {
	tool := NewWebFetchTool(WebFetchConfig{})
	if vr := tool.Validate(map[string]interface{}{}); vr.Valid {
		t.Error("expected invalid when url is missing")
	}
}

func TestWebFetchToolExecuteRejectsNonHTTPScheme(t *testing.T) {
	tool := NewWebFetchTool(WebFetchConfig{})
	res := tool.Execute(context.Background(), map[string]interface{}{"url": "ftp://example.com/file"}, ToolContext{})
	if !res.IsError {
		t.Error("expected an error for a non-http(s) scheme")
	}
}

func TestWebFetchToolExecuteBlocksLoopbackViaSSRFCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("should never be reached"))
	}))
	defer srv.Close()

	tool := NewWebFetchTool(WebFetchConfig{})
	res := tool.Execute(context.Background(), map[string]interface{}{"url": srv.URL}, ToolContext{})
	if !res.IsError {
		t.Error("expected Execute to block a loopback URL via SSRF protection")
	}
}

func TestWebFetchToolDoFetchExtractsHTMLAsMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><h1>Title</h1><p>Hello world</p></body></html>"))
	}))
	defer srv.Close()

	tool := NewWebFetchTool(WebFetchConfig{})
	out, err := tool.doFetch(context.Background(), srv.URL, "markdown", 5000)
	if err != nil {
		t.Fatalf("doFetch: %v", err)
	}
	if !strings.Contains(out, "# Title") {
		t.Errorf("out = %q, want it to contain a markdown heading", out)
	}
	if !strings.Contains(out, "Hello world") {
		t.Errorf("out = %q, want it to contain the body text", out)
	}
}

func TestWebFetchToolDoFetchExtractsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"key":"value"}`))
	}))
	defer srv.Close()

	tool := NewWebFetchTool(WebFetchConfig{})
	out, err := tool.doFetch(context.Background(), srv.URL, "text", 5000)
	if err != nil {
		t.Fatalf("doFetch: %v", err)
	}
	if !strings.Contains(out, `"key": "value"`) {
		t.Errorf("out = %q, want pretty-printed JSON", out)
	}
}

func TestWebFetchToolDoFetchTruncatesAtMaxChars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strings.Repeat("a", 1000)))
	}))
	defer srv.Close()

	tool := NewWebFetchTool(WebFetchConfig{})
	out, err := tool.doFetch(context.Background(), srv.URL, "text", 50)
	if err != nil {
		t.Fatalf("doFetch: %v", err)
	}
	if !strings.Contains(out, "Truncated: true") {
		t.Errorf("out = %q, want a truncation marker", out)
	}
}

func TestWebFetchToolDoFetchReportsHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer srv.Close()

	tool := NewWebFetchTool(WebFetchConfig{})
	out, err := tool.doFetch(context.Background(), srv.URL, "text", 5000)
	if err != nil {
		t.Fatalf("doFetch: %v", err)
	}
	if !strings.Contains(out, "Status: 404") {
		t.Errorf("out = %q, want it to report the 404 status", out)
	}
}
