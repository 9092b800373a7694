package media

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spec-kit/commerce-service/internal/config"
)

func TestUpload_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer media-key" {
			t.Fatalf("authorization = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "widget.png" {
			t.Fatalf("filename = %s", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "image-bytes" {
			t.Fatalf("body = %q", content)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(UploadResult{URL: "https://cdn.example.com/widget.png"}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(config.MediaConfig{UploadURL: ts.URL, APIKey: "media-key"})

	result, err := client.Upload(context.Background(), "widget.png", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if result.URL != "https://cdn.example.com/widget.png" {
		t.Fatalf("url = %s", result.URL)
	}
}

func TestUpload_HostError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(config.MediaConfig{UploadURL: ts.URL})

	if _, err := client.Upload(context.Background(), "widget.png", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for upstream 500")
	}
}

func TestUpload_EmptyURLRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(UploadResult{})
	}))
	defer ts.Close()

	client := NewClient(config.MediaConfig{UploadURL: ts.URL})

	if _, err := client.Upload(context.Background(), "widget.png", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error when the host returns no url")
	}
}

func TestNotConfigured(t *testing.T) {
	client := NewClient(config.MediaConfig{})
	if client.Configured() {
		t.Fatalf("client without upload URL must report unconfigured")
	}
	if _, err := client.Upload(context.Background(), "f", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error from unconfigured client")
	}
}
