package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNoopReturnsEmptyTranscript(t *testing.T) {
	text, err := (Noop{}).Transcribe(context.Background(), "/nonexistent.mp3")
	if err != nil || text != "" {
		t.Errorf("Noop = (%q, %v), want empty and nil", text, err)
	}
}

func TestOpenAITranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"the total is 42"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte("fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := NewOpenAI("sk-test", srv.URL, "", time.Second)
	text, err := tr.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "the total is 42" {
		t.Errorf("text = %q", text)
	}
}

func TestOpenAITranscribeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte("fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := NewOpenAI("sk-test", srv.URL, "whisper-1", time.Second)
	_, err := tr.Transcribe(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("err = %v, want status error", err)
	}
}
