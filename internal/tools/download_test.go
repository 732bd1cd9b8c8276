package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func TestDownloadSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "not yet", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("file-contents"))
	}))
	defer srv.Close()

	tool := Download{
		Dir:     t.TempDir(),
		Retries: 3,
		Timeout: time.Second,
		Backoff: time.Millisecond,
	}
	path, err := tool.Fetch(context.Background(), srv.URL+"/data/report.csv?token=x")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasSuffix(path, "report.csv") {
		t.Errorf("path = %q, want report.csv name without query", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "file-contents" {
		t.Errorf("contents = %q", data)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDownloadExhaustsRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tool := Download{
		Dir:     t.TempDir(),
		Retries: 3,
		Timeout: time.Second,
		Backoff: time.Millisecond,
	}
	_, err := tool.Fetch(context.Background(), srv.URL+"/gone.bin")
	if err == nil {
		t.Fatal("Fetch succeeded, want error after exhausted retries")
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("err = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDownloadExecReturnsLocalPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	tool := Download{Dir: t.TempDir(), Retries: 1, Timeout: time.Second, Backoff: time.Millisecond}
	args, _ := json.Marshal(downloadArgs{URL: srv.URL + "/clip.mp3"})
	path, err := tool.Exec(context.Background(), args)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("returned path not on disk: %v", err)
	}
}
