// Package transcribe abstracts best-effort speech-to-text. Availability
// differs per deployment, so callers depend on the Transcriber interface and
// receive a null object when no backend is configured.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Noop is the null transcriber used when no speech-to-text backend is
// configured. It reports success with an empty transcript; the audio tool
// surfaces the degradation as a note, not an error.
type Noop struct{}

func (Noop) Transcribe(ctx context.Context, path string) (string, error) {
	return "", nil
}

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAI transcribes through an OpenAI-compatible audio-transcriptions
// endpoint.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAI builds a transcriber against an OpenAI-compatible API.
func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration) *OpenAI {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "whisper-1"
	}
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Transcribe uploads the audio file and returns the transcript text.
func (o *OpenAI) Transcribe(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", o.model); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.New("transcription: " + resp.Status + ": " + string(b))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("transcription response: %w", err)
	}
	return out.Text, nil
}
