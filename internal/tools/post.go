package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Post issues a JSON POST request. Non-2xx responses are part of the result
// contract rather than errors, so the model can read a server's rejection
// and react to it.
type Post struct {
	Timeout time.Duration
	Logger  *log.Logger
}

type postArgs struct {
	URL  string          `json:"url"`
	Body json.RawMessage `json:"body"`
}

type postResult struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func (Post) Name() string { return "post_request" }

func (Post) Description() string {
	return "Send a POST request with a JSON body and return the response status and body."
}

func (Post) Schema() string {
	return `{
  "type": "object",
  "required": ["url"],
  "properties": {
    "url": {"type": "string", "description": "Endpoint to POST to"},
    "body": {"description": "JSON payload to send"}
  },
  "additionalProperties": false
}`
}

func (p Post) Exec(ctx context.Context, raw json.RawMessage) (string, error) {
	var args postArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", err
	}

	payload := args.Body
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	req, err := http.NewRequestWithContext(ctx, "POST", args.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: p.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", args.URL, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	out, err := json.Marshal(postResult{Status: resp.StatusCode, Body: string(body)})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
