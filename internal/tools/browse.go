package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// Browse renders a page in headless Chrome and returns its readable text.
// Client-side rendering matters: quiz pages assemble their instructions with
// JavaScript, so raw markup is not enough.
type Browse struct {
	Timeout  time.Duration
	MaxChars int
	Logger   *log.Logger
}

type browseArgs struct {
	URL string `json:"url"`
}

func (Browse) Name() string { return "get_rendered_html" }

func (Browse) Description() string {
	return "Load a web page in a headless browser, execute its scripts and return the rendered text content."
}

func (Browse) Schema() string {
	return `{
  "type": "object",
  "required": ["url"],
  "properties": {
    "url": {"type": "string", "description": "Absolute URL of the page to render"}
  },
  "additionalProperties": false
}`
}

func (b Browse) Exec(ctx context.Context, raw json.RawMessage) (string, error) {
	var args browseArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.URL) == "" {
		return "", errors.New("invalid url")
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	html, err := fetchHTML(ctx, args.URL)
	if err != nil {
		return "", fmt.Errorf("fetch rendered page %s: %w", args.URL, err)
	}

	text := extractText(html, args.URL)
	if b.MaxChars > 0 && len(text) > b.MaxChars {
		text = text[:b.MaxChars]
	}
	return text, nil
}

func fetchHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent("QuizAgent/1.0"),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

// extractText prefers readability's article extraction and falls back to a
// strict sanitizer pass when the page has no article structure.
func extractText(html, pageURL string) string {
	article, err := readability.FromReader(strings.NewReader(html), mustParseURL(pageURL))
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return strings.TrimSpace(article.TextContent)
	}
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(html))
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
