package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	tavilyEndpoint = "https://api.tavily.com/search"
	fetchUserAgent = "Mozilla/5.0 (compatible; valet-agent/1.0)"
	maxSearchHits  = 5
)

// ErrMissingAPIKey is reported when a web tool is invoked without its
// required credential. It disables the tool, not the process.
var ErrMissingAPIKey = errors.New("TAVILY_API_KEY is not configured")

// Compiled once; reused across all fetches.
var (
	scriptRegexp   = regexp.MustCompile(`(?s)<script[^>]*>.*?</script>`)
	styleRegexp    = regexp.MustCompile(`(?s)<style[^>]*>.*?</style>`)
	tagRegexp      = regexp.MustCompile(`<[^>]*>`)
	newlinesRegexp = regexp.MustCompile(`\n\s*\n`)
)

// ============================================================================
// web_search
// ============================================================================

// WebSearchTool queries the Tavily search API.
type WebSearchTool struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewWebSearchTool(apiKey string) *WebSearchTool {
	return &WebSearchTool{
		apiKey:     apiKey,
		endpoint:   tavilyEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web. Returns a short answer summary and the top results."
}

func (t *WebSearchTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "query", Type: "string", Description: "Search query", Required: true},
	}
}

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if t.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	query, _ := args["query"].(string)

	body, err := json.Marshal(map[string]any{
		"api_key":        t.apiKey,
		"query":          query,
		"search_depth":   "basic",
		"include_answer": true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var result struct {
		Answer  string `json:"answer"`
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	var b strings.Builder
	if result.Answer != "" {
		fmt.Fprintf(&b, "Summary: %s\n\n", result.Answer)
	}
	for i, hit := range result.Results {
		if i >= maxSearchHits {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n   URL: %s\n   %s\n\n", i+1, hit.Title, hit.URL, hit.Content)
	}

	if b.Len() == 0 {
		return "no results found", nil
	}
	return strings.TrimSpace(b.String()), nil
}

// ============================================================================
// web_fetch
// ============================================================================

// WebFetchTool fetches a URL and reduces the HTML to readable text.
type WebFetchTool struct {
	httpClient *http.Client
}

func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

func (t *WebFetchTool) Name() string { return "web_fetch" }

func (t *WebFetchTool) Description() string {
	return "Fetch a web page and return its text content."
}

func (t *WebFetchTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "url", Type: "string", Description: "URL of the page to fetch", Required: true},
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	url, _ := args["url"].(string)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read page body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	return htmlToText(string(raw)), nil
}

// htmlToText strips scripts, styles, and markup, and decodes the common
// HTML entities. Deliberately crude; good enough for model consumption.
func htmlToText(html string) string {
	text := scriptRegexp.ReplaceAllString(html, "")
	text = styleRegexp.ReplaceAllString(text, "")
	text = tagRegexp.ReplaceAllString(text, "")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
	)
	text = replacer.Replace(text)

	text = newlinesRegexp.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// RegisterWebTools registers web search and fetch. Search needs a Tavily
// API key; an empty key leaves the tool registered but failing fast with a
// clear message the model can relay.
func RegisterWebTools(r *Registry, tavilyAPIKey string) {
	r.MustRegister(NewWebSearchTool(tavilyAPIKey))
	r.MustRegister(NewWebFetchTool())
}
