// Package webauto is the capability provider for browser and web
// information requests: opening sites, searching, and summarizing
// fetched pages through the completion service.
package webauto

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/stewardbot/steward/internal/llm"
	"github.com/stewardbot/steward/internal/platform"
	"github.com/stewardbot/steward/internal/prompts"
)

// openTimeout bounds the browser-launch command, not the browser.
const openTimeout = 10 * time.Second

// Automator opens websites and answers search requests.
type Automator struct {
	host      platform.Info
	searx     *searxClient // nil when search is unconfigured
	fetcher   *fetcher
	completer llm.Completer // nil disables summarization
	logger    *slog.Logger
}

// New creates an Automator. searxURL may be empty (search disabled);
// completer may be nil (summarization disabled).
func New(host platform.Info, searxURL string, completer llm.Completer, logger *slog.Logger) *Automator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Automator{
		host:      host,
		fetcher:   newFetcher(),
		completer: completer,
		logger:    logger,
	}
	if searxURL != "" {
		a.searx = newSearxClient(searxURL)
	}
	return a
}

// OpenWebsite opens a URL in the default browser. The URL is already
// normalized to carry a scheme.
func (a *Automator) OpenWebsite(ctx context.Context, rawURL string) (string, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return "", fmt.Errorf("that doesn't look like a valid address")
	}

	if err := a.openInBrowser(ctx, rawURL); err != nil {
		return "", fmt.Errorf("I couldn't open %s", rawURL)
	}
	return fmt.Sprintf("Opening %s.", rawURL), nil
}

// Search answers a search query. Without summarize it opens a browser
// tab of results; with summarize it fetches the top hit and condenses
// it through the completion service.
func (a *Automator) Search(ctx context.Context, query string, summarize bool) (string, error) {
	if !summarize {
		target := "https://duckduckgo.com/?q=" + url.QueryEscape(query)
		if err := a.openInBrowser(ctx, target); err != nil {
			return "", fmt.Errorf("I couldn't open the search results")
		}
		return fmt.Sprintf("I've opened a browser tab with search results for %s.", query), nil
	}

	if a.searx == nil {
		return "", fmt.Errorf("search summarization needs a configured search backend")
	}
	if a.completer == nil {
		return "", fmt.Errorf("search summarization needs the completion service")
	}

	results, err := a.searx.search(ctx, query, 3)
	if err != nil {
		a.logger.Warn("search failed", "query", query, "error", err)
		return "", fmt.Errorf("the search service didn't answer")
	}
	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find anything about %s.", query), nil
	}

	top := results[0]
	page, err := a.fetcher.fetchText(ctx, top.URL)
	if err != nil {
		a.logger.Warn("page fetch failed", "url", top.URL, "error", err)
		// Fall back to the search snippets rather than failing.
		page = joinSnippets(results)
	}

	summary, err := a.completer.Complete(ctx, prompts.SummarizePrompt(query, page))
	if err != nil {
		return "", fmt.Errorf("I found results but couldn't summarize them")
	}
	return fmt.Sprintf("Here's what I found about %s: %s", query, strings.TrimSpace(summary)), nil
}

// Summarize condenses user-provided text.
func (a *Automator) Summarize(ctx context.Context, text string) (string, error) {
	if a.completer == nil {
		return "", fmt.Errorf("summarization needs the completion service")
	}
	summary, err := a.completer.Complete(ctx, prompts.SummarizePrompt("the provided text", text))
	if err != nil {
		return "", fmt.Errorf("I couldn't summarize that")
	}
	return strings.TrimSpace(summary), nil
}

func joinSnippets(results []searchResult) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(r.Title)
		b.WriteString(": ")
		b.WriteString(r.Snippet)
		b.WriteString("\n")
	}
	return b.String()
}

// openInBrowser launches the platform URL opener.
func (a *Automator) openInBrowser(ctx context.Context, target string) error {
	var argv []string
	switch a.host.Family {
	case platform.Darwin:
		argv = []string{"open", target}
	case platform.Windows:
		argv = []string{"cmd", "/C", "start", "", target}
	default:
		argv = []string{"xdg-open", target}
	}

	ctx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		a.logger.Warn("browser open failed", "argv", argv, "output", string(out), "error", err)
		return err
	}
	return nil
}
