package webauto

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stewardbot/steward/internal/httpkit"
)

const (
	fetchTimeout  = 20 * time.Second
	maxBodyBytes  = 2 << 20 // 2MB of HTML is plenty for a summary
	maxExtractLen = 12000   // characters handed to the completion service
)

// fetcher downloads a page and reduces it to readable text.
type fetcher struct {
	client *http.Client
}

func newFetcher() *fetcher {
	return &fetcher{client: httpkit.NewClient(httpkit.WithTimeout(fetchTimeout))}
}

// fetchText downloads rawURL and returns its visible text content,
// capped at maxExtractLen characters.
func (f *fetcher) fetchText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating fetch request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}

	text := extractText(string(body))
	if len(text) > maxExtractLen {
		text = text[:maxExtractLen]
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("page had no readable text")
	}
	return text, nil
}

// skipElements are HTML elements whose text content is never article
// text.
var skipElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Aside:    true,
	atom.Form:     true,
	atom.Button:   true,
}

// extractText converts an HTML document to plain text, dropping
// navigation chrome and collapsing whitespace. Malformed markup falls
// back to a tag-stripping pass; html.Parse itself tolerates nearly
// anything.
func extractText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return cleanWhitespace(stripTags(htmlContent))
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipElements[n.DataAtom] {
				return
			}
			if isBlockElement(n.DataAtom) {
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return cleanWhitespace(b.String())
}

func isBlockElement(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Li,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Br, atom.Tr, atom.Blockquote, atom.Pre:
		return true
	}
	return false
}

// cleanWhitespace collapses runs of spaces and blank lines.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// stripTags is a crude fallback that drops anything between angle
// brackets using the tokenizer.
func stripTags(s string) string {
	tok := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		if tt == html.TextToken {
			b.Write(tok.Text())
			b.WriteString(" ")
		}
	}
}
