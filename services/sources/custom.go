package sources

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"fkstream/internal/database"
)

// Scraper resolves a custom source page into the direct video URL it
// advertises. Resolved URLs are cached so repeated stream requests do not
// hammer the hosting pages.
type Scraper struct {
	repo       *database.Repository
	httpClient *http.Client
	ttl        time.Duration
}

// NewScraper creates a page scraper backed by the cache repository.
func NewScraper(repo *database.Repository, httpClient *http.Client, ttl time.Duration) *Scraper {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Scraper{repo: repo, httpClient: httpClient, ttl: ttl}
}

// Resolve returns the direct video URL published on pageURL. The cache is
// consulted first; a fresh scrape is cached on success.
func (s *Scraper) Resolve(ctx context.Context, pageURL string) (string, error) {
	if s.repo != nil {
		if cached, ok := s.repo.GetCustomSource(ctx, pageURL); ok {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build scrape request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch source page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch source page: unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse source page: %w", err)
	}

	videoURL, ok := extractSourceLink(doc)
	if !ok {
		return "", fmt.Errorf("no source link on page")
	}

	if s.repo != nil {
		if err := s.repo.SetCustomSource(ctx, pageURL, videoURL, s.ttl); err != nil {
			log.Printf("[sources] failed to cache scraped url: %v", err)
		}
	}
	return videoURL, nil
}

// extractSourceLink walks the document for a media block labelled
// "Source" and returns the first link in its media-right column.
func extractSourceLink(doc *html.Node) (string, bool) {
	for _, article := range findAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "article" && hasClass(n, "media")
	}) {
		if !containsLabel(article, "Source") {
			continue
		}
		for _, right := range findAll(article, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "media-right")
		}) {
			for _, a := range findAll(right, func(n *html.Node) bool {
				return n.Type == html.ElementNode && n.Data == "a"
			}) {
				if href := attr(a, "href"); href != "" {
					return href, true
				}
			}
		}
	}
	return "", false
}

func containsLabel(n *html.Node, label string) bool {
	for _, strong := range findAll(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && c.Data == "strong"
	}) {
		if strings.EqualFold(strings.TrimSpace(textContent(strong)), label) {
			return true
		}
	}
	return false
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if match(c) {
			out = append(out, c)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
