package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AzielCF/az-bot/core/config"
	domainScraper "github.com/AzielCF/az-bot/domains/scraper"
	"github.com/AzielCF/az-bot/scrapers"
	"github.com/PuerkitoBio/goquery"
)

const maxPageBytes = 2 << 20

func init() {
	scrapers.Register("pagemeta", NewPageMeta)
}

// PageMeta reads the title, description and OpenGraph tags of an HTML page.
type PageMeta struct {
	client    *http.Client
	userAgent string
}

func NewPageMeta(m domainScraper.Manifest) (domainScraper.IScraper, error) {
	ua, _ := m.Settings["user_agent"].(string)
	if ua == "" {
		ua = "Mozilla/5.0 (compatible; az-bot/" + versionOrDefault() + ")"
	}
	return &PageMeta{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: ua,
	}, nil
}

func versionOrDefault() string {
	if config.Global != nil && config.Global.App.Version != "" {
		return config.Global.App.Version
	}
	return "dev"
}

func (p *PageMeta) Scrape(ctx context.Context, rawURL string) (*domainScraper.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return extractMeta(rawURL, doc), nil
}

func extractMeta(rawURL string, doc *goquery.Document) *domainScraper.Result {
	meta := func(selectors ...string) string {
		for _, sel := range selectors {
			if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	res := &domainScraper.Result{
		URL:         rawURL,
		Title:       meta(`meta[property="og:title"]`, `meta[name="twitter:title"]`),
		Description: meta(`meta[property="og:description"]`, `meta[name="description"]`, `meta[name="twitter:description"]`),
		SiteName:    meta(`meta[property="og:site_name"]`),
		Image:       meta(`meta[property="og:image"]`, `meta[name="twitter:image"]`),
		Data:        map[string]string{},
	}
	if res.Title == "" {
		res.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		res.Data["canonical"] = canonical
	}
	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		res.Data["lang"] = lang
	}
	return res
}
