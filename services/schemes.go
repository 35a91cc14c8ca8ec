package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/krishiyukti/krishiyukti/config"
	"github.com/krishiyukti/krishiyukti/utils"
)

// Scheme is one government scheme listing entry.
type Scheme struct {
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	UpdatedAt string `json:"updated_at"`
}

// SchemeService scrapes the myscheme.gov.in listing and serves it through an
// explicit TTL cache owned by this service; there is no module-level cache.
// When the scrape fails or parses nothing, a small curated list is served so
// the endpoint never errors out.
type SchemeService struct {
	sourceURL string
	ttl       time.Duration
	cache     utils.ByteCache
	client    *http.Client
}

// NewSchemeService builds a SchemeService around the given cache.
func NewSchemeService(cfg config.AppConfig, cache utils.ByteCache) *SchemeService {
	return &SchemeService{
		sourceURL: cfg.SchemesSourceURL,
		ttl:       time.Duration(cfg.SchemesCacheTTLSec) * time.Second,
		cache:     cache,
		client:    defaultHTTPClient,
	}
}

// Fetch returns up to limit schemes matching query, cached per (query, limit).
func (s *SchemeService) Fetch(ctx context.Context, query string, limit int) []Scheme {
	key := fmt.Sprintf("schemes:q=%s|l=%d", query, limit)
	if b, ok := s.cache.GetBytes(key); ok {
		var items []Scheme
		if err := json.Unmarshal(b, &items); err == nil && len(items) > 0 {
			return clip(items, limit)
		}
	}

	items, err := s.scrape(ctx, query)
	if err != nil || len(items) == 0 {
		if err != nil && utils.Sugar != nil {
			utils.Sugar.Warnf("scheme scrape failed, serving curated list: %v", err)
		}
		items = curatedSchemes()
	}

	if b, err := json.Marshal(items); err == nil {
		s.cache.SetBytes(key, b, s.ttl)
	}
	return clip(items, limit)
}

func (s *SchemeService) scrape(ctx context.Context, query string) ([]Scheme, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sourceURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, errors.New("scheme source returned " + resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(s.sourceURL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	seen := make(map[string]bool)
	var items []Scheme

	// Heuristic: collect links pointing into '/schemes/'
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/schemes/") {
			return true
		}
		name := strings.TrimSpace(a.Text())
		if len(name) < 3 {
			return true
		}

		link := href
		if ref, err := url.Parse(href); err == nil && !ref.IsAbs() {
			link = base.ResolveReference(ref).String()
		}
		if seen[link] {
			return true
		}
		seen[link] = true

		// nearby <p> within the same parent usually holds a short description
		desc := ""
		if p := a.Parent().Find("p").First(); p.Length() > 0 {
			desc = strings.Join(strings.Fields(p.Text()), " ")
		}

		items = append(items, Scheme{
			Name:      name,
			Desc:      desc,
			Link:      link,
			Source:    "myscheme",
			UpdatedAt: now,
		})
		return len(items) < 20
	})

	if query != "" {
		q := strings.ToLower(query)
		filtered := make([]Scheme, 0, len(items))
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.Name+" "+it.Desc), q) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	return items, nil
}

// curatedSchemes is the offline fallback listing.
func curatedSchemes() []Scheme {
	now := time.Now().UTC().Format(time.RFC3339)
	return []Scheme{
		{Name: "PM-Kisan Samman Nidhi", Desc: "Income support to landholding farmer families.",
			Link: "https://pmkisan.gov.in/", Source: "curated", UpdatedAt: now},
		{Name: "Kisan Credit Card (KCC)", Desc: "Short-term credit for cultivation and allied needs.",
			Link: "https://www.myscheme.gov.in/schemes/kcc", Source: "curated", UpdatedAt: now},
		{Name: "PM Fasal Bima Yojana (PMFBY)", Desc: "Crop insurance against unavoidable risks.",
			Link: "https://pmfby.gov.in/", Source: "curated", UpdatedAt: now},
	}
}

func clip(items []Scheme, limit int) []Scheme {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
