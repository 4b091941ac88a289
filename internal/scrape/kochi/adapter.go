// Package kochi implements the reference extraction source for the Kochi
// prefecture shelter pages.
package kochi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/petrescueapp/data-collector/internal/model"
	"github.com/petrescueapp/data-collector/internal/normalize"
	"github.com/petrescueapp/data-collector/internal/scrape"
)

// Name is the registry key for this source.
const Name = "kochi"

const defaultDetailPathPattern = `/animals/\d+`

func init() {
	scrape.Register(Name, func(cfg scrape.SiteConfig) (scrape.Source, error) {
		return New(cfg)
	})
}

// Source scrapes the Kochi listing endpoints and detail pages.
type Source struct {
	base        *url.URL
	listings    []string
	detailPath  *regexp.Regexp
	fetcher     *scrape.Fetcher
	eraBaseYear int
}

// New builds the Kochi source from site configuration.
func New(cfg scrape.SiteConfig) (*Source, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("kochi: base url %q is not absolute: %w", cfg.BaseURL, err)
	}
	if len(cfg.ListingPaths) == 0 {
		return nil, fmt.Errorf("kochi: at least one listing path is required")
	}
	pattern := cfg.DetailPathPattern
	if pattern == "" {
		pattern = defaultDetailPathPattern
	}
	detailPath, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("kochi: compile detail path pattern: %w", err)
	}
	eraBaseYear := cfg.EraBaseYear
	if eraBaseYear == 0 {
		eraBaseYear = normalize.DefaultEraBaseYear
	}

	headers := http.Header{}
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "ja,en;q=0.5")

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "PetRescueApp/1.0 (+https://petrescueapp.example/about)"
	}

	return &Source{
		base:       base,
		listings:   append([]string(nil), cfg.ListingPaths...),
		detailPath: detailPath,
		fetcher: scrape.NewFetcher(scrape.FetcherConfig{
			UserAgent: userAgent,
			Headers:   headers,
			Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		}),
		eraBaseYear: eraBaseYear,
	}, nil
}

// Name identifies the municipality.
func (s *Source) Name() string { return Name }

// ListDetailPages visits every configured listing endpoint and collects the
// detail-page URLs whose path matches the detail pattern. Zero matches on a
// listing page is a structure failure, not an empty result.
func (s *Source) ListDetailPages(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var detailURLs []string

	for _, listingPath := range s.listings {
		listingURL := s.resolve(s.base, listingPath)
		body, err := s.fetcher.Get(ctx, listingURL)
		if err != nil {
			return nil, err
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, &scrape.StructureError{URL: listingURL, Selector: "html"}
		}

		pageURL, _ := url.Parse(listingURL)
		matched := 0
		doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
			href, _ := anchor.Attr("href")
			resolved, ok := s.resolveAnchor(pageURL, href)
			if !ok {
				return
			}
			matched++
			if !seen[resolved] {
				seen[resolved] = true
				detailURLs = append(detailURLs, resolved)
			}
		})
		if matched == 0 {
			return nil, &scrape.StructureError{URL: listingURL, Selector: "a[href~=" + s.detailPath.String() + "]"}
		}
	}
	return detailURLs, nil
}

// ExtractRaw pulls the raw fields from one detail page, trying the
// definition-list layout, then table rows, then labeled free text.
func (s *Source) ExtractRaw(ctx context.Context, detailURL string) (model.RawRecord, error) {
	body, err := s.fetcher.Get(ctx, detailURL)
	if err != nil {
		return model.RawRecord{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.RawRecord{}, &scrape.StructureError{URL: detailURL, Selector: "html"}
	}
	// The parser synthesizes a body even for garbage input; an element-less
	// body means the page is not the markup we expect.
	if doc.Find("body").Children().Length() == 0 {
		return model.RawRecord{}, &scrape.StructureError{URL: detailURL, Selector: "body *"}
	}

	region := contentRegion(doc)
	pageURL, _ := url.Parse(detailURL)

	return model.RawRecord{
		Species:     extractField(region, speciesLabels),
		Sex:         extractField(region, sexLabels),
		Age:         extractField(region, ageLabels),
		Color:       extractField(region, colorLabels),
		Size:        extractField(region, sizeLabels),
		ShelterDate: extractField(region, shelterDateLabels),
		Location:    extractField(region, locationLabels),
		Phone:       extractField(region, phoneLabels),
		ImageURLs:   s.extractImages(region, pageURL),
		SourceURL:   detailURL,
	}, nil
}

// Canonicalize delegates to the normalizer; it is the same for every source.
func (s *Source) Canonicalize(raw model.RawRecord) (model.Record, error) {
	return normalize.Canonicalize(raw, s.eraBaseYear)
}

func (s *Source) resolve(base *url.URL, ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

// resolveAnchor resolves href against the listing page and reports whether
// its path matches the detail pattern.
func (s *Source) resolveAnchor(pageURL *url.URL, href string) (string, bool) {
	if href == "" || pageURL == nil {
		return "", false
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := pageURL.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !s.detailPath.MatchString(resolved.Path) {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}

// extractImages collects img sources inside the content region, resolved to
// absolute URLs. Only http(s) results are kept, which drops data: URIs and
// other schemes.
func (s *Source) extractImages(region *goquery.Selection, pageURL *url.URL) []string {
	var images []string
	if pageURL == nil {
		return images
	}
	region.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if src == "" {
			return
		}
		parsed, err := url.Parse(src)
		if err != nil {
			return
		}
		resolved := pageURL.ResolveReference(parsed)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		images = append(images, resolved.String())
	})
	return images
}

// contentRegion narrows extraction to the page's main content when the page
// marks one, falling back to the whole body.
func contentRegion(doc *goquery.Document) *goquery.Selection {
	for _, selector := range []string{"main", "article", "#main", "#contents", ".contents"} {
		if region := doc.Find(selector).First(); region.Length() > 0 {
			return region
		}
	}
	return doc.Find("body").First()
}
