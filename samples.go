package aidetect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/samber/lo"
)

const (
	samplesTimeout  = 10 * time.Second
	samplesPerFetch = 3
	maxSampleStart  = 30

	defaultCSEEndpoint = "https://www.googleapis.com/customsearch/v1"
)

// SampleImage is a remote image offered to users as something to analyze.
type SampleImage struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ImageCandidate holds an image search result.
type ImageCandidate struct {
	ImgURL string // direct image URL
	Source string // page URL
	Title  string // image/page title
}

// SearchOpts configures one image search.
type SearchOpts struct {
	Start int // 1-based result offset
	Num   int // results wanted
}

// SearchProvider abstracts an image search backend.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, opts SearchOpts) ([]ImageCandidate, error)
}

// SampleSearchTerms are the queries sample images are drawn from.
var SampleSearchTerms = []string{
	"portrait",
	"street photo",
	"nature landscape",
	"product photo",
	"event photo",
}

// FallbackSamples are served whenever the search provider is absent or fails.
var FallbackSamples = []SampleImage{
	{
		URL:   "https://images.unsplash.com/photo-1524504388940-b1c1722653e1?auto=format&fit=crop&w=900&q=80",
		Title: "Portrait sample",
	},
	{
		URL:   "https://images.unsplash.com/photo-1433838552652-f9a46b332c40?auto=format&fit=crop&w=900&q=80",
		Title: "City street sample",
	},
	{
		URL:   "https://images.unsplash.com/photo-1501785888041-af3ef285b470?auto=format&fit=crop&w=900&q=80",
		Title: "Nature sample",
	},
}

// SampleSource picks sample images from a search provider.
type SampleSource struct {
	Provider SearchProvider  // nil = always serve FallbackSamples
	Timeout  time.Duration   // default: 10s
	IntN     func(n int) int // random source override for tests (default: rand.IntN)
}

// Samples returns up to three sample images. It never fails: any provider
// error or empty result yields FallbackSamples.
func (s *SampleSource) Samples(ctx context.Context) []SampleImage {
	if s.Provider == nil {
		return FallbackSamples
	}

	intN := s.IntN
	if intN == nil {
		intN = rand.IntN
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = samplesTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	query := SampleSearchTerms[intN(len(SampleSearchTerms))]
	start := max(1, intN(maxSampleStart))

	results, err := s.Provider.Search(ctx, query, SearchOpts{Start: start, Num: samplesPerFetch})
	if err != nil {
		slog.Warn("aidetect: sample search failed", "provider", s.Provider.Name(), "error", err.Error())
		return FallbackSamples
	}

	results = lo.UniqBy(lo.Filter(results, func(c ImageCandidate, _ int) bool {
		return c.ImgURL != "" && !isNonPhotoURL(c.ImgURL) && !IsStockImage(c.ImgURL, c.Source)
	}), func(c ImageCandidate) string {
		return c.ImgURL
	})
	if len(results) == 0 {
		return FallbackSamples
	}
	if len(results) > samplesPerFetch {
		results = results[:samplesPerFetch]
	}

	return lo.Map(results, func(c ImageCandidate, i int) SampleImage {
		title := c.Title
		if title == "" {
			title = "Sample image " + strconv.Itoa(i+1)
		}
		return SampleImage{URL: c.ImgURL, Title: title}
	})
}

// GoogleCSEProvider searches images through the Google Custom Search JSON API.
type GoogleCSEProvider struct {
	APIKey     string
	CX         string       // search engine id
	HTTPClient *http.Client // nil = http.DefaultClient
	Endpoint   string       // default: Google's public endpoint
}

// Name implements SearchProvider.
func (p *GoogleCSEProvider) Name() string { return "google_cse" }

type cseItem struct {
	Link  string `json:"link"`
	Title string `json:"title"`
	Image struct {
		ContextLink string `json:"contextLink"`
	} `json:"image"`
}

type cseResponse struct {
	Items []cseItem `json:"items"`
}

// Search implements SearchProvider.
func (p *GoogleCSEProvider) Search(ctx context.Context, query string, opts SearchOpts) ([]ImageCandidate, error) {
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = defaultCSEEndpoint
	}
	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", p.APIKey)
	q.Set("cx", p.CX)
	q.Set("q", query)
	q.Set("searchType", "image")
	q.Set("num", strconv.Itoa(max(1, opts.Num)))
	q.Set("safe", "active")
	q.Set("start", strconv.Itoa(max(1, opts.Start)))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google api error: %d", resp.StatusCode)
	}

	var body cseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode google response: %w", err)
	}

	return lo.Map(body.Items, func(item cseItem, _ int) ImageCandidate {
		return ImageCandidate{ImgURL: item.Link, Source: item.Image.ContextLink, Title: item.Title}
	}), nil
}
