package images

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/neexbeast/relocation/internal/cache"
)

const (
	unsplashDefaultURL = "https://api.unsplash.com/search/photos"
	httpTimeout        = 10 * time.Second

	// CacheTTL is how long a successful search is reused.
	CacheTTL = time.Hour

	// FallbackGradient is shown in place of a photo.
	FallbackGradient = "linear-gradient(135deg, #667eea 0%, #764ba2 100%)"

	DefaultCount = 1
	MaxCount     = 30
)

// Credit attributes a photo to its author.
type Credit struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Image is one search hit, or a gradient placeholder when Fallback is set.
type Image struct {
	ID       string  `json:"id,omitempty"`
	URL      *string `json:"url"`
	FullURL  string  `json:"fullUrl,omitempty"`
	ThumbURL string  `json:"thumbUrl,omitempty"`
	Alt      string  `json:"alt,omitempty"`
	Credit   *Credit `json:"credit,omitempty"`
	Fallback bool    `json:"fallback,omitempty"`
	Gradient string  `json:"gradient,omitempty"`
}

// Result is the image search response body.
type Result struct {
	Images []Image `json:"images"`
	Error  string  `json:"error,omitempty"`
}

func fallback(errMsg string) Result {
	return Result{
		Images: []Image{{Fallback: true, Gradient: FallbackGradient}},
		Error:  errMsg,
	}
}

// unsplashResponse is the subset of the search payload we read.
type unsplashResponse struct {
	Results []struct {
		ID   string `json:"id"`
		URLs struct {
			Full    string `json:"full"`
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
		User struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
		AltDescription *string `json:"alt_description"`
		Description    *string `json:"description"`
	} `json:"results"`
}

// Client searches Unsplash for landscape photos.
type Client struct {
	accessKey string
	baseURL   string
	client    *http.Client
	cache     *cache.Cache
	log       *slog.Logger
}

// NewClient constructs a Client against the production API. c may be nil.
func NewClient(accessKey string, c *cache.Cache, log *slog.Logger) *Client {
	return NewClientWithURL(accessKey, unsplashDefaultURL, c, log)
}

// NewClientWithURL constructs a Client with a custom base URL (for tests).
func NewClientWithURL(accessKey, baseURL string, c *cache.Cache, log *slog.Logger) *Client {
	return &Client{
		accessKey: accessKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: httpTimeout},
		cache:     c,
		log:       log,
	}
}

// ClampCount bounds a requested result count to 1..MaxCount.
func ClampCount(n int) int {
	switch {
	case n < 1:
		return DefaultCount
	case n > MaxCount:
		return MaxCount
	}
	return n
}

// Search returns up to count photos for query. Without an access key it
// returns a single gradient placeholder without touching the network; an
// upstream failure returns the same placeholder with Error set.
func (c *Client) Search(ctx context.Context, query string, count int) Result {
	if c.accessKey == "" {
		return fallback("")
	}
	count = ClampCount(count)

	key := query + "|" + strconv.Itoa(count)
	if c.cache != nil {
		var cached Result
		ok, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			c.log.Warn("image cache read failed", "query", query, "err", err)
		} else if ok {
			return cached
		}
	}

	res, err := c.fetch(ctx, query, count)
	if err != nil {
		c.log.Error("unsplash search failed", "query", query, "err", err)
		return fallback("Failed to fetch from Unsplash")
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, res); err != nil {
			c.log.Warn("image cache write failed", "query", query, "err", err)
		}
	}
	return res
}

func (c *Client) fetch(ctx context.Context, query string, count int) (Result, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(count))
	params.Set("orientation", "landscape")

	var raw unsplashResponse
	if err := c.doGet(ctx, c.baseURL+"?"+params.Encode(), &raw); err != nil {
		return Result{}, err
	}

	out := Result{Images: make([]Image, 0, len(raw.Results))}
	for _, p := range raw.Results {
		regular := p.URLs.Regular
		out.Images = append(out.Images, Image{
			ID:       p.ID,
			URL:      &regular,
			FullURL:  p.URLs.Full,
			ThumbURL: p.URLs.Small,
			Alt:      firstNonEmpty(p.AltDescription, p.Description, &query),
			Credit:   &Credit{Name: p.User.Name, Link: p.User.Links.HTML},
		})
	}
	return out, nil
}

// doGet performs an authorised GET and decodes the JSON response into dst.
func (c *Client) doGet(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", c.baseURL, err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", c.baseURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", c.baseURL, err)
	}

	return nil
}

func firstNonEmpty(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
