package product

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"shoezoneapi/cache"
	"shoezoneapi/internal/htmldoc"
	"shoezoneapi/internal/obs"
)

const (
	// DefaultTTL bounds how stale a cached page may get. Prices and
	// warehouse stock on the page drift within minutes.
	DefaultTTL = time.Minute

	cacheDomain    = "page"
	cacheKeyPrefix = "page@sz:"
	pagePathPrefix = "/Products/"
	minStyleLen    = 5
)

// Fetcher is the slice of the upstream client the scraper needs.
type Fetcher interface {
	GetPage(ctx context.Context, path string) ([]byte, error)
}

// Scraper fetches and parses product pages through a TTL cache. Concurrent
// misses on the same key are collapsed into a single upstream fetch.
type Scraper struct {
	fetch   Fetcher
	cache   *cache.Store
	parser  htmldoc.Parser
	log     zerolog.Logger
	metrics *obs.Metrics
	ttl     time.Duration
	now     func() time.Time
	flight  singleflight.Group
}

type ScraperOption func(*Scraper)

func WithTTL(ttl time.Duration) ScraperOption {
	return func(s *Scraper) { s.ttl = ttl }
}

func WithLogger(log zerolog.Logger) ScraperOption {
	return func(s *Scraper) { s.log = log }
}

func WithMetrics(m *obs.Metrics) ScraperOption {
	return func(s *Scraper) { s.metrics = m }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ScraperOption {
	return func(s *Scraper) { s.now = now }
}

func NewScraper(f Fetcher, c *cache.Store, parser htmldoc.Parser, opts ...ScraperOption) *Scraper {
	s := &Scraper{
		fetch:  f,
		cache:  c,
		parser: parser,
		log:    zerolog.Nop(),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// pageEntry is the cached form of a parsed page: the record itself plus the
// parse time in milliseconds since epoch.
type pageEntry struct {
	Timestamp int64   `json:"timestamp"`
	Value     Product `json:"value"`
}

// baseStyle strips an embedded 3-character size code from the end of a style
// code. Product URLs accept only the base style: codes are historically 5
// digits (now up to 6), so anything long enough to hold both parts gets the
// suffix removed.
func baseStyle(code string) string {
	if len(code)-sizeCodeLen >= minStyleLen {
		return code[:len(code)-sizeCodeLen]
	}
	return code
}

// GetProductInfo returns the parsed product page for styleCode. Pages are
// served from cache while fresh; a miss or expiry fetches the live page,
// parses it, and overwrites the cached record with a new timestamp.
//
// storeID is accepted for interface symmetry but cannot affect the result:
// the product page carries no per-store stock. Upstream limitation.
func (s *Scraper) GetProductInfo(ctx context.Context, styleCode string, storeID int) (*Product, error) {
	path := pagePathPrefix + baseStyle(styleCode)
	key := cacheKeyPrefix + strings.ToLower(path)

	if raw, ok := s.cache.Get(key); ok {
		var entry pageEntry
		if err := json.Unmarshal(raw, &entry); err == nil &&
			s.now().Sub(time.UnixMilli(entry.Timestamp)) < s.ttl {
			s.metrics.CacheHit(cacheDomain)
			s.log.Debug().Str("key", key).Msg("page cache hit")
			return &entry.Value, nil
		}
	}
	s.metrics.CacheMiss(cacheDomain)

	v, err, _ := s.flight.Do(key, func() (any, error) {
		start := s.now()
		markup, err := s.fetch.GetPage(ctx, path)
		if err != nil {
			return nil, err
		}
		prod, err := parseProduct(s.parser, markup)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveScrape(s.now().Sub(start))

		if err := s.cache.Set(key, pageEntry{Timestamp: s.now().UnixMilli(), Value: *prod}); err != nil {
			return nil, err
		}
		if err := s.cache.Persist(); err != nil {
			return nil, err
		}
		s.log.Debug().Str("key", key).Int("id", prod.ID).Msg("page scraped")
		return prod, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}
