// Package locator resolves free-form location queries to the nearest store
// via the retail site's store-locator service. Results are cached with no
// expiry: store locations change rarely enough that the cache file is simply
// cleared by hand when they do.
package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"shoezoneapi/cache"
	"shoezoneapi/internal/apperr"
	"shoezoneapi/internal/obs"
	"shoezoneapi/upstream"
)

const cacheDomain = "location"

// Store is a single retail store as returned to callers.
type Store struct {
	StoreName    string `json:"storeName"`
	StoreID      int    `json:"storeId"`
	StoreAddress string `json:"storeAddress"`
	StorePhone   string `json:"storePhone"`
}

// Query carries the caller's location hints. Nil fields were absent from the
// request and are left out of the cache key; empty strings are
// present-but-blank and kept, so the two cases normalize differently.
type Query struct {
	Lat      *float64
	Lon      *float64
	City     *string
	Postcode *string
}

// CacheKey builds the normalized lookup key: lower-cased, comma-joined
// defined fields in fixed order, floats rounded to two decimals. Logically
// identical queries must always produce the same key.
func (q Query) CacheKey() string {
	parts := make([]string, 0, 4)
	if q.Lat != nil {
		parts = append(parts, fmt.Sprintf("%.2f", round2(*q.Lat)))
	}
	if q.Lon != nil {
		parts = append(parts, fmt.Sprintf("%.2f", round2(*q.Lon)))
	}
	if q.City != nil {
		parts = append(parts, *q.City)
	}
	if q.Postcode != nil {
		parts = append(parts, *q.Postcode)
	}
	return "near:" + strings.ToLower(strings.Join(parts, ","))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Upstream is the slice of the upstream client the locator needs.
type Upstream interface {
	PostJSON(ctx context.Context, path string, body any) (*upstream.Envelope, error)
}

// Adapter answers nearest-store lookups, consulting the location cache first.
type Adapter struct {
	upstream Upstream
	cache    *cache.Store
	log      zerolog.Logger
	metrics  *obs.Metrics
}

func New(u Upstream, c *cache.Store, log zerolog.Logger, m *obs.Metrics) *Adapter {
	return &Adapter{upstream: u, cache: c, log: log, metrics: m}
}

// searchRequest is the wire shape of a store-locator search. Absent lat/lon
// default to 0, per the service contract.
type searchRequest struct {
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
	Town      string  `json:"Town"`
	Postcode  string  `json:"Postcode"`
	Count     int     `json:"Count"`
}

type searchResponse struct {
	Stores []rawStore `json:"Stores"`
	Error  string     `json:"Error"`
}

type rawStore struct {
	Name     string `json:"Name"`
	StoreKey string `json:"StoreKey"`
	Address1 string `json:"Address1"`
	Address2 string `json:"Address2"`
	Town     string `json:"Town"`
	Phone    string `json:"Phone"`
}

// LocateStore returns the store nearest the query. Cached results are served
// indefinitely; on a miss the locator service is queried and the mapped
// record is persisted before returning.
func (a *Adapter) LocateStore(ctx context.Context, q Query) (*Store, error) {
	key := q.CacheKey()

	if raw, ok := a.cache.Get(key); ok {
		var st Store
		if err := json.Unmarshal(raw, &st); err == nil {
			a.metrics.CacheHit(cacheDomain)
			a.log.Debug().Str("key", key).Msg("location cache hit")
			return &st, nil
		}
		// corrupt entry: fall through to a live lookup that overwrites it
	}
	a.metrics.CacheMiss(cacheDomain)

	env, err := a.upstream.PostJSON(ctx, upstream.LocatorPath, searchRequest{
		Latitude:  round2(deref(q.Lat)),
		Longitude: round2(deref(q.Lon)),
		Town:      deref(q.City),
		Postcode:  deref(q.Postcode),
		Count:     1,
	})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := env.Decode(&resp); err != nil {
		return nil, err
	}
	if len(resp.Stores) == 0 {
		msg := resp.Error
		if msg == "" {
			msg = "no stores found"
		}
		return nil, apperr.NotFound(msg)
	}

	st, err := resp.Stores[0].toStore()
	if err != nil {
		return nil, err
	}

	if err := a.cache.Set(key, st); err != nil {
		return nil, err
	}
	if err := a.cache.Persist(); err != nil {
		return nil, err
	}
	a.log.Debug().Str("key", key).Int("storeId", st.StoreID).Msg("location cached")
	return st, nil
}

func (r rawStore) toStore() (*Store, error) {
	id, err := strconv.Atoi(strings.TrimSpace(r.StoreKey))
	if err != nil {
		return nil, fmt.Errorf("store key %q: %w", r.StoreKey, err)
	}
	return &Store{
		StoreName:    titleCase(r.Name),
		StoreID:      id,
		StoreAddress: strings.Join([]string{r.Address1, r.Address2, r.Town}, ", "),
		StorePhone:   stripSpaces(r.Phone),
	}, nil
}

// titleCase upper-cases the first letter of every word; the locator service
// shouts store names in full caps.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
