package locator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoezoneapi/cache"
	"shoezoneapi/internal/apperr"
	"shoezoneapi/upstream"
)

type fakeUpstream struct {
	calls int
	reply func(path string, body any) (*upstream.Envelope, error)
}

func (f *fakeUpstream) PostJSON(_ context.Context, path string, body any) (*upstream.Envelope, error) {
	f.calls++
	return f.reply(path, body)
}

func envelope(t *testing.T, payload any) *upstream.Envelope {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return &upstream.Envelope{D: string(b)}
}

func testStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(filepath.Join(t.TempDir(), "locations.json"))
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }

func TestCacheKeyNormalization(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{
			name: "lat lon with blank city and postcode",
			q:    Query{Lat: ptr(51.501), Lon: ptr(-0.099), City: ptr(""), Postcode: ptr("")},
			want: "near:51.50,-0.10,,",
		},
		{
			name: "postcode only, lower-cased",
			q:    Query{Postcode: ptr("GL1")},
			want: "near:gl1",
		},
		{
			name: "undefined fields omitted entirely",
			q:    Query{City: ptr("Gloucester")},
			want: "near:gloucester",
		},
		{
			name: "empty query",
			q:    Query{},
			want: "near:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.CacheKey())
		})
	}
}

func TestCacheKeyCaseStable(t *testing.T) {
	a := Query{Postcode: ptr("GL1")}
	b := Query{Postcode: ptr("gl1")}
	assert.Equal(t, a.CacheKey(), b.CacheKey())
}

func TestLocateStoreMapsFirstCandidate(t *testing.T) {
	up := &fakeUpstream{reply: func(path string, body any) (*upstream.Envelope, error) {
		assert.Equal(t, upstream.LocatorPath, path)
		return envelope(t, map[string]any{
			"Stores": []map[string]any{{
				"Name":     "GLOUCESTER EASTGATE",
				"StoreKey": "104",
				"Address1": "12 Eastgate Street",
				"Address2": "Eastgate Shopping Centre",
				"Town":     "Gloucester",
				"Phone":    "01452 309 456",
			}},
		}), nil
	}}

	a := New(up, testStore(t), zerolog.Nop(), nil)
	st, err := a.LocateStore(context.Background(), Query{Postcode: ptr("GL1")})
	require.NoError(t, err)

	assert.Equal(t, "Gloucester Eastgate", st.StoreName)
	assert.Equal(t, 104, st.StoreID)
	assert.Equal(t, "12 Eastgate Street, Eastgate Shopping Centre, Gloucester", st.StoreAddress)
	assert.Equal(t, "01452309456", st.StorePhone)
}

func TestLocateStoreServesCacheWithoutUpstream(t *testing.T) {
	up := &fakeUpstream{reply: func(string, any) (*upstream.Envelope, error) {
		return envelope(t, map[string]any{
			"Stores": []map[string]any{{
				"Name": "CHELTENHAM", "StoreKey": "61",
				"Address1": "1 High Street", "Address2": "", "Town": "Cheltenham",
				"Phone": "01242 222 333",
			}},
		}), nil
	}}

	a := New(up, testStore(t), zerolog.Nop(), nil)

	first, err := a.LocateStore(context.Background(), Query{Postcode: ptr("GL50")})
	require.NoError(t, err)
	require.Equal(t, 1, up.calls)

	// Same query, different formatting: must hit the same cache entry.
	second, err := a.LocateStore(context.Background(), Query{Postcode: ptr("gl50")})
	require.NoError(t, err)
	assert.Equal(t, 1, up.calls)
	assert.Equal(t, first, second)
}

func TestLocateStoreLatLonCacheHit(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Set("near:51.50,-0.10,,", Store{
		StoreName: "London Bridge", StoreID: 7,
		StoreAddress: "2 Borough High Street, , London", StorePhone: "02071234567",
	}))

	up := &fakeUpstream{reply: func(string, any) (*upstream.Envelope, error) {
		t.Fatal("upstream must not be called on a cache hit")
		return nil, nil
	}}

	a := New(up, store, zerolog.Nop(), nil)
	st, err := a.LocateStore(context.Background(), Query{
		Lat: ptr(51.499), Lon: ptr(-0.101), City: ptr(""), Postcode: ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "London Bridge", st.StoreName)
	assert.Equal(t, 0, up.calls)
}

func TestLocateStoreNoMatchesIsClientError(t *testing.T) {
	up := &fakeUpstream{reply: func(string, any) (*upstream.Envelope, error) {
		return envelope(t, map[string]any{
			"Stores": nil,
			"Error":  "No stores found within 30 miles of the given location",
		}), nil
	}}

	a := New(up, testStore(t), zerolog.Nop(), nil)
	_, err := a.LocateStore(context.Background(), Query{Postcode: ptr("ZZ99")})
	require.Error(t, err)

	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, "No stores found within 30 miles of the given location", ae.Message)
}

func TestLocateStoreUpstreamFailurePropagates(t *testing.T) {
	up := &fakeUpstream{reply: func(string, any) (*upstream.Envelope, error) {
		return nil, errors.New("connection refused")
	}}

	store := testStore(t)
	a := New(up, store, zerolog.Nop(), nil)
	_, err := a.LocateStore(context.Background(), Query{Postcode: ptr("GL1")})
	assert.Error(t, err)
	assert.Equal(t, 0, store.Len(), "nothing should be cached on failure")
}

func TestLocateStoreBadStoreKey(t *testing.T) {
	up := &fakeUpstream{reply: func(string, any) (*upstream.Envelope, error) {
		return envelope(t, map[string]any{
			"Stores": []map[string]any{{"Name": "X", "StoreKey": "not-a-number"}},
		}), nil
	}}

	a := New(up, testStore(t), zerolog.Nop(), nil)
	_, err := a.LocateStore(context.Background(), Query{Postcode: ptr("GL1")})
	assert.Error(t, err)
}

func TestLocateStorePersistsToDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locations.json")
	store, err := cache.Open(path)
	require.NoError(t, err)

	up := &fakeUpstream{reply: func(string, any) (*upstream.Envelope, error) {
		return envelope(t, map[string]any{
			"Stores": []map[string]any{{
				"Name": "SWINDON", "StoreKey": "33",
				"Address1": "5 Regent Street", "Address2": "", "Town": "Swindon",
				"Phone": "01793 111 222",
			}},
		}), nil
	}}

	a := New(up, store, zerolog.Nop(), nil)
	_, err = a.LocateStore(context.Background(), Query{City: ptr("Swindon")})
	require.NoError(t, err)

	reopened, err := cache.Open(path)
	require.NoError(t, err)
	raw, ok := reopened.Get("near:swindon")
	require.True(t, ok)

	var st Store
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Equal(t, "Swindon", st.StoreName)
	assert.Equal(t, 33, st.StoreID)
}
