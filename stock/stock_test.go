package stock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoezoneapi/internal/apperr"
	"shoezoneapi/upstream"
)

type fakeUpstream struct {
	calls  int
	bodies []any
	reply  func() (*upstream.Envelope, error)
}

func (f *fakeUpstream) PostJSON(_ context.Context, path string, body any) (*upstream.Envelope, error) {
	f.calls++
	f.bodies = append(f.bodies, body)
	return f.reply()
}

func envelope(t *testing.T, payload any) *upstream.Envelope {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return &upstream.Envelope{D: string(b)}
}

func inStockReply(t *testing.T) func() (*upstream.Envelope, error) {
	return func() (*upstream.Envelope, error) {
		return envelope(t, map[string]any{
			"InStock": true,
			"Store": map[string]any{
				"Name":     "Gloucester Eastgate",
				"StoreKey": 104,
				"Address":  "12 Eastgate Street, Gloucester",
			},
		}), nil
	}
}

func TestCheckStoreStockMapsReply(t *testing.T) {
	up := &fakeUpstream{reply: inStockReply(t)}
	a := New(up, zerolog.Nop())

	res, err := a.CheckStoreStock(context.Background(), "17208", "090", 104, 2)
	require.NoError(t, err)

	assert.True(t, res.InStock)
	assert.Equal(t, "Gloucester Eastgate", res.StoreName)
	assert.Equal(t, 104, res.StoreID)
	assert.Equal(t, "12 Eastgate Street, Gloucester", res.StoreAddress)

	req := up.bodies[0].(checkRequest)
	assert.Equal(t, "17208090", req.ProductCode)
	assert.Equal(t, 2, req.Quantity)
	assert.True(t, req.ReserveCheck)
}

func TestCheckStoreStockDefaultsQuantity(t *testing.T) {
	up := &fakeUpstream{reply: inStockReply(t)}
	a := New(up, zerolog.Nop())

	_, err := a.CheckStoreStock(context.Background(), "17208", "090", 104, 0)
	require.NoError(t, err)

	req := up.bodies[0].(checkRequest)
	assert.Equal(t, 1, req.Quantity)
}

func TestCheckStoreStockMissingStoreFieldIsGenericFailure(t *testing.T) {
	// The service replies 200 for invalid style/size combinations; the only
	// signal is the absent Store field.
	up := &fakeUpstream{reply: func() (*upstream.Envelope, error) {
		return envelope(t, map[string]any{"InStock": false}), nil
	}}
	a := New(up, zerolog.Nop())

	_, err := a.CheckStoreStock(context.Background(), "99999", "999", 104, 1)
	require.Error(t, err)

	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 500, ae.Status)
}

func TestCheckStoreStockNeverCaches(t *testing.T) {
	up := &fakeUpstream{reply: inStockReply(t)}
	a := New(up, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := a.CheckStoreStock(context.Background(), "17208", "090", 104, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, up.calls, "identical calls must each hit upstream")
}

func TestCheckStoreStockUpstreamFailurePropagates(t *testing.T) {
	up := &fakeUpstream{reply: func() (*upstream.Envelope, error) {
		return nil, errors.New("connection reset")
	}}
	a := New(up, zerolog.Nop())

	_, err := a.CheckStoreStock(context.Background(), "17208", "090", 104, 1)
	assert.Error(t, err)
	assert.Equal(t, 1, up.calls, "failures are not retried")
}
