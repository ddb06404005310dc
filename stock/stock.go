// Package stock answers live in-store availability checks. Stock moves too
// fast to cache, so every call goes straight to the retail site.
package stock

import (
	"context"

	"github.com/rs/zerolog"

	"shoezoneapi/internal/apperr"
	"shoezoneapi/upstream"
)

// Result reports whether one (store, style, size) combination is in stock.
// Upstream exposes only a boolean, never a quantity.
type Result struct {
	InStock      bool   `json:"inStock"`
	StoreName    string `json:"storeName"`
	StoreID      int    `json:"storeId"`
	StoreAddress string `json:"storeAddress"`
}

type Upstream interface {
	PostJSON(ctx context.Context, path string, body any) (*upstream.Envelope, error)
}

type Adapter struct {
	upstream Upstream
	log      zerolog.Logger
}

func New(u Upstream, log zerolog.Logger) *Adapter {
	return &Adapter{upstream: u, log: log}
}

// checkRequest is the wire shape of a stock check. ReserveCheck is a fixed
// flag the service requires on every call.
type checkRequest struct {
	StoreKey     int    `json:"StoreKey"`
	ProductCode  string `json:"ProductCode"`
	Quantity     int    `json:"Quantity"`
	ReserveCheck bool   `json:"ReserveCheck"`
}

// checkResponse carries the decoded payload. The service replies 200 even
// for invalid style/size combinations; the Store field is only present when
// the combination exists, so its absence is the failure signal.
type checkResponse struct {
	InStock bool          `json:"InStock"`
	Store   *storePayload `json:"Store"`
}

type storePayload struct {
	Name     string `json:"Name"`
	StoreKey int    `json:"StoreKey"`
	Address  string `json:"Address"`
}

// CheckStoreStock queries live availability of styleCode+size at storeID.
// Quantity defaults to 1 when not positive; richer validation belongs to the
// HTTP layer.
func (a *Adapter) CheckStoreStock(ctx context.Context, styleCode, size string, storeID, quantity int) (*Result, error) {
	if quantity <= 0 {
		quantity = 1
	}

	env, err := a.upstream.PostJSON(ctx, upstream.StockCheckPath, checkRequest{
		StoreKey:     storeID,
		ProductCode:  styleCode + size,
		Quantity:     quantity,
		ReserveCheck: true,
	})
	if err != nil {
		return nil, err
	}

	var resp checkResponse
	if err := env.Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Store == nil {
		return nil, apperr.Internal("product unavailable")
	}

	a.log.Debug().Str("style", styleCode).Str("size", size).Int("storeId", storeID).
		Bool("inStock", resp.InStock).Msg("stock checked")

	return &Result{
		InStock:      resp.InStock,
		StoreName:    resp.Store.Name,
		StoreID:      resp.Store.StoreKey,
		StoreAddress: resp.Store.Address,
	}, nil
}
