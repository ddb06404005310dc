// Package routes maps URL paths onto the data adapters and serializes their
// results into the {ok, result} JSON envelope.
package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"shoezoneapi/internal/apperr"
	appmw "shoezoneapi/internal/http/middleware"
	"shoezoneapi/locator"
	"shoezoneapi/product"
	"shoezoneapi/stock"
)

// StoreLocator resolves a location query to the nearest store.
type StoreLocator interface {
	LocateStore(ctx context.Context, q locator.Query) (*locator.Store, error)
}

// StockChecker reports live availability at one store.
type StockChecker interface {
	CheckStoreStock(ctx context.Context, styleCode, size string, storeID, quantity int) (*stock.Result, error)
}

// ProductScraper returns the parsed product page for a style code.
type ProductScraper interface {
	GetProductInfo(ctx context.Context, styleCode string, storeID int) (*product.Product, error)
}

type Server struct {
	Router *chi.Mux

	locator  StoreLocator
	stock    StockChecker
	products ProductScraper
	log      zerolog.Logger
}

type ServerOptions struct {
	Locator    StoreLocator
	Stock      StockChecker
	Products   ProductScraper
	Metrics    http.Handler
	CORSOrigin string
	Log        zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(appmw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(appmw.CORS(opts.CORSOrigin))

	s := &Server{
		Router:   r,
		locator:  opts.Locator,
		stock:    opts.Stock,
		products: opts.Products,
		log:      opts.Log,
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/stores/near", s.handleStoreNear)
		api.Get("/stock/check", s.handleStockCheck)
		api.Get("/products/{styleCode}", s.handleProduct)
	})

	return s
}

// envelope is the uniform response shape: result holds the record on
// success and the error message on failure.
type envelope struct {
	OK     bool `json:"ok"`
	Result any  `json:"result"`
}

func (s *Server) writeResult(w http.ResponseWriter, record any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(envelope{OK: true, Result: record}); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	s.log.Warn().Err(err).Int("status", status).
		Str("request_id", appmw.GetRequestID(r.Context())).
		Str("path", r.URL.Path).Msg("request failed")

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(envelope{OK: false, Result: err.Error()}); encErr != nil {
		s.log.Error().Err(encErr).Msg("encode error response")
	}
}

func (s *Server) handleStoreNear(w http.ResponseWriter, r *http.Request) {
	q := locator.Query{}
	vals := r.URL.Query()

	if vals.Has("lat") {
		f, err := strconv.ParseFloat(vals.Get("lat"), 64)
		if err != nil {
			s.writeError(w, r, apperr.New(http.StatusBadRequest, "invalid lat"))
			return
		}
		q.Lat = &f
	}
	if vals.Has("lon") {
		f, err := strconv.ParseFloat(vals.Get("lon"), 64)
		if err != nil {
			s.writeError(w, r, apperr.New(http.StatusBadRequest, "invalid lon"))
			return
		}
		q.Lon = &f
	}
	if vals.Has("city") {
		v := vals.Get("city")
		q.City = &v
	}
	if vals.Has("postcode") {
		v := vals.Get("postcode")
		q.Postcode = &v
	}

	st, err := s.locator.LocateStore(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, st)
}

func (s *Server) handleStockCheck(w http.ResponseWriter, r *http.Request) {
	vals := r.URL.Query()

	style := vals.Get("style")
	size := vals.Get("size")
	if style == "" || size == "" {
		s.writeError(w, r, apperr.New(http.StatusBadRequest, "style and size are required"))
		return
	}
	storeID, err := strconv.Atoi(vals.Get("storeId"))
	if err != nil {
		s.writeError(w, r, apperr.New(http.StatusBadRequest, "invalid storeId"))
		return
	}

	quantity := 1
	if vals.Has("quantity") {
		quantity, err = strconv.Atoi(vals.Get("quantity"))
		if err != nil || quantity < 1 {
			s.writeError(w, r, apperr.New(http.StatusBadRequest, "invalid quantity"))
			return
		}
	}

	res, err := s.stock.CheckStoreStock(r.Context(), style, size, storeID, quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	style := chi.URLParam(r, "styleCode")

	storeID := 0
	if v := r.URL.Query().Get("storeId"); v != "" {
		var err error
		storeID, err = strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, apperr.New(http.StatusBadRequest, "invalid storeId"))
			return
		}
	}

	p, err := s.products.GetProductInfo(r.Context(), style, storeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, p)
}
