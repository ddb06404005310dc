// cmd/api/main.go
package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"shoezoneapi/cache"
	"shoezoneapi/internal/config"
	"shoezoneapi/internal/htmldoc"
	"shoezoneapi/internal/http/routes"
	"shoezoneapi/internal/obs"
	"shoezoneapi/locator"
	"shoezoneapi/product"
	"shoezoneapi/stock"
	"shoezoneapi/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	metrics := obs.NewMetrics()

	// Cache stores, one per data domain, loaded from disk
	locations, err := cache.Open(filepath.Join(cfg.CacheDir, "locations.json"))
	if err != nil {
		log.Fatalf("location cache: %v", err)
	}
	pages, err := cache.Open(filepath.Join(cfg.CacheDir, "pages.json"))
	if err != nil {
		log.Fatalf("page cache: %v", err)
	}

	client := upstream.New(
		upstream.WithBaseURL(cfg.UpstreamURL),
		upstream.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		upstream.WithLogger(logger),
		upstream.WithMetrics(metrics),
	)

	s := routes.New(routes.ServerOptions{
		Locator: locator.New(client, locations, logger, metrics),
		Stock:   stock.New(client, logger),
		Products: product.NewScraper(client, pages, htmldoc.Goquery{},
			product.WithTTL(cfg.PageTTL),
			product.WithLogger(logger),
			product.WithMetrics(metrics),
		),
		Metrics:    metrics.Handler(),
		CORSOrigin: cfg.CORSOrigin,
		Log:        logger,
	})
	h := hlog.NewHandler(logger)(s.Router)

	logger.Info().Str("port", cfg.Port).Str("upstream", cfg.UpstreamURL).Msg("starting shoezone api")
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: h}
	log.Fatal(srv.ListenAndServe())
}
