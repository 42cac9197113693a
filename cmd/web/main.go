// cmd/web/main.go
//
// Waypost – HTTP entry point.
//
// Boot order
// ----------
//
//  1. Start daily rotating logger (tees to console when running in a TTY).
//
//  2. Load config (.env → conf/global.yaml → WAYPOST_ env overrides, with
//     vault: references resolved in place).
//
//  3. Open the listing DB, splicing the Vault-sourced password into the
//     DSN template.
//
//  4. Optional GeoIP reader for audit-actor country enrichment.
//
//  5. Disk blob store under the configured media root.
//
//  6. Wire the lifecycle Manager: SQL stores, metadata, blobs, the
//     singleflight-wrapped geocoder, payments, prices, and accounts.
//
//  7. chi router: provider resolve route, /healthz, /metrics; wrapped in
//     security headers, actor enrichment, and optional HTTPS forcing.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/waypost/internal/account"
	"github.com/yanizio/waypost/internal/actor"
	"github.com/yanizio/waypost/internal/address"
	"github.com/yanizio/waypost/internal/blob"
	"github.com/yanizio/waypost/internal/config"
	"github.com/yanizio/waypost/internal/database"
	"github.com/yanizio/waypost/internal/geo"
	"github.com/yanizio/waypost/internal/listing"
	"github.com/yanizio/waypost/internal/logger"
	"github.com/yanizio/waypost/internal/meta"
	"github.com/yanizio/waypost/internal/middleware"
	"github.com/yanizio/waypost/internal/server"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	zap.ReplaceGlobals(logOut.Desugar())

	ctx := context.Background()

	//
	// ── 1.  Config ──────────────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Listing DB connect ──────────────────────────────────────────
	//
	dsn := cfg.Database.DSN
	if strings.Contains(dsn, "%s") {
		dsn = fmt.Sprintf(dsn, cfg.Database.Password)
	}
	logOut.Infow("connecting to listing DB")
	db, err := database.Open(dsn)
	if err != nil {
		logOut.Fatalf("connect listing DB: %v", err)
	}
	defer db.Close()
	logOut.Infow("listing DB online")

	// Log listing count as an early sanity check.
	var total int
	_ = db.Get(&total, `SELECT COUNT(*) FROM listing`)
	logOut.Infof("%d listing(s) found", total)

	//
	// ── 3.  GeoIP (optional) ────────────────────────────────────────────
	//
	if cfg.GeoIP.DBPath != "" {
		if err := actor.InitGeo(cfg.GeoIP.DBPath); err != nil {
			logOut.Warnw("geoip unavailable, actor country disabled", "err", err)
		}
	}

	//
	// ── 4.  Blob store ──────────────────────────────────────────────────
	//
	blobs, err := blob.NewDisk(cfg.Storage.Root)
	if err != nil {
		logOut.Fatalf("open blob store: %v", err)
	}

	//
	// ── 5.  Lifecycle manager ───────────────────────────────────────────
	//
	store := listing.NewSQLStore(db)
	mgr := listing.NewManager(listing.ManagerDeps{
		Store:                       store,
		Meta:                        meta.NewSQL(db),
		Blobs:                       blobs,
		Geocoder:                    buildGeocoder(cfg),
		Audit:                       listing.NewSQLAuditStore(db),
		Payments:                    listing.NewSQLPaymentStore(db),
		Prices:                      listing.NewSQLPriceTable(db),
		Accounts:                    account.NewSQL(db),
		Log:                         logOut,
		RestrictedPreferredServices: cfg.Listings.RestrictedPreferredServices,
	})
	_ = mgr // mutation endpoints hang off the admin surface, not this binary

	//
	// ── 6.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(actor.Enrich)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/*", resolveHandler(store, logOut))

	var handler http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(handler)
	}

	srv := server.New(cfg.HTTP.ListenAddr, handler)
	logOut.Infof("listening on %s", cfg.HTTP.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logOut.Fatalf("http server: %v", err)
	}
}

// buildGeocoder wires the resolver client, or a no-match stub when no
// endpoint is configured (dev boxes, CI).
func buildGeocoder(cfg *config.Config) geo.Geocoder {
	if cfg.Geocoder.Endpoint == "" {
		return geo.Func(func(context.Context, address.Parts) (*geo.Result, error) {
			return nil, nil
		})
	}
	return geo.NewSingle(geo.NewHTTPClient(
		cfg.Geocoder.Endpoint, cfg.Geocoder.APIKey, cfg.Geocoder.Source))
}

// providerView is the public JSON shape of a resolved listing.
type providerView struct {
	CKey      int64   `json:"ckey"`
	StoreName string  `json:"storename"`
	AdTitle   string  `json:"ad_title,omitempty"`
	City      string  `json:"city"`
	StateProv string  `json:"stateprov"`
	Permalink string  `json:"permalink"`
	Phone     string  `json:"phone,omitempty"`
	Website   string  `json:"website,omitempty"`
	Rank      float64 `json:"rank"`
	Expires   string  `json:"expires"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Image1    string  `json:"image1,omitempty"`
}

// resolveHandler binds public provider URLs to records: the wildcard path
// is tried first as a permalink, then as a numeric ckey.
func resolveHandler(store listing.Store, logOut *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier := strings.Trim(chi.URLParam(r, "*"), "/")

		l, err := listing.Resolve(r.Context(), store, identifier)
		if errors.Is(err, listing.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			logOut.Errorw("resolve failed", "identifier", identifier, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(providerView{
			CKey:      l.CKey,
			StoreName: l.StoreName,
			AdTitle:   l.AdTitle,
			City:      l.City,
			StateProv: l.StateProv,
			Permalink: l.Permalink,
			Phone:     l.Phone.Number(),
			Website:   l.Website,
			Rank:      l.Rank,
			Expires:   l.Expires.Format(time.DateOnly),
			Latitude:  l.Latitude,
			Longitude: l.Longitude,
			Image1:    l.Image1,
		})
	}
}
