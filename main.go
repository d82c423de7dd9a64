package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"eventscout/internal/api"
	"eventscout/internal/audit"
	"eventscout/internal/domain"
	"eventscout/internal/geocode"
	"eventscout/internal/infrastructure/mysql"
	"eventscout/internal/parser"
	"eventscout/internal/parser/generic"
	"eventscout/internal/scan"
	"eventscout/internal/schedule"
	"eventscout/internal/seed"
	"eventscout/internal/venue"
	"eventscout/pkg/config"
	"eventscout/pkg/container"
	"eventscout/pkg/logging"
	"eventscout/pkg/ratelimit"
)

func main() {
	c := container.New()

	_ = c.Provide(func() *config.Config { return config.Load() }, true)

	_ = c.Provide(func(cfg *config.Config) (*logging.Logger, error) {
		lc := logging.DefaultLogConfig()
		lc.Format = cfg.LogFormat
		lc.Level = parseLevel(cfg.LogLevel)
		return logging.NewLogger(lc)
	}, true)

	_ = c.Provide(func(cfg *config.Config) (*mysql.DB, error) {
		return mysql.New(cfg.DBDSN, mysql.PoolConfig{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
		})
	}, true)

	_ = c.Provide(func(db *mysql.DB) domain.Repository { return mysql.NewSQLRepository(db) }, true)
	_ = c.Provide(func(db *mysql.DB) domain.UnitOfWorkFactory { return mysql.NewSQLUnitOfWorkFactory(db) }, true)

	_ = c.Provide(func(cfg *config.Config) *ratelimit.PerHost {
		return ratelimit.NewPerHost(cfg.HTTPRatePerHost)
	}, true)

	_ = c.Provide(func(repo domain.VenueRepository) (*venue.Matcher, error) {
		names, err := seed.AmbiguousNames()
		if err != nil {
			return nil, err
		}
		return venue.New(context.Background(), repo, names)
	}, true)

	_ = c.Provide(func(cfg *config.Config, limiter *ratelimit.PerHost, log *logging.Logger) (*geocode.Cascade, error) {
		homeLat, homeLng := resolveHome(cfg, limiter, log)
		return geocode.New(geocode.Config{
			PrimaryPostcodeURL:  cfg.GeocoderPrimaryURL,
			HistoricPostcodeURL: cfg.GeocoderFallbackURL,
			GenericGeocoderKey:  cfg.GenericGeocoderURL,
			HomeLatitude:        homeLat,
			HomeLongitude:       homeLng,
		}, limiter, log)
	}, true)

	_ = c.Provide(func(cfg *config.Config, limiter *ratelimit.PerHost, log *logging.Logger) *parser.Registry {
		fallback := generic.New(cfg.OpenAIAPIKey, cfg.GenericExtractorModel, cfg.GenericExtractorURL, limiter, log)
		return parser.NewRegistry(fallback)
	}, true)

	_ = c.Provide(func(repo domain.CompetitionRepository, log *logging.Logger) *audit.Auditor {
		return audit.New(repo, log)
	}, true)

	_ = c.Provide(func(cfg *config.Config, repo domain.Repository, uow domain.UnitOfWorkFactory, m *venue.Matcher, g *geocode.Cascade, p *parser.Registry, a *audit.Auditor, log *logging.Logger) *scan.Engine {
		return scan.New(scan.Config{
			Concurrency: cfg.ScanConcurrency,
			Timeout:     cfg.ScanTimeout(),
		}, repo, uow, m, g, p, a, log)
	}, true)

	_ = c.Provide(func(cfg *config.Config, eng *scan.Engine, repo domain.Repository, log *logging.Logger) (*schedule.Scheduler, error) {
		return schedule.New(cfg.ScanSchedule, eng, repo, log)
	}, true)

	var (
		cfg        *config.Config
		appLog     *logging.Logger
		repo       domain.Repository
		uowFactory domain.UnitOfWorkFactory
		geocoder   *geocode.Cascade
		engine     *scan.Engine
		sched      *schedule.Scheduler
	)
	must(c.Resolve(&cfg))
	must(c.Resolve(&appLog))
	must(c.Resolve(&repo))
	must(c.Resolve(&uowFactory))

	comp := appLog.WithComponent("main")

	// Seeding runs before the engine (and so the venue matcher) is built,
	// so the matcher's index includes the seeded venues and aliases.
	loader := seed.NewLoader(uowFactory)
	if err := loader.Run(context.Background()); err != nil {
		log.Fatalf("eventscout: startup seeding failed: %v", err)
	}
	comp.Info("startup seeding complete")

	must(c.Resolve(&geocoder))
	if homeLat, homeLng := geocoder.Home(); homeLat != 0 || homeLng != 0 {
		if err := repo.RecomputeAllDistancesCtx(context.Background(), homeLat, homeLng); err != nil {
			comp.Error("failed to recompute distances after seeding", err)
		}
	}
	must(c.Resolve(&engine))
	must(c.Resolve(&sched))

	watcher := config.NewWatcher(cfg.ConfigWatchInterval())
	watcher.Start()
	defer watcher.Close()
	go applyHotReload(watcher.Subscribe(), geocoder, repo, engine, comp)

	sched.Start()
	defer sched.Stop()

	router := api.Router(repo, sched, geocoder, appLog)
	server := &http.Server{Addr: cfg.AdminAddr, Handler: router}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		comp.Info("received shutdown signal")
		cancel()
	}()

	go func() {
		comp.Info("read API listening", logging.String("addr", cfg.AdminAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			comp.Error("read API server error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		comp.Error("read API shutdown error", err)
	}
	comp.Info("shutdown complete")
}

// resolveHome geocodes HOME_POSTCODE once at startup so the cascade has a
// distance origin before the first scan runs. Falls back to 0,0 (every
// venue reads as equidistant) if the postcode cannot be resolved yet; the
// home-postcode read API endpoint corrects this without a restart.
func resolveHome(cfg *config.Config, limiter *ratelimit.PerHost, log *logging.Logger) (float64, float64) {
	if cfg.HomePostcode == "" {
		return 0, 0
	}
	bootstrap, err := geocode.New(geocode.Config{
		PrimaryPostcodeURL:  cfg.GeocoderPrimaryURL,
		HistoricPostcodeURL: cfg.GeocoderFallbackURL,
	}, limiter, log)
	if err != nil {
		return 0, 0
	}
	lat, lng, ok := bootstrap.GeocodePostcode(context.Background(), cfg.HomePostcode)
	if !ok {
		if log != nil {
			log.WithComponent("main").Warn("could not resolve HOME_POSTCODE at startup", logging.String("postcode", cfg.HomePostcode))
		}
		return 0, 0
	}
	return lat, lng
}

// applyHotReload pushes HomePostcode and ScanConcurrency changes from the
// config watcher into the live geocoder cascade and scan engine
// (SPEC_FULL.md §6's hot-reload contract). Every other field change requires
// a process restart to take effect.
func applyHotReload(changes <-chan config.Change, geocoder *geocode.Cascade, repo domain.VenueRepository, engine *scan.Engine, log *logging.ComponentLogger) {
	for chg := range changes {
		if chg.Err != nil {
			log.Warn("config reload failed", logging.Error(chg.Err))
			continue
		}
		if containsField(chg.Fields, "ScanConcurrency") {
			engine.SetConcurrency(chg.New.ScanConcurrency)
			log.Info("scan concurrency hot-reloaded", logging.Int("concurrency", chg.New.ScanConcurrency))
		}
		if !containsField(chg.Fields, "HomePostcode") {
			continue
		}
		lat, lng, ok := geocoder.GeocodePostcode(context.Background(), chg.New.HomePostcode)
		if !ok {
			log.Warn("could not resolve updated HOME_POSTCODE", logging.String("postcode", chg.New.HomePostcode))
			continue
		}
		if err := repo.RecomputeAllDistancesCtx(context.Background(), lat, lng); err != nil {
			log.Error("failed to recompute distances after home postcode change", err)
			continue
		}
		geocoder.SetHome(lat, lng)
		log.Info("home postcode hot-reloaded", logging.String("postcode", chg.New.HomePostcode))
	}
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

func parseLevel(level string) logging.LogLevel {
	switch level {
	case "trace":
		return logging.LevelTrace
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func must(err error) {
	if err != nil {
		log.Fatalf("eventscout: %v", err)
	}
}
