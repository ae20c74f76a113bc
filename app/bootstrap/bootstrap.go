// Package bootstrap assembles the service from its configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/address-classifier/app/config"
	"github.com/address-classifier/app/controllers"
	"github.com/address-classifier/app/services"
	"github.com/address-classifier/internal/catalog"
	"github.com/address-classifier/internal/classifier"
	"github.com/address-classifier/internal/splitter"
	"github.com/address-classifier/internal/store/sqlite"
	"github.com/address-classifier/routes"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// App holds the assembled services.
type App struct {
	Config     config.Config
	Logger     *zap.Logger
	Catalog    *catalog.Catalog
	Address    *services.AddressService
	Format     *services.FormatService
	Jobs       *services.JobService
	Classifier *services.ClassifierService
	Cache      services.ICacheService

	mongo *mongo.Client
}

// NewLogger builds a zap logger for the environment.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Build connects the configured backends and creates every service.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			app.Close(context.Background())
		}
	}()

	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Catalog = cat

	if needsMongo(cfg) {
		if err := app.connectMongo(ctx); err != nil {
			return nil, err
		}
	}
	var repo *services.ClassifierRepository
	if app.mongo != nil {
		repo = services.NewClassifierRepository(ctx, app.mongo.Database(cfg.Mongo.Database), logger)
	}

	objs, err := loadObjects(ctx, cfg, repo)
	if err != nil {
		return nil, err
	}

	var (
		lookup classifier.Lookup
		memory *classifier.MemoryLookup
		meili  *classifier.MeiliLookup
	)
	switch cfg.Classifier.Backend {
	case "meili":
		if meili, err = classifier.NewMeiliLookup(cfg.Classifier.Meili, logger); err != nil {
			return nil, err
		}
		lookup = meili
	default:
		memory = classifier.NewMemoryLookup(objs...)
		lookup = memory
	}
	filler, err := classifier.NewFiller(lookup, classifier.FillerConfig{CacheSize: cfg.Classifier.CacheSize}, logger)
	if err != nil {
		return nil, err
	}

	if app.Cache, err = app.buildCache(ctx); err != nil {
		return nil, err
	}

	app.Address, err = services.NewAddressService(cat,
		splitter.New(cfg.Parser.UseLibpostal, logger),
		filler, app.Cache,
		services.AddressServiceConfig{
			Format:            cfg.Parser.Format,
			MaxBranches:       cfg.Parser.MaxBranches,
			ClassifierVersion: cfg.Classifier.Version,
		}, logger)
	if err != nil {
		return nil, err
	}
	app.Format = services.NewFormatService(cat)
	app.Jobs = services.NewJobService(app.Address, cfg.Jobs.Workers, cfg.Jobs.MaxAddresses, cfg.Jobs.TTL, logger)
	app.Classifier = services.NewClassifierService(services.ClassifierServiceDeps{
		Repository: repo,
		Memory:     memory,
		Meili:      meili,
		Filler:     filler,
		Cache:      app.Cache,
	}, cfg.Classifier.Version, logger)

	logger.Info("Service assembled",
		zap.String("classifier", cfg.Classifier.Backend),
		zap.Int("objects", len(objs)),
		zap.String("cache", cfg.Cache.Backend),
		zap.Bool("libpostal", cfg.Parser.UseLibpostal))
	ok = true
	return app, nil
}

func loadCatalog(ctx context.Context, cfg config.Config, logger *zap.Logger) (*catalog.Catalog, error) {
	rules, err := catalog.LoadRules()
	if err != nil {
		return nil, err
	}
	sources := []catalog.Source{catalog.EmbeddedSource{Rules: rules}}
	if cfg.Parser.TypesDB != "" {
		store, err := sqlite.Open(cfg.Parser.TypesDB, logger)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		sources = append(sources, store)
	}
	return catalog.Load(ctx, rules, logger, sources...)
}

func needsMongo(cfg config.Config) bool {
	switch cfg.Cache.Backend {
	case "mongo", "hybrid":
		return true
	}
	return cfg.Classifier.Data == "mongo"
}

func (a *App) connectMongo(ctx context.Context) error {
	a.Logger.Info("Connecting to MongoDB", zap.String("database", a.Config.Mongo.Database))
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.Config.Mongo.URI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("ping mongo: %w", err)
	}
	a.mongo = client
	return nil
}

// loadObjects reads the classifier data named by cfg.Classifier.Data.
func loadObjects(ctx context.Context, cfg config.Config, repo *services.ClassifierRepository) ([]classifier.Object, error) {
	switch cfg.Classifier.Data {
	case "":
		return classifier.SampleObjects(), nil
	case "mongo":
		if repo == nil {
			return nil, services.ErrNoRepository
		}
		return repo.All(ctx)
	}
	f, err := os.Open(cfg.Classifier.Data)
	if err != nil {
		return nil, fmt.Errorf("open classifier data: %w", err)
	}
	defer f.Close()
	return classifier.DecodeObjects(f)
}

func (a *App) buildCache(ctx context.Context) (services.ICacheService, error) {
	cfg := a.Config
	switch cfg.Cache.Backend {
	case "none":
		return nil, nil
	case "redis":
		c, err := services.NewRedisCacheService(cfg.Redis.URL, cfg.Redis.Prefix, cfg.Cache.TTL, a.Logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "mongo":
		c, err := services.NewMongoCacheService(a.mongo.Database(cfg.Mongo.Database), cfg.Cache.L1Size, cfg.Cache.TTL, a.Logger)
		if err != nil {
			return nil, err
		}
		if err := c.WarmUp(ctx, cfg.Cache.L1Size); err != nil {
			a.Logger.Warn("Cache warm up failed", zap.Error(err))
		}
		return c, nil
	case "hybrid":
		l1, err := services.NewRedisCacheService(cfg.Redis.URL, cfg.Redis.Prefix, cfg.Cache.TTL, a.Logger)
		if err != nil {
			return nil, err
		}
		l2, err := services.NewMongoCacheService(a.mongo.Database(cfg.Mongo.Database), cfg.Cache.L1Size, cfg.Cache.TTL, a.Logger)
		if err != nil {
			l1.Close()
			return nil, err
		}
		return services.NewHybridCacheService(l1, l2, a.Logger), nil
	}
	return services.NewCacheService(cfg.Cache.L1Size, cfg.Cache.TTL), nil
}

// Router returns the HTTP handler with every route installed.
func (a *App) Router() *gin.Engine {
	if a.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return routes.NewRouter(routes.Controllers{
		Address: controllers.NewAddressController(a.Address, a.Jobs, a.Logger),
		Format:  controllers.NewFormatController(a.Format),
		Admin:   controllers.NewAdminController(a.Address, a.Jobs, a.Classifier, a.Logger),
	}, a.Logger)
}

// Close stops jobs and releases backend connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Jobs != nil {
		errs = append(errs, a.Jobs.Shutdown(ctx))
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.mongo != nil {
		errs = append(errs, a.mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}
