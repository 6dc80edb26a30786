package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/niksmo/e-label/config"
	"github.com/niksmo/e-label/internal/adapter"
	"github.com/niksmo/e-label/internal/adapter/auth"
	"github.com/niksmo/e-label/internal/adapter/httphandler"
	"github.com/niksmo/e-label/internal/adapter/kafka"
	"github.com/niksmo/e-label/internal/adapter/labelqr"
	"github.com/niksmo/e-label/internal/adapter/objectstore"
	"github.com/niksmo/e-label/internal/adapter/seed"
	"github.com/niksmo/e-label/internal/adapter/spreadsheet"
	"github.com/niksmo/e-label/internal/adapter/storage"
	"github.com/niksmo/e-label/internal/core/port"
	"github.com/niksmo/e-label/internal/core/service"
	"github.com/niksmo/e-label/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type stores struct {
	products    port.ProductsStorage
	ingredients port.IngredientsStorage
	users       port.UsersStorage
}

type serdes struct {
	productEvent    schema.Serde
	ingredientEvent schema.Serde
	label           schema.Serde
}

type broker struct {
	tlsConfig *tls.Config
	serdes    serdes
	events    *kafka.CatalogEventsProducer
	labelProc *kafka.LabelProcessor
	labelView *kafka.LabelView
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	sqlDB      *storage.SQLDB
	stores     stores
	broker     broker
	service    service.Service
	idp        *auth.Provider
	labels     port.LabelReader
	renderer   *labelqr.Renderer
	httpServer httphandler.HTTPServer
	wg         *sync.WaitGroup
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg, wg: new(sync.WaitGroup)}

	app.initLogger()
	app.initStorage()
	if cfg.Broker.Enabled {
		app.initBroker()
	}
	app.initCoreService()
	app.initSeed()
	app.initAuth()
	app.initLabels()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	if app.cfg.Storage.Driver != config.DriverPostgres {
		memory := storage.NewMemoryStorage()
		app.stores = stores{memory, memory, memory}
		slog.Info("using in-memory storage", "op", op)
		return
	}

	sqlDB, err := storage.NewSQLDB(app.ctx, storage.SQLConfig{
		DSN: app.cfg.Storage.SQLDB,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.sqlDB = &sqlDB
	app.stores = stores{
		products:    storage.NewProductsRepository(sqlDB),
		ingredients: storage.NewIngredientsRepository(sqlDB),
		users:       storage.NewUsersRepository(sqlDB),
	}
}

func (app *App) initBroker() {
	const op = "App.initBroker"
	cfg := app.cfg.Broker

	if cfg.TLS.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(cfg.TLS.CA, cfg.TLS.Cert, cfg.TLS.Key)
		if err != nil {
			app.fallDown(op, err)
		}
		app.broker.tlsConfig = tlsConfig
		kafka.ApplyTLS(tlsConfig)
	}

	app.initSerdes()

	events, err := kafka.NewCatalogEventsProducer(
		kafka.ProducerClientOpt(app.ctx, cfg.SeedBrokers, app.broker.tlsConfig),
		kafka.ProductEventsOpt(cfg.Topics.ProductEvents, app.broker.serdes.productEvent),
		kafka.IngredientEventsOpt(cfg.Topics.IngredientEvents, app.broker.serdes.ingredientEvent),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.events = &events

	labelProc, err := kafka.NewLabelProcessor(kafka.LabelProcessorConfig{
		SeedBrokers: cfg.SeedBrokers,
		InputStream: cfg.Topics.ProductEvents,
		Group:       cfg.Groups.Labels,
		EventSerde:  app.broker.serdes.productEvent,
		LabelSerde:  app.broker.serdes.label,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.labelProc = labelProc

	labelView, err := kafka.NewLabelView(kafka.LabelViewConfig{
		SeedBrokers: cfg.SeedBrokers,
		Group:       cfg.Groups.Labels,
		LabelSerde:  app.broker.serdes.label,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.labelView = labelView
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	cfg := app.cfg.Broker

	schemaCreater, err := schema.NewSchemaCreater(
		cfg.SchemaRegistryURLs, app.broker.tlsConfig,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	identifier := schema.SchemaIdentifierOpt(schemaCreater)

	productEvent, err := schema.NewSerdeProductEventV1(
		app.ctx,
		schema.SubjectOpt(schema.Subject(cfg.Topics.ProductEvents)),
		identifier,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	ingredientEvent, err := schema.NewSerdeIngredientEventV1(
		app.ctx,
		schema.SubjectOpt(schema.Subject(cfg.Topics.IngredientEvents)),
		identifier,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	labelTable := kafka.GroupTableTopic(cfg.Groups.Labels)
	label, err := schema.NewSerdeProductV1(
		app.ctx,
		schema.SubjectOpt(schema.Subject(labelTable)),
		identifier,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.broker.serdes = serdes{
		productEvent:    productEvent,
		ingredientEvent: ingredientEvent,
		label:           label,
	}
}

func (app *App) initCoreService() {
	var events port.CatalogEventsPublisher
	if app.broker.events != nil {
		events = app.broker.events
	}
	app.service = service.New(
		app.stores.products,
		app.stores.ingredients,
		spreadsheet.New(),
		events,
	)
}

func (app *App) initSeed() {
	const op = "App.initSeed"
	log := slog.With("op", op)

	path := app.cfg.Storage.SeedFile
	if path == "" {
		return
	}

	f, err := seed.ReadFile(path)
	if err != nil {
		app.fallDown(op, err)
	}
	if err := seed.NewLoader(app.service, app.service).Load(app.ctx, f); err != nil {
		log.Error("seed data is partially loaded", "err", err)
		return
	}
	log.Info("seed data is loaded", "file", path)
}

func (app *App) initAuth() {
	const op = "App.initAuth"
	cfg := app.cfg.Auth

	idp, err := auth.NewProvider(
		app.stores.users,
		cfg.JWTSecret,
		auth.IssuerOpt(cfg.Issuer),
		auth.TokenTTLOpt(cfg.TokenTTL),
		auth.BcryptCostOpt(cfg.BcryptCost),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.idp = idp
}

func (app *App) initLabels() {
	const op = "App.initLabels"
	cfg := app.cfg.Label

	opts := []labelqr.Opt{
		labelqr.ServiceURLOpt(cfg.QRServiceURL),
		labelqr.SizeOpt(cfg.QRSize),
		labelqr.RequestsPerMinuteOpt(cfg.RequestsPerMinute),
	}

	if cfg.ObjectStore.Enabled {
		cache, err := objectstore.NewImageCache(app.ctx, objectstore.Config{
			Endpoint:  cfg.ObjectStore.Endpoint,
			AccessKey: cfg.ObjectStore.AccessKey,
			SecretKey: cfg.ObjectStore.SecretKey,
			Bucket:    cfg.ObjectStore.Bucket,
			Region:    cfg.ObjectStore.Region,
			UseSSL:    cfg.ObjectStore.UseSSL,
		})
		if err != nil {
			app.fallDown(op, err)
		}
		opts = append(opts, labelqr.CacheOpt(cache))
	}

	renderer, err := labelqr.NewRenderer(app.cfg.PublicBaseURL, opts...)
	if err != nil {
		app.fallDown(op, err)
	}
	app.renderer = renderer

	app.labels = app.service
	if app.broker.labelView != nil {
		app.labels = app.broker.labelView
	}
}

func (app *App) initInboundAdapters() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := httphandler.NewMetrics(registry)

	mux := http.NewServeMux()
	httphandler.RegisterProducts(mux, app.service, app.idp)
	httphandler.RegisterIngredients(mux, app.service, app.idp)
	httphandler.RegisterTransfer(mux, app.service, app.service, app.idp)
	httphandler.RegisterAuth(mux, app.idp)
	httphandler.RegisterLabels(mux, app.labels, app.renderer)
	httphandler.RegisterHealth(mux)
	httphandler.RegisterMetrics(mux, registry)

	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, metrics.Middleware(mux),
	)
}

func (app *App) Run(stopFn context.CancelFunc) {
	if app.broker.labelView != nil {
		go app.broker.labelView.Run(app.ctx)
	}
	if app.broker.labelProc != nil {
		app.wg.Add(1)
		go app.broker.labelProc.Run(app.ctx, stopFn, app.wg)
	}
	app.wg.Wait()

	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	if app.broker.labelProc != nil {
		app.broker.labelProc.Close()
	}
	if app.broker.events != nil {
		app.broker.events.Close()
	}
	if app.sqlDB != nil {
		app.sqlDB.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
