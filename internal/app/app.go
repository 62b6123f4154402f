package app

import (
	"os"
	"path"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/bjo163/tienda/config"
	"github.com/bjo163/tienda/internal/api"
	"github.com/bjo163/tienda/internal/catalog"
	"github.com/bjo163/tienda/internal/checkout"
	"github.com/bjo163/tienda/internal/customer"
	"github.com/bjo163/tienda/internal/domain"
	"github.com/bjo163/tienda/internal/mercadopago"
	"github.com/bjo163/tienda/internal/orderstatus"
	"github.com/bjo163/tienda/internal/repository"
	"github.com/bjo163/tienda/internal/webhook"
	"github.com/bjo163/tienda/internal/webserver"
	"github.com/bjo163/tienda/pkg/common"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig  *config.AppConfig
	gormDB     *gorm.DB
	sched      *cron.Cron
	store      repository.Store
	mp         *mercadopago.Client
	reconciler *webhook.Reconciler
	handlers   *api.Handlers
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ StoreProvider     = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Store() repository.Store {
	return a.store
}

// Init prepares logging and the database; it is enough for the migrate
// command. Start additionally wires services and jobs.
func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg)
	common.SetNodeSeed(cfg.System.Appid)

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}
}

func initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   logFilename(cfg),
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// logFilename falls back to tienda.log under the working directory.
func logFilename(cfg *config.AppConfig) string {
	if cfg.Logger.Filename != "" {
		return cfg.Logger.Filename
	}
	return path.Join(cfg.GetLogDir(), "tienda.log")
}

// Start wires the services over the database and starts the cron jobs.
func (a *Application) Start() {
	a.wire(repository.NewGormStore(a.gormDB))
	a.logProviderConfig()
	a.initJob()
}

func (a *Application) mercadoPagoConfig() mercadopago.Config {
	mp := a.appConfig.MercadoPago
	return mercadopago.Config{
		AccessToken:      mp.AccessToken,
		WebhookToken:     mp.WebhookToken,
		NotificationURL:  mp.NotificationURL,
		Currency:         mp.Currency,
		PublicBackendURL: a.appConfig.Web.PublicBackendURL,
		FrontendURL:      a.appConfig.Web.FrontendURL,
		BaseURL:          mp.ApiBase,
		Timeout:          time.Duration(mp.TimeoutSec) * time.Second,
	}
}

// wire builds every service on top of store.
func (a *Application) wire(store repository.Store) {
	a.store = store
	a.mp = mercadopago.NewClient(a.mercadoPagoConfig())

	customers := customer.NewRegistry(store.Customers())
	a.reconciler = webhook.NewReconciler(
		a.appConfig.MercadoPago.WebhookToken,
		a.mp,
		store.Orders(),
		store.Payments(),
		store.WebhookEvents(),
	)
	a.handlers = api.NewHandlers(
		customers,
		catalog.NewService(store.Products(), store.Categories()),
		checkout.NewService(store.Products(), customers, store.Orders(), a.mp),
		orderstatus.NewService(store.Orders(), store.Products(), store.Payments()),
		a.reconciler,
	)
}

// MountRoutes registers the public API on srv. Start must run first.
func (a *Application) MountRoutes(srv *webserver.WebServer) {
	a.handlers.Register(srv)
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	a.DropAll()
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
