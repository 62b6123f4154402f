package app

import (
	"github.com/bjo163/tienda/config"
	"github.com/bjo163/tienda/internal/repository"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// StoreProvider provides the repositories the services run on
type StoreProvider interface {
	Store() repository.Store
}

// AppContext combines all provider interfaces for full application context
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	StoreProvider

	MigrateDB(track bool) error
	InitDb()
	DropAll()
	// PurgeWebhookLog drops delivery log rows past the retention window
	PurgeWebhookLog()
}
