package app

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/bjo163/tienda/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if cfg.Debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		dbfile := cfg.Name
		if dbfile == "" {
			dbfile = "tienda.db"
		}
		if !path.IsAbs(dbfile) {
			dbfile = path.Join(workdir, "data", dbfile)
		}
		if err := os.MkdirAll(path.Dir(dbfile), 0o755); err != nil {
			zap.S().Errorf("create sqlite dir error: %v", err)
		}
		dialector = sqlite.Open(dbfile + "?_busy_timeout=5000&_foreign_keys=on")
	default:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		zap.S().Panicf("database connect error: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		zap.S().Panicf("database pool error: %v", err)
	}
	if cfg.Type == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(max(cfg.MaxConn, 1))
		sqlDB.SetMaxIdleConns(max(cfg.IdleConn, 1))
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db
}
