package database

import (
	"sync"
	"time"

	"ai-derm-assistant/config"
	"ai-derm-assistant/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

var (
	db   *gorm.DB
	dbMu sync.Mutex
)

// connect opens the DB, applies pool configuration and registers the read
// replica when one is configured.
func connect() (*gorm.DB, error) {
	conn, err := gorm.Open(mysql.Open(config.Cfg.Dns), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if replica := config.Cfg.Database.ReplicaDns; replica != "" {
		if err := conn.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{mysql.Open(replica)},
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, err
		}
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(config.Cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.Cfg.Database.MaxOpenConns)
	lifetime := time.Duration(config.Cfg.Database.MaxLifetime) * time.Minute
	sqlDB.SetConnMaxIdleTime(lifetime)
	sqlDB.SetConnMaxLifetime(lifetime)

	return conn, nil
}

// ensureConnection verifies DB connectivity and reconnects if needed.
func ensureConnection() error {
	if db == nil {
		conn, err := connect()
		if err != nil {
			logger.Error(err, "database: failed to connect")
			return err
		}
		db = conn
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		conn, err := connect()
		if err != nil {
			logger.Error(err, "database: failed to reconnect")
			return err
		}
		db = conn
	}
	return nil
}

// GetDB returns a healthy *gorm.DB, attempting reconnect if necessary.
func GetDB() (*gorm.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()
	if err := ensureConnection(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for all registered models.
func Migrate(models ...any) error {
	conn, err := GetDB()
	if err != nil {
		return err
	}
	return conn.AutoMigrate(models...)
}
