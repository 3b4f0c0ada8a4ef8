package config

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
)

// OpenDB connects GORM to Postgres. Unique violations surface as
// gorm.ErrDuplicatedKey so the store can report conflicts.
func OpenDB(cfg *Config) (*gorm.DB, error) {
	log := applog.WithComponent("database")

	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}
	if cfg.Database.URL == "" {
		log.Warn().Msg("CMS_DB_URL not set, using local GORM default")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("acquiring sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := WithTimeout()
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	log.Info().Msg("database connected (GORM)")
	return db, nil
}

func CloseDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
		applog.WithComponent("database").Info().Msg("database connection closed")
	}
}
