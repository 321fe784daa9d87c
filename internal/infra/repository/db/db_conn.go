package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ConnOption func(*gorm.Config)

func WithLogLevel(level logger.LogLevel) ConnOption {
	return func(c *gorm.Config) {
		c.Logger = logger.Default.LogMode(level)
	}
}

func GetDbConn(dbname, host, port, user, pas string, opts ...ConnOption) (*gorm.DB, error) {
	// 資料來源名稱 (DSN)
	dsn := fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable", user, pas, host, port, dbname)
	return OpenDSN(dsn, opts...)
}

func OpenDSN(dsn string, opts ...ConnOption) (*gorm.DB, error) {
	cfg := &gorm.Config{
		// unique violation 轉成 gorm.ErrDuplicatedKey
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// 連線到資料庫
	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
