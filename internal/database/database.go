package database

import (
	"context"
	"fmt"

	"github.com/bitfantasy/workorder/internal/config"
	"github.com/bitfantasy/workorder/internal/entity"
	"github.com/bitfantasy/workorder/internal/retry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 打开目标库连接池
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

// EnsureDatabase 目标库不存在时创建，幂等。走维护库 postgres 连接。
func EnsureDatabase(cfg config.DatabaseConfig) error {
	maintDSN := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=postgres sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(maintDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to maintenance database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM pg_database WHERE datname = ?", cfg.DBName).
		Scan(&count).Error; err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if count == 0 {
		// CREATE DATABASE 不支持参数绑定，库名来自配置而非请求
		if err := db.Exec(fmt.Sprintf("CREATE DATABASE %q", cfg.DBName)).Error; err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}
	return nil
}

// Migrate 幂等建表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.WorkOrder{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Bootstrap 建库、连接、建表，按线性退避重试。耗尽后返回错误，进程不得对外服务。
func Bootstrap(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	policy := retry.NewPolicy(cfg.BootstrapAttempts, cfg.BootstrapInterval)

	var db *gorm.DB
	err := policy.Do(ctx, func(ctx context.Context) error {
		if err := EnsureDatabase(cfg); err != nil {
			log.Warn("database bootstrap attempt failed", zap.Error(err))
			return err
		}
		conn, err := Open(cfg)
		if err != nil {
			log.Warn("database bootstrap attempt failed", zap.Error(err))
			return err
		}
		if err := Migrate(conn); err != nil {
			log.Warn("database bootstrap attempt failed", zap.Error(err))
			closeDB(conn)
			return err
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("database bootstrap: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
