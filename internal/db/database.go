package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"docuvault/document-portal/document-portal-backend/internal/audit"
	"docuvault/document-portal/document-portal-backend/internal/config"
	"docuvault/document-portal/document-portal-backend/internal/documents"
	"docuvault/document-portal/document-portal-backend/internal/permissions"
)

// Connect opens the postgres connection, configures pooling and migrates the
// workflow engine schema.
func Connect(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)
	} else {
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := gormDB.AutoMigrate(
		&documents.Document{},
		&documents.DocumentVersion{},
		&documents.VersionAttachment{},
		&documents.DocumentReview{},
		&documents.WorkflowHistoryEntry{},
		&documents.DocumentSequence{},
		&permissions.FolderPermission{},
		&audit.Entry{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return gormDB, nil
}
