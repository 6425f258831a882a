package database

import (
	"fmt"
	"log"

	"storefront/internal/model"
	"storefront/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var db *gorm.DB

// InitDB initializes the base database connection and migrates the
// platform-level registry tables. Per-tenant tables are migrated later,
// when each scope is provisioned.
func InitDB(appConfig *config.Config) (*gorm.DB, error) {
	var err error

	logLevel := logger.Error
	if appConfig.Server.Env == "development" {
		logLevel = logger.Info
	}

	// Configure Postgres options
	pgConfig := postgres.Config{
		DSN:                  appConfig.DB.GetDSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	// Open connection
	db, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return nil, err
	}

	// Get generic database object SQL
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get database object: %v", err)
		return nil, err
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(appConfig.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(appConfig.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(appConfig.DB.ConnMaxLifetime)

	// Registry tables live in the default (public) schema
	if err := db.AutoMigrate(&model.Tenant{}); err != nil {
		return nil, fmt.Errorf("failed to run registry migrations: %w", err)
	}

	return db, nil
}

// OpenScope returns a gorm session bound to one tenant's schema. It shares
// the base connection pool; isolation comes from the table prefix, which
// qualifies every generated statement with the scope's schema name.
//
// The caller is responsible for validating scopeID before it reaches SQL.
func OpenScope(base *gorm.DB, scopeID string) (*gorm.DB, error) {
	sqlDB, err := base.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	scoped, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: base.Config.Logger,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: scopeID + ".",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open scope %s: %w", scopeID, err)
	}
	return scoped, nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}
