package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"store-rating-server/confs"
	"store-rating-server/entities"
	"store-rating-server/logging"
)

// DSN builds the Postgres connection string from DB_URL or the individual
// DB_* parameters.
func DSN(cfg *confs.Config) string {
	if cfg.DBURL != "" {
		dsn := cfg.DBURL
		// hosted databases need TLS unless told otherwise
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn
	}

	sslMode := "require"
	if cfg.DBHost == "localhost" || cfg.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, sslMode)
}

func Connect(cfg *confs.Config, log *logrus.Logger) (Database, error) {
	if cfg.DBURL != "" {
		log.Info("Connecting to database using DB_URL...")
	} else {
		log.Infof("Connecting to database %s:%s...", cfg.DBHost, cfg.DBPort)
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger:         logging.NewGormLogger(log, log.IsLevelEnabled(logrus.DebugLevel)),
		PrepareStmt:    true,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("Database connection established successfully!")

	log.Info("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Database migrations completed successfully!")

	return &GormDatabase{DB: db}, nil
}

// Migrate creates or updates the users, stores and ratings tables. The
// composite unique index on ratings backs the rating upsert.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.User{}, &entities.Store{}, &entities.Rating{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
