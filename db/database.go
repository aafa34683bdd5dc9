package db

import (
	"context"

	"gorm.io/gorm"
)

// Database is the data-access handle shared by the repositories. It is built
// once at startup and closed on shutdown.
type Database interface {
	GetDB() *gorm.DB
	Ping(ctx context.Context) error
	Close() error
}

type GormDatabase struct {
	DB *gorm.DB
}

func (g *GormDatabase) GetDB() *gorm.DB { return g.DB }

func (g *GormDatabase) Ping(ctx context.Context) error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *GormDatabase) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
