package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"store-rating-server/confs"
	"store-rating-server/db"
	"store-rating-server/logging"
	"store-rating-server/repositories"
	"store-rating-server/repositories/memory"
	"store-rating-server/server"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	repos, closeStorage, err := openStorage(cfg, log)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStorage()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run server
	if err := server.NewServer(cfg, repos, log).Start(ctx); err != nil {
		log.WithError(err).Error("server stopped with error")
	}
}

func openStorage(cfg *confs.Config, log *logrus.Logger) (server.Repositories, func(), error) {
	if cfg.Storage == confs.StorageMemory {
		log.Warn("Using in-memory storage; data is lost on exit")
		mem := memory.New()
		return server.Repositories{Users: mem.Users(), Stores: mem.Stores(), Ratings: mem.Ratings()}, func() {}, nil
	}

	// connect to database Postgres
	database, err := db.Connect(cfg, log)
	if err != nil {
		return server.Repositories{}, nil, err
	}
	repos := server.Repositories{
		Users:   repositories.NewUserPgRepository(database),
		Stores:  repositories.NewStorePgRepository(database),
		Ratings: repositories.NewRatingPgRepository(database),
	}
	closeDB := func() {
		if err := database.Close(); err != nil {
			log.WithError(err).Warn("closing database")
		}
	}
	return repos, closeDB, nil
}
