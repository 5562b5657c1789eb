package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kellerman81/go_movie_catalog/config"
	"github.com/Kellerman81/go_movie_catalog/database"
	"github.com/Kellerman81/go_movie_catalog/logger"
	"github.com/Kellerman81/go_movie_catalog/populate"
	"github.com/Kellerman81/go_movie_catalog/repository"
)

var version = "dev"
var buildstamp string
var githash string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.LogError(err, "Catalog startup failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if written, err := config.WriteDefault(config.Configfile); err != nil {
		fmt.Fprintln(os.Stderr, "write default config:", err)
		return err
	} else if written {
		fmt.Println("Default configuration written to", config.Configfile)
	}

	cfg, err := config.Load(config.Configfile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return err
	}

	logger.InitLogger(logger.Config{
		LogLevel:      cfg.General.LogLevel,
		LogFile:       cfg.General.LogFile,
		LogFileSize:   cfg.General.LogFileSize,
		LogFileCount:  cfg.General.LogFileCount,
		LogCompress:   cfg.General.LogCompress,
		LogColorize:   cfg.General.LogColorize,
		LogToFileOnly: cfg.General.LogToFileOnly,
		TimeFormat:    cfg.General.TimeFormat,
		TimeZone:      cfg.General.TimeZone,
	})
	logger.LogDynamicany(logger.StrInfo, "Starting go_movie_catalog",
		logger.StrVersion, version, "buildstamp", buildstamp, "githash", githash)

	database.SetLogLevel(cfg.General.DBLogLevel)
	logger.LogDynamicany(logger.StrInfo, "Initialize Database", logger.StrDriver, cfg.Database.Driver)
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	repo := repository.NewSQLRepository(db)
	defer repo.Close()

	logger.LogDynamicany(logger.StrInfo, "Check Database for Upgrades")
	if err := db.Migrate(); err != nil {
		return err
	}

	if cfg.Data.PopulateOnStart {
		if _, loaded, err := populate.IfEmpty(ctx, db, cfg.Data.DatasetPath()); err != nil {
			return err
		} else if !loaded {
			logger.LogDynamicany(logger.StrInfo, "Skipping dataset load, catalog is not empty")
		}
	}
	database.LogTableCounts(ctx, db)

	n, err := repo.GetNumberOfMovies(ctx)
	if err != nil {
		return err
	}
	first, err := repo.GetFirstMovie(ctx)
	if err != nil {
		return err
	}
	last, err := repo.GetLastMovie(ctx)
	if err != nil {
		return err
	}
	fields := []any{logger.StrCount, n}
	if first != nil && last != nil {
		fields = append(fields, "first", first.Title, "last", last.Title)
	}
	logger.LogDynamicany(logger.StrInfo, "Catalog ready", fields...)
	return nil
}
