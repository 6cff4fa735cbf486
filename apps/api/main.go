package main

import (
	"context"
	"fmt"
	"log"
	"os"
	_ "time/tzdata" // folio time zones on hosts without zoneinfo

	"github.com/jmoiron/sqlx"

	echoapi "github.com/kampus/backend/apps/api/echo"
	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/campus"
	"github.com/kampus/backend/core/folio"
	logsvc "github.com/kampus/backend/services/logger"
	metricsvc "github.com/kampus/backend/services/metrics"
	"github.com/kampus/backend/storage/database"
	"github.com/kampus/backend/storage/database/sqlxrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	loc, err := conf.Folio.Location()
	if err != nil {
		logger.Fatal(fmt.Sprintf("reading folio config: %v", err), err)
	}
	campusSvc := campus.NewService(sqlxrepos.NewCampusRepository(db))
	alloc := folio.NewAllocator(campusSvc, campusSvc, sqlxrepos.NewSequenceRepository(db, loc), metricsvc.NewFolioObserver(), loc)
	folioSvc := folio.NewService(db, alloc, sqlxrepos.NewTransactionRepository(db), sqlxrepos.NewExpenseRepository(db), logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := folio.NewValidator()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			FolioSvc:   folioSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(ctx, db); err != nil {
		return nil, err
	}

	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		return nil, err
	}
	return db, nil
}
