package main

import (
	"context"
	"fmt"
	"log"
	"os"
	_ "time/tzdata" // folio time zones on hosts without zoneinfo

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/campus"
	"github.com/kampus/backend/core/folio"
	logsvc "github.com/kampus/backend/services/logger"
	metricsvc "github.com/kampus/backend/services/metrics"
	"github.com/kampus/backend/storage/database"
	"github.com/kampus/backend/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Ping(context.Background(), db); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	// set up services
	loc, err := conf.Folio.Location()
	if err != nil {
		logger.Fatal(fmt.Sprintf("reading folio config: %v", err), err)
	}
	campusSvc := campus.NewService(sqlxrepos.NewCampusRepository(db))
	alloc := folio.NewAllocator(campusSvc, campusSvc, sqlxrepos.NewSequenceRepository(db, loc), metricsvc.NewFolioObserver(), loc)
	folioSvc := folio.NewService(db, alloc, sqlxrepos.NewTransactionRepository(db), sqlxrepos.NewExpenseRepository(db), logger)

	// start CLI
	cli := &commandLine{
		db:        db,
		engine:    conf.Database.Engine,
		campusSvc: campusSvc,
		folioSvc:  folioSvc,
		logger:    logger,
	}
	err = newRootCommand(cli).Execute()
	if cErr := db.Close(); cErr != nil {
		logger.Error("closing database", cErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
