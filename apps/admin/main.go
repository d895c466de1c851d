package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/curriculum"
	"github.com/trezcool/mwalimu/core/planner"
	"github.com/trezcool/mwalimu/core/priority"
	"github.com/trezcool/mwalimu/core/timetable"
	emailsvc "github.com/trezcool/mwalimu/services/email"
	logsvc "github.com/trezcool/mwalimu/services/logger"
	"github.com/trezcool/mwalimu/storage/database"
	boiledrepos "github.com/trezcool/mwalimu/storage/database/sqlboiler"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds), conf)
	logger.Enable(!conf.Debug)

	if conf.Database.Engine == database.EngineMemory {
		logger.Fatal("admin commands need a SQL database: set DATABASE_ENGINE=postgres")
	}

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	curriculumSvc := curriculum.NewService(boiledrepos.NewCurriculumRepository(db), logger)
	timetableSvc := timetable.NewService(boiledrepos.NewTimetableRepository(db), curriculumSvc, logger)

	// start CLI
	cli := commandLine{
		db:      db,
		out:     os.Stdout,
		usrRepo: boiledrepos.NewUserRepository(db),
		plannerSvc: planner.NewService(
			conf,
			boiledrepos.NewPlanRepository(db),
			curriculumSvc,
			timetableSvc,
			priority.NewDeadlineRanker(),
			mailSvc,
			logger,
		),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
