package main

import (
	"log"
	"os"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	logsvc "github.com/KushalGupta-07/Smart-Admission-System/services/logger"
	"github.com/KushalGupta-07/Smart-Admission-System/storage/database"
	sqlxrepos "github.com/KushalGupta-07/Smart-Admission-System/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	// start CLI
	cli := commandLine{
		db:      db.DB,
		usrRepo: sqlxrepos.NewUserRepository(db),
		appRepo: sqlxrepos.NewApplicationRepository(db),
		out:     os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
