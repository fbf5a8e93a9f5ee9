package main

import (
	"context"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"

	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/database"
	"github.com/taleweave/taleweave/pkg/migrations"
	"github.com/taleweave/taleweave/pkg/server"
	"github.com/taleweave/taleweave/pkg/version"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting taleweave", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		log.Err(err).Fatal("uploads directory error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	deps, err := server.NewDependencies(cfg)
	if err != nil {
		log.Err(err).Fatal("dependency error")
	}

	srv, err := server.New(cfg, db, deps)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
