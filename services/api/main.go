package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/marathon-tracker/internal/extract"
	"github.com/02loveslollipop/marathon-tracker/internal/logger"
	"github.com/02loveslollipop/marathon-tracker/internal/tracker"
	"github.com/02loveslollipop/marathon-tracker/services/api/config"
	httpserver "github.com/02loveslollipop/marathon-tracker/services/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	log := logger.Init(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	logger.WithService(log, "api").WithField("env", cfg.Env).Info("Starting REST API")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	course, err := cfg.Course()
	if err != nil {
		log.WithError(err).Fatal("course error")
	}

	source := extract.NewSource(cfg.SourceConfig(), log)
	tr := tracker.New(course, source, log)

	srv := httpserver.New(cfg, tr, log)
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
