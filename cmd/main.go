package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/VP171097/vitality/config"
	"github.com/VP171097/vitality/middlewares"
	"github.com/VP171097/vitality/routes"
	"github.com/VP171097/vitality/services"
	"github.com/VP171097/vitality/utils"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()

	db, err := config.OpenDB(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("database init failed")
	}

	hub := services.NewRealtimeHub()
	alerts := services.NewAlertService(db, hub)

	var docs services.DocumentGateway
	if cfg.DocStore == "memory" {
		logrus.Warn("running with in-memory document store, documents are not persisted")
		docs = services.NewMemoryDocumentStore(hub)
	} else {
		docs = services.NewGormDocumentStore(db, hub)
	}

	var mailer *utils.Mailer
	if cfg.AWSRegion != "" && cfg.SESSender != "" {
		var err error
		mailer, err = utils.NewMailer(context.Background(), cfg.AWSRegion, cfg.SESSender)
		if err != nil {
			logrus.WithError(err).Warn("mailer init failed, reset codes will be logged")
		}
	}

	ai := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel)
	steps := services.NewStepsService(cfg.GoogleFitToken)
	authSvc := services.NewAuthService(db, mailer)
	sessions := services.NewSessionManager(docs, ai, alerts)

	r := routes.SetupRouter(routes.Deps{
		Auth:     middlewares.AuthMiddleware(db),
		AuthSvc:  authSvc,
		Sessions: sessions,
		AI:       ai,
		Steps:    steps,
		Hub:      hub,
		Alerts:   alerts,
	})

	logrus.WithField("addr", cfg.Addr).Info("vitality listening")
	if err := r.Run(cfg.Addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
