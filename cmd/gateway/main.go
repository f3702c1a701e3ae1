package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	api "github.com/bandprep/bandprep-api/internal/api/http"
	"github.com/bandprep/bandprep-api/internal/audit"
	auth "github.com/bandprep/bandprep-api/internal/auth/middleware"
	"github.com/bandprep/bandprep-api/internal/config"
	"github.com/bandprep/bandprep-api/internal/db"
	"github.com/bandprep/bandprep-api/internal/exam"
	"github.com/bandprep/bandprep-api/internal/rbac"
)

func main() {
	cfg := config.FromEnv()

	log := newLogger(cfg.LogLevel)
	defer log.Sync()

	// --- Store ---
	var store exam.Store
	var events audit.Recorder = audit.Nop{}
	if cfg.DBDriver == "memory" {
		store = exam.NewInMemoryStore()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatal("db open failed", zap.Error(err))
		}
		store = exam.NewSQLStore(dbh)
		events = audit.NewEventRepo(dbh, cfg.SiteID)
	}

	svc := exam.NewService(store, events, log, exam.WithBandProfile(cfg.BandProfile))

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)
	loginOpts := auth.LocalLoginOpts{
		AdminUser:     cfg.AdminUser,
		AdminPassHash: cfg.AdminPassHash,
		EnableDemo:    cfg.EnableDemoLogin,
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(api.RequestLogger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, loginOpts))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("test:create")).
			Post("/tests", api.UploadTestHandler(store))
		pr.With(rbac.Require("test:view")).
			Get("/tests", api.ListTestsHandler(store))
		pr.With(rbac.Require("test:view")).
			Get("/tests/{testID}", api.GetTestHandler(store))

		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.CreateAttemptHandler(store))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(store))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(store))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}/answers", api.ListAnswersHandler(store))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(svc))

		pr.With(rbac.Require("attempt:answer")).
			Post("/attempt-sections/{attemptSectionID}/questions/{questionID}/grade", api.GradeDictationHandler(svc))
	})

	log.Info("gateway listening", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := zcfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return log
}
