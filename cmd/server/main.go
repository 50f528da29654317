package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bizadmin/internal/config"
	"github.com/Skotchmaster/bizadmin/internal/es"
	"github.com/Skotchmaster/bizadmin/internal/httpserver"
	mwauth "github.com/Skotchmaster/bizadmin/internal/middleware/auth"
	"github.com/Skotchmaster/bizadmin/internal/mykafka"
	"github.com/Skotchmaster/bizadmin/internal/repo"
	"github.com/Skotchmaster/bizadmin/internal/service"
	"github.com/Skotchmaster/bizadmin/internal/service/search"
	pkgdb "github.com/Skotchmaster/bizadmin/pkg/db"
	"github.com/Skotchmaster/bizadmin/pkg/logging"
	loggingmw "github.com/Skotchmaster/bizadmin/pkg/middleware/logging"
	"github.com/Skotchmaster/bizadmin/pkg/tokens"
)

func fatal(l *slog.Logger, msg string, err error) {
	l.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	cfg := config.Load()
	l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(l)

	if err := cfg.Validate(); err != nil {
		fatal(l, "config_invalid", err)
	}

	issuer, err := tokens.NewIssuer([]byte(cfg.SecretKey), cfg.Algorithm, cfg.AccessTTL)
	if err != nil {
		fatal(l, "token_issuer_init_failed", err)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		fatal(l, "db_init_failed", err)
	}
	gormRepo := &repo.GormRepo{DB: db}
	if err := gormRepo.Migrate(initCtx); err != nil {
		cancel()
		fatal(l, "db_migrate_failed", err)
	}

	var events mykafka.Publisher = mykafka.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			cancel()
			fatal(l, "kafka_init_failed", err)
		}
		events = prod
	} else {
		l.Info("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	authSvc := &service.AuthService{Repo: gormRepo, Tokens: issuer, Events: events, Topic: cfg.KafkaTopic}
	if cfg.ESURL != "" {
		client, err := es.NewClient(initCtx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword}, l)
		if err != nil {
			l.Warn("elasticsearch_disabled", "reason", "cluster unreachable", "error", err)
		} else {
			authSvc.Search = &search.UserIndex{ES: client, Index: cfg.ESIndex}
		}
	}
	cancel()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.HTTPErrorHandler
	e.IPExtractor = echo.ExtractIPDirect()
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.RequestID(),
		loggingmw.RequestLogger(l),
		middleware.Recover(),
		middleware.Secure(),
		middleware.BodyLimit("1M"),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
			AllowCredentials: true,
		}),
	)

	httpserver.Register(e, &httpserver.Deps{
		Auth:     mwauth.NewAuthenticator(issuer, gormRepo, cfg.LookupTimeout),
		Users:    &httpserver.AuthHTTP{Svc: authSvc},
		Students: &httpserver.StudentHTTP{Svc: &service.StudentService{Repo: gormRepo, Tokens: issuer, Events: events, Topic: cfg.KafkaTopic}},
		Limiter:  httpserver.NewLoginLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst),
		Ready:    func(ctx context.Context) error { return pkgdb.Ping(ctx, db) },
	})

	go func() {
		l.Info("server_starting", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(l, "server_failed", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		l.Error("server_shutdown_failed", "error", err)
	}
	closeAll(l, db, events)
	l.Info("shutdown_complete")
}

func closeAll(l *slog.Logger, db *gorm.DB, events mykafka.Publisher) {
	if err := events.Close(); err != nil {
		l.Error("kafka_close_failed", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		l.Error("db_close_failed", "error", err)
	}
}
