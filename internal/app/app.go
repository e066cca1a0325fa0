package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkravets/valvecalc-backend/internal/adapter/postgres"
	"github.com/mkravets/valvecalc-backend/internal/adapter/postgres/audit"
	calcrepo "github.com/mkravets/valvecalc-backend/internal/adapter/postgres/calc"
	userrepo "github.com/mkravets/valvecalc-backend/internal/adapter/postgres/user"
	"github.com/mkravets/valvecalc-backend/internal/auth"
	"github.com/mkravets/valvecalc-backend/internal/config"
	"github.com/mkravets/valvecalc-backend/internal/domain"
	authsvc "github.com/mkravets/valvecalc-backend/internal/service/auth"
	"github.com/mkravets/valvecalc-backend/internal/service/calc"
	"github.com/mkravets/valvecalc-backend/internal/service/library"
	"github.com/mkravets/valvecalc-backend/internal/transport/middleware"
	"github.com/mkravets/valvecalc-backend/internal/transport/rest"
)

// Run is the application entry point: load configuration, connect to
// PostgreSQL, assemble repositories and services, and serve HTTP until the
// context is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	// Repositories. All calc repos share one column cache, so each
	// calculation family is probed for the parent-design column at most once.
	cols := calcrepo.NewColumnCache()
	calcRepos := make([]*calcrepo.Repo, 0, len(domain.CalcTypes))
	for _, typ := range domain.CalcTypes {
		calcRepos = append(calcRepos, calcrepo.New(pool, typ, cols))
	}
	auditSink := audit.NewSink(pool, logger)
	users := userrepo.New(pool)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	// Services.
	calcService := calc.NewService(logger, auditSink, cfg.Library, asCalcRepos(calcRepos)...)
	libraryService := library.NewService(logger, users, auditSink, cfg.Library, asLibraryRepos(calcRepos)...).
		WithAuditLog(auditSink)
	authService := authsvc.NewService(logger, users, jwtManager)

	// Transport.
	handlers := rest.Handlers{
		Auth:    rest.NewAuthHandler(authService, logger),
		Calc:    rest.NewCalcHandler(calcService, logger),
		Library: rest.NewLibraryHandler(libraryService, logger),
		Admin:   rest.NewAdminHandler(libraryService, logger),
		Health:  rest.NewHealthHandler(pool, BuildVersion()),
	}
	limiter := middleware.NewRateLimiter(5 * time.Minute)
	defer limiter.Stop()

	router := rest.NewRouter(logger, rest.RouterConfig{
		CORS:               cfg.CORS,
		Limiter:            limiter,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
	}, jwtManager, handlers)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

// The service constructors take their own narrow repo interfaces, so the
// concrete slice needs converting per consumer.

func asCalcRepos(repos []*calcrepo.Repo) []calc.Repo {
	out := make([]calc.Repo, 0, len(repos))
	for _, r := range repos {
		out = append(out, r)
	}
	return out
}

func asLibraryRepos(repos []*calcrepo.Repo) []library.Repo {
	out := make([]library.Repo, 0, len(repos))
	for _, r := range repos {
		out = append(out, r)
	}
	return out
}
