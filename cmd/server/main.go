// Command server runs the covault API: user registration and sign-in,
// certificate CRUD, and the public token-based share flow.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	accountfeature "covault/internal/account"
	authhandler "covault/internal/auth/handler"
	authservice "covault/internal/auth/service"
	sessionstore "covault/internal/auth/store/session"
	userstore "covault/internal/auth/store/user"
	certhandler "covault/internal/certificate/handler"
	certmetrics "covault/internal/certificate/metrics"
	certservice "covault/internal/certificate/service"
	certstore "covault/internal/certificate/store"
	"covault/internal/jwttoken"
	"covault/internal/ownership"
	"covault/internal/platform/config"
	"covault/internal/platform/httpserver"
	"covault/internal/platform/logger"
	"covault/internal/platform/metrics"
	"covault/internal/platform/postgres"
	platformredis "covault/internal/platform/redis"
	httptransport "covault/internal/transport/http"
	userhandler "covault/internal/user/handler"
	userservice "covault/internal/user/service"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Warn("REDIS_URL not set, using in-memory session store")
	}

	processMetrics := metrics.New()
	certificateMetrics := certmetrics.New(prometheus.DefaultRegisterer)

	users := newUserStore(db)
	sessions := newSessionStore(redisClient)
	accounts := newAccountStore(db)
	certificates := newCertificateStore(db)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "covault", "covault-api")

	auth := authservice.New(users, sessions, tokens, cfg.SessionTTL, cfg.AccessTTL,
		authservice.WithLogger(log),
		authservice.WithMetrics(processMetrics),
	)
	profiles := userservice.New(users, auth, userservice.WithLogger(log))
	certs := certservice.New(certificates, accountfeature.NewProvisioner(accounts), ownership.NewChecker(accounts),
		certservice.WithLogger(log),
		certservice.WithMetrics(certificateMetrics),
	)

	healthChecks := map[string]httptransport.HealthChecker{}
	if db != nil {
		healthChecks["postgres"] = dbHealth{db}
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:         authhandler.New(auth, cfg.CookieSecure, log),
		Users:        userhandler.New(profiles, log),
		Certificates: certhandler.New(certs, log),
		Sessions:     auth,
		JWT:          jwttoken.NewJWTServiceAdapter(tokens),
		Logger:       log,
		HealthChecks: healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func newUserStore(db *sql.DB) authservice.UserStore {
	if db != nil {
		return userstore.NewPostgres(db)
	}
	return userstore.NewInMemory()
}

func newSessionStore(client *platformredis.Client) authservice.SessionStore {
	if client != nil {
		return sessionstore.NewRedis(client)
	}
	return sessionstore.NewInMemory()
}

func newAccountStore(db *sql.DB) accountfeature.Store {
	if db != nil {
		return accountfeature.NewPostgres(db)
	}
	return accountfeature.NewInMemory()
}

func newCertificateStore(db *sql.DB) certservice.CertificateStore {
	if db != nil {
		return certstore.NewPostgres(db)
	}
	return certstore.NewInMemory()
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
