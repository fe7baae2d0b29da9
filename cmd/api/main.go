package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/admin"
	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/handler"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/member"
	"rollcall/internal/memstore"
	"rollcall/internal/metrics"
	"rollcall/internal/store"
)

const devSigningKey = "dev-signing-secret-change"

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.JWTSigningKey == devSigningKey {
			log.Fatal("JWT_SIGNING_KEY must be set in production")
		}
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

// stores groups the persistence backends the services run on.
type stores struct {
	members member.Store
	ledger  attendance.Store
	admins  admin.Store
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()
	checks := map[string]handler.Checker{}

	var st stores
	switch cfg.StoreBackend {
	case "memory":
		mem := memstore.New()
		st = stores{members: mem, ledger: mem, admins: mem}
		log.Println("using in-memory store, data is lost on restart")
	default:
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if db == nil {
			return err
		}
		if err != nil {
			log.Printf("warning: db not reachable: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			if err := store.Migrate(ctx, db.Client); err != nil {
				log.Printf("warning: migration failed: %v", err)
			}
		}
		st = stores{
			members: member.NewRepository(db.Client),
			ledger:  attendance.NewRepository(db.Client),
			admins:  admin.NewRepository(db.Client),
		}
		checks["db"] = db
	}

	var (
		limiter httpmiddleware.Limiter
		revoker auth.Revoker
	)
	if cfg.CacheBackend == "redis" {
		redisClient := store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		limiter = httpmiddleware.NewRedisLimiter(redisClient.Client, cfg.RateLimitPerMin)
		revoker = auth.NewRedisRevoker(redisClient.Client, "")
		checks["redis"] = redisClient
	} else {
		limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
		revoker = auth.NewMemoryRevoker()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	admins := admin.NewService(st.admins, m)
	h := handler.New(handler.Deps{
		Members:    member.NewService(st.members),
		Attendance: attendance.NewService(st.ledger, st.members, m),
		Admins:     admins,
		Auth: auth.NewManager(admins, st.admins, revoker, auth.Options{
			Issuer:     cfg.JWTIssuer,
			SigningKey: cfg.JWTSigningKey,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		}),
		SetupKey:      cfg.SetupKey,
		SecureCookies: cfg.Production(),
		Checks:        checks,
	})
	if cfg.SetupKey == "" {
		log.Println("setup endpoint disabled; create the first admin with cmd/createadmin or set SETUP_KEY")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", handler.SetupKeyHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 24 * time.Hour
	r.Use(cors.New(corsConfig))

	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(m.GinMiddleware())
	r.Use(httpmiddleware.RateLimit(limiter))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on :%s (store=%s cache=%s)", cfg.HTTPPort, cfg.StoreBackend, cfg.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Println("shutting down server...")

	// outstanding requests get 10 seconds
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}
