package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"battery-revenue/internal/api/handlers"
	"battery-revenue/internal/api/middleware"
	"battery-revenue/internal/api/store"
	"battery-revenue/internal/config"
	"battery-revenue/internal/logger"
	"battery-revenue/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	log := logger.GetLogger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	cfg, err := config.Load(os.Getenv("REVENUE_CONFIG"))
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAgeDays); err != nil {
		log.WithError(err).Fatal("Failed to configure logger")
	}

	if cfg.API.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	results := store.NewResultStore(cfg.API.ResultTTL)
	if cfg.API.ResultTTL > 0 {
		results.StartCleanup(ctx, cfg.API.ResultTTL)
	}

	router := newRouter(cfg, results, m, log)

	addr := fmt.Sprintf(":%s", cfg.API.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	log.WithFields(logger.Fields{"addr": addr, "env": cfg.API.Env}).Info("Starting API server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Failed to start server")
	}
	log.Info("Server stopped")
}

func newRouter(cfg *config.Config, results *store.ResultStore, m *metrics.Metrics, log *logger.Log) *gin.Engine {
	router := gin.New()

	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.API.AllowedOrigins))

	revenueHandler := handlers.NewRevenueHandler(cfg, results, m, log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/revenue", revenueHandler.CalculateRevenue)
		api.GET("/revenue/:id", revenueHandler.GetResult)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
