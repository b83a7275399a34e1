package main

import (
	"context"
	"errors"
	"github.com/maxaizer/medhire/internal/app"
	"github.com/maxaizer/medhire/internal/config"
	"github.com/maxaizer/medhire/internal/logger"
	"github.com/maxaizer/medhire/internal/metrics"
	"github.com/maxaizer/medhire/internal/repositories"
	log "github.com/sirupsen/logrus"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

func runServer(addr string, handler http.Handler) *http.Server {
	server := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Infof("http server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	}()
	return server
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.Register()

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	application, err := app.New(cfg, dbContext)
	if err != nil {
		log.Fatalf("can't create application: %v", err)
	}
	application.Start()

	server := runServer(cfg.Metrics.Addr, application.Handler())

	<-ctx.Done()

	log.Info("Shutting down services...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http server shutdown failed: %v", err)
	}
	application.Stop()
	log.Info("Services stopped.")
}
