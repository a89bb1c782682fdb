package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/videowall/server/internal/catalog"
	"github.com/videowall/server/internal/controller"
	viewconfigredis "github.com/videowall/server/internal/repository/viewconfig/redis"
	"github.com/videowall/server/internal/service/wall"
	"github.com/videowall/server/internal/syncer"
	"github.com/videowall/server/pkg/ctxlogger"
	"github.com/videowall/server/pkg/redisclient"
)

type AppConfig struct {
	Host              string   `json:"host"`
	Port              int      `json:"port"`
	LogLevel          string   `json:"log_level"`
	CatalogURLs       []string `json:"catalog_urls"`
	HeartbeatInterval int      `json:"heartbeat_interval_ms"`
	RedisPort         int      `json:"redis_port"`
	RedisHost         string   `json:"redis_host"`
	RedisPassword     string   `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if len(cfg.CatalogURLs) == 0 {
		return fmt.Errorf("at least one catalog url is required")
	}
	if cfg.HeartbeatInterval < 1 {
		return fmt.Errorf("heartbeat interval must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	viewConfigRepo := viewconfigredis.NewRepo(rc)
	catalogLoader := catalog.NewLoader(cfg.CatalogURLs, logger)
	dispatcher := controller.NewDispatcher()

	syncCfg := syncer.DefaultConfig()
	syncCfg.HeartbeatInterval = time.Duration(cfg.HeartbeatInterval) * time.Millisecond

	wallService := wall.NewService(viewConfigRepo, catalogLoader, dispatcher, syncCfg, logger)
	defer wallService.Close()

	ctrl := controller.NewController(wallService, dispatcher, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
