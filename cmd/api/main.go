package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-stock-allocation/internal/allocation"
	"github.com/ariefcatur/go-stock-allocation/internal/config"
	"github.com/ariefcatur/go-stock-allocation/internal/dispatch"
	"github.com/ariefcatur/go-stock-allocation/internal/httpx"
	kafkax "github.com/ariefcatur/go-stock-allocation/internal/kafka"
	"github.com/ariefcatur/go-stock-allocation/internal/notify"
	"github.com/ariefcatur/go-stock-allocation/internal/postgres"
	"github.com/ariefcatur/go-stock-allocation/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("db schema: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer untuk out-of-stock notifications
	prod := kafkax.NewProducer(cfg.KafkaBrokers, allocation.TopicOutOfStock, 1024, log)
	prod.Start(ctx)

	repo := &allocation.Repo{DB: db, Log: log}
	disp := &dispatch.Dispatcher{
		Store:    repo,
		Notifier: &notify.Kafka{Producer: prod, Service: cfg.ServiceName, Log: log},
		Log:      log,
	}

	router := httpx.NewRouter()
	h := &httpx.AllocationsHandler{
		Dispatcher: disp,
		Batches:    repo,
		Redis:      rdb,
		Service:    cfg.ServiceName,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Infof("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // tutup inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
