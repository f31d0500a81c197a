package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-stock-allocation/internal/allocation"
	"github.com/ariefcatur/go-stock-allocation/internal/allocator"
	"github.com/ariefcatur/go-stock-allocation/internal/config"
	"github.com/ariefcatur/go-stock-allocation/internal/dispatch"
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
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("db schema: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: out-of-stock notifications
	prod := kafkax.NewProducer(cfg.KafkaBrokers, allocation.TopicOutOfStock, 1024, log)
	prod.Start(ctx)

	repo := &allocation.Repo{DB: db, Log: log}
	svc := &allocator.Service{
		Dispatcher: &dispatch.Dispatcher{
			Store:    repo,
			Notifier: &notify.Kafka{Producer: prod, Service: cfg.ServiceName + "-allocator", Log: log},
			Log:      log,
		},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-allocator",
		Log:         log,
	}

	// Consumers: allocate commands dan batch intake, handler yang sama
	topics := []string{allocation.TopicAllocateRequired, allocation.TopicBatchCreate}
	for _, topic := range topics {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, topic, cfg.Workers, log)
		go func(topic string) {
			log.Infow("allocator consumer started", "group", cfg.ConsumerGroup, "topic", topic, "workers", cfg.Workers)
			if err := cons.Start(ctx, svc.HandleCommand); err != nil {
				log.Errorw("consumer exit", "topic", topic, "err", err)
				cancel()
			}
		}(topic)
	}

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down allocator...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}
