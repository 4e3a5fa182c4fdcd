package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/liquidguard/shop/internal/catalog"
	"github.com/liquidguard/shop/internal/config"
	kafkax "github.com/liquidguard/shop/internal/kafka"
	"github.com/liquidguard/shop/internal/order"
	"github.com/liquidguard/shop/internal/payments"
	"github.com/liquidguard/shop/internal/postgres"
	"github.com/liquidguard/shop/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, order.TopicOrderStatus, 1024)
	pStatus.Start(ctx)

	catalogStore := &catalog.PGStore{DB: db}
	svc := &payments.Service{
		Orders: &order.Service{
			Store:          &order.PGStore{DB: db},
			Reserver:       &order.Reserver{Catalog: catalogStore},
			Redis:          rdb,
			StatusProducer: pStatus,
			ServiceName:    cfg.ServiceName + "-payments",
		},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-payments",
	}

	group := getenv("PAYMENTS_GROUP", "payments-svc")
	workers := mustAtoi(os.Getenv("PAYMENTS_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, order.TopicOrderPlaced, workers)

	go func() {
		log.Printf("payments consumer started: group=%s topic=%s workers=%d", group, order.TopicOrderPlaced, workers)
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pStatus.Close()
	pStatus.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
