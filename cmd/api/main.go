package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/liquidguard/shop/internal/cart"
	"github.com/liquidguard/shop/internal/catalog"
	"github.com/liquidguard/shop/internal/config"
	"github.com/liquidguard/shop/internal/httpx"
	kafkax "github.com/liquidguard/shop/internal/kafka"
	"github.com/liquidguard/shop/internal/order"
	"github.com/liquidguard/shop/internal/postgres"
	"github.com/liquidguard/shop/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per order lifecycle topic
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, order.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, order.TopicOrderCancelled, 1024)
	pCancelled.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, order.TopicOrderStatus, 1024)
	pStatus.Start(ctx)

	// Stores & services
	catalogStore := &catalog.PGStore{DB: db}
	cartSvc := &cart.Service{
		Store:    &cart.PGStore{DB: db},
		Products: catalogStore,
	}
	orderSvc := &order.Service{
		Store:             &order.PGStore{DB: db},
		Reserver:          &order.Reserver{Catalog: catalogStore},
		Carts:             cartSvc,
		Redis:             rdb,
		PlacedProducer:    pPlaced,
		CancelledProducer: pCancelled,
		StatusProducer:    pStatus,
		ServiceName:       cfg.ServiceName,
	}

	router := httpx.NewRouter()
	(&httpx.CatalogHandler{Store: catalogStore}).Register(router)
	(&httpx.CartHandler{Carts: cartSvc}).Register(router)
	(&httpx.OrdersHandler{Orders: orderSvc, Redis: rdb}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{pPlaced, pCancelled, pStatus} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{pPlaced, pCancelled, pStatus} {
		p.WaitClosed()
	}
}
