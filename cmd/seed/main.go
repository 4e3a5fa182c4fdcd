package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/liquidguard/shop/internal/catalog"
	"github.com/liquidguard/shop/internal/config"
	"github.com/liquidguard/shop/internal/postgres"
)

var features = []string{
	"Instant puncture repair",
	"Eco-friendly formula",
	"Works with all tyre types",
	"Long-lasting protection",
}

var products = []catalog.Product{
	{
		Name:        "Tyre Anti-Puncture Liquid",
		Description: "Professional-grade tyre sealant that prevents and repairs punctures instantly. Safe for all tyre types.",
		Size:        catalog.Size200ml,
		Price:       decimal.RequireFromString("12.99"),
		ImageURL:    "/assets/product-200ml.png",
		Stock:       100,
		Popular:     false,
		Features:    features,
	},
	{
		Name:        "Tyre Anti-Puncture Liquid",
		Description: "Our most popular size! Professional-grade tyre sealant for everyday protection.",
		Size:        catalog.Size300ml,
		Price:       decimal.RequireFromString("17.99"),
		ImageURL:    "/assets/product-300ml.png",
		Stock:       150,
		Popular:     true,
		Features:    features,
	},
	{
		Name:        "Tyre Anti-Puncture Liquid",
		Description: "Premium protection for your vehicle. Best value for money!",
		Size:        catalog.Size500ml,
		Price:       decimal.RequireFromString("24.99"),
		ImageURL:    "/assets/product-500ml.png",
		Stock:       120,
		Popular:     true,
		Features:    features,
	},
	{
		Name:        "Tyre Anti-Puncture Liquid",
		Description: "Maximum protection for heavy-duty vehicles and commercial use.",
		Size:        catalog.Size1L,
		Price:       decimal.RequireFromString("39.99"),
		ImageURL:    "/assets/product-1l.png",
		Stock:       80,
		Popular:     false,
		Features:    features,
	},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	store := &catalog.PGStore{DB: db}
	for i := range products {
		p := products[i]
		if err := store.Create(ctx, &p); err != nil {
			log.Fatalf("seed %s: %v", p.Size, err)
		}
		log.Printf("seeded %s (%s) stock=%d", p.Name, p.Size, p.Stock)
	}
}
