package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/app"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/config"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
)

// init loads environment variables
func init() {
	_ = godotenv.Load()
}

type spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type specGroup struct {
	Category string `json:"category"`
	Items    []spec `json:"items"`
}

type demoProduct struct {
	Name        string
	Category    string
	Price       float64
	Status      string
	Specs       []spec
	SpecsDetail []specGroup
}

var demoCategories = []string{"Laptops", "Smartphones"}

var demoProducts = []demoProduct{
	{Name: "MacBook Air 13 M3", Category: "Laptops", Price: 1299, Status: models.ProductStatusActive, Specs: macbookSpecs, SpecsDetail: macbookDetail},
	{Name: "Dell XPS 15", Category: "Laptops", Price: 1899, Status: models.ProductStatusActive, Specs: xpsSpecs, SpecsDetail: xpsDetail},
	{Name: "Acer Swift 3", Category: "Laptops", Price: 649, Status: models.ProductStatusActive, Specs: swiftSpecs},
	{Name: "Lenovo ThinkPad X1", Category: "Laptops", Price: 1599, Status: models.ProductStatusDraft, Specs: thinkpadSpecs},
	{Name: "Galaxy S24", Category: "Smartphones", Price: 899, Status: models.ProductStatusActive, Specs: galaxySpecs},
	{Name: "Pixel 8", Category: "Smartphones", Price: 699, Status: models.ProductStatusActive, Specs: pixelSpecs},
}

var (
	macbookSpecs  = []spec{{"Brand", "Apple"}, {"RAM", "16GB"}, {"Storage", "512GB SSD"}, {"Screen Size", "13.6 inch"}}
	macbookDetail = []specGroup{{Category: "Processor", Items: []spec{{"Chip", "Apple M3"}}}}

	xpsSpecs  = []spec{{"Brand", "Dell"}, {"RAM", "32GB"}, {"Storage", "1TB SSD"}, {"Screen Size", "15.6 inch"}}
	xpsDetail = []specGroup{
		{Category: "Processor", Items: []spec{{"Processor", "Intel Core i7"}}},
		{Category: "Graphics", Items: []spec{{"GPU Brand", "NVIDIA"}}},
	}

	swiftSpecs    = []spec{{"Brand", "Acer"}, {"RAM", "8GB"}, {"Storage", "256GB SSD"}, {"Operating System", "Windows 11"}}
	thinkpadSpecs = []spec{{"Brand", "Lenovo"}, {"RAM", "16GB"}}
	galaxySpecs   = []spec{{"Brand", "Samsung"}, {"RAM", "8GB"}, {"Camera", "50MP"}, {"Battery", "4000 mAh"}}
	pixelSpecs    = []spec{{"Brand", "Google"}, {"RAM", "8GB"}, {"Camera", "50MP"}, {"Battery", "4575 mAh"}}
)

// main loads a demo catalog and runs a full facet sync.
// Usage: go run cmd/seed/main.go
func main() {
	fmt.Println("════════════════════════════════════════════════════════════")
	fmt.Println("MODEVA CATALOG FILTERS - Demo Catalog Seeder")
	fmt.Println("════════════════════════════════════════════════════════════")

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log.Level, "console")
	log := logger.WithComponent("seed")

	a, err := app.New(cfg, prometheus.NewRegistry())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer a.Close()
	ctx := context.Background()

	categories := make(map[string]uuid.UUID, len(demoCategories))
	for _, name := range demoCategories {
		id, err := ensureCategory(ctx, a.DB, name)
		if err != nil {
			log.Fatal().Err(err).Str("category", name).Msg("failed to seed category")
		}
		categories[name] = id
	}

	created := 0
	for _, p := range demoProducts {
		var existing models.Product
		err := a.DB.WithContext(ctx).Where("name = ?", p.Name).First(&existing).Error
		if err == nil {
			log.Info().Str("product", p.Name).Msg("already present, skipping")
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatal().Err(err).Msg("database error")
		}

		categoryID := categories[p.Category]
		specs, _ := json.Marshal(p.Specs)
		req := models.ProductRequest{
			Name:        p.Name,
			Description: p.Name + " demo product",
			Price:       p.Price,
			CategoryID:  &categoryID,
			Status:      p.Status,
			Specs:       specs,
		}
		if len(p.SpecsDetail) > 0 {
			req.SpecsDetail, _ = json.Marshal(p.SpecsDetail)
		}
		if _, err := a.Products.CreateProduct(ctx, req); err != nil {
			log.Fatal().Err(err).Str("product", p.Name).Msg("failed to create product")
		}
		created++
	}
	log.Info().Int("created", created).Msg("products seeded")

	report, err := a.Sync.SyncFilterOptionsFromProducts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("filter sync failed")
	}

	fmt.Println()
	fmt.Println("✅ Demo catalog ready")
	fmt.Printf("   Products scanned: %d\n", report.ProductsScanned)
	fmt.Printf("   Options created:  %d\n", report.Created)
	fmt.Printf("   Keys created:     %d\n", report.KeysCreated)
}

func ensureCategory(ctx context.Context, db *gorm.DB, name string) (uuid.UUID, error) {
	var c models.Category
	err := db.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if err == nil {
		return c.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}
	c = models.Category{ID: uuid.Must(uuid.NewV7()), Name: name, Status: "Active"}
	if err := db.WithContext(ctx).Create(&c).Error; err != nil {
		return uuid.Nil, err
	}
	return c.ID, nil
}
