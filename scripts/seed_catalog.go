package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"geocms/internal/database"
	"geocms/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// CatalogConfig is the standalone seed file format: the same items and
// labs blocks the main config carries, without the rest of it.
type CatalogConfig struct {
	Items []models.Item `yaml:"items"`
	Labs  []models.Lab  `yaml:"labs"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		catalogPath = flag.String("catalog", "configs/catalog.yaml", "path to catalog yaml")
		dbPath      = flag.String("db", "./data/geocms.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*catalogPath)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var cfg CatalogConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	if len(cfg.Items) == 0 && len(cfg.Labs) == 0 {
		return fmt.Errorf("no items or labs in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	itemsCreated, itemsUpdated := 0, 0
	for _, it := range cfg.Items {
		if it.Name == "" {
			continue
		}
		existing, err := db.GetItemByName(ctx, it.Name)
		if err == nil {
			it.ID = existing.ID
			if err = db.UpdateItemMeta(ctx, &it); err != nil {
				return fmt.Errorf("update item %s: %w", it.Name, err)
			}
			itemsUpdated++
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("get item %s: %w", it.Name, err)
		}
		if err = db.CreateItem(ctx, &it); err != nil {
			return fmt.Errorf("create item %s: %w", it.Name, err)
		}
		itemsCreated++
	}

	labsCreated, labsUpdated := 0, 0
	for _, lab := range cfg.Labs {
		if lab.Name == "" {
			continue
		}
		existing, err := db.GetLabByName(ctx, lab.Name)
		if err == nil {
			lab.ID = existing.ID
			if err = db.UpdateLab(ctx, &lab); err != nil {
				return fmt.Errorf("update lab %s: %w", lab.Name, err)
			}
			labsUpdated++
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("get lab %s: %w", lab.Name, err)
		}
		if err = db.CreateLab(ctx, &lab); err != nil {
			return fmt.Errorf("create lab %s: %w", lab.Name, err)
		}
		labsCreated++
	}

	fmt.Printf("done: items created=%d updated=%d, labs created=%d updated=%d\n",
		itemsCreated, itemsUpdated, labsCreated, labsUpdated)
	return nil
}
