package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tally/internal/app"
	"github.com/MrJamesThe3rd/tally/internal/config"
)

var defaultCategories = []string{"Yarn", "Hooks", "Patterns", "Accessories"}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.App.StoreDriver == config.StoreDriverMemory {
		slog.Error("seeding the in-memory store has no effect, set STORE_DRIVER=postgres")
		os.Exit(1)
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	for _, name := range defaultCategories {
		c, created, err := a.Categories.Ensure(ctx, name)
		if err != nil {
			slog.Error("failed to seed category", "name", name, "error", err)
			a.Close()
			os.Exit(1)
		}

		if created {
			slog.Info("created category", "name", c.Name, "id", c.ID)
		} else {
			slog.Info("category already exists", "name", c.Name, "id", c.ID)
		}
	}
}
