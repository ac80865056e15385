// Package app wires stores, picture storage and services from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/category"
	categoryStore "github.com/MrJamesThe3rd/tally/internal/category/store"
	"github.com/MrJamesThe3rd/tally/internal/config"
	"github.com/MrJamesThe3rd/tally/internal/database"
	"github.com/MrJamesThe3rd/tally/internal/export"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/importer/salescsv"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/tally/internal/matching/store"
	"github.com/MrJamesThe3rd/tally/internal/memstore"
	"github.com/MrJamesThe3rd/tally/internal/picture"
	"github.com/MrJamesThe3rd/tally/internal/sale"
	saleStore "github.com/MrJamesThe3rd/tally/internal/sale/store"
	userStore "github.com/MrJamesThe3rd/tally/internal/user/store"
)

type App struct {
	Auth       *auth.Service
	Categories *category.Service
	Sales      *sale.Service
	Matching   *matching.Service
	Import     *importer.Service
	Export     *export.Service

	// Uploads serves locally stored pictures. Nil with the s3 driver.
	Uploads http.Handler

	closers []func() error
}

type repositories struct {
	users      auth.Repository
	categories category.Repository
	sales      sale.Repository
	rules      matching.Repository
}

// New opens the configured store and picture storage and builds every service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	repos, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pictures, err := a.openPictures(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Auth = auth.NewService(repos.users, auth.NewTokenIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL), hasher)
	a.Categories = category.NewService(repos.categories)
	a.Sales = sale.NewService(repos.sales, a.Categories, pictures)
	a.Matching = matching.NewService(repos.rules, a.Categories)
	a.Import = importer.NewService(salescsv.NewParser(), a.Sales, a.Categories, a.Matching)
	a.Export = export.NewService(a.Sales, pictures)

	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.App.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store, data is lost on exit")

		store := memstore.New()

		return &repositories{users: store, categories: store, sales: store, rules: store}, nil
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	a.closers = append(a.closers, db.Close)

	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
	}

	return postgresRepositories(db), nil
}

func postgresRepositories(db *sql.DB) *repositories {
	return &repositories{
		users:      userStore.New(db),
		categories: categoryStore.New(db),
		sales:      saleStore.New(db),
		rules:      matchingStore.New(db),
	}
}

func (a *App) openPictures(ctx context.Context, cfg *config.Config) (picture.Storage, error) {
	if cfg.Uploads.Driver == config.UploadsDriverS3 {
		return picture.NewS3(ctx, picture.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
	}

	local, err := picture.NewLocal(cfg.Uploads.Dir, cfg.Uploads.Prefix)
	if err != nil {
		return nil, err
	}

	a.Uploads = http.FileServer(http.Dir(local.Dir()))

	return local, nil
}

// Close releases the database connection, if any.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Error("failed to close resource", "error", err)
		}
	}

	a.closers = nil
}
