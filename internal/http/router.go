package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/tally/internal/http/auth"
	"github.com/MrJamesThe3rd/tally/internal/http/category"
	"github.com/MrJamesThe3rd/tally/internal/http/export"
	"github.com/MrJamesThe3rd/tally/internal/http/importcsv"
	"github.com/MrJamesThe3rd/tally/internal/http/matching"
	authmw "github.com/MrJamesThe3rd/tally/internal/http/middleware"
	"github.com/MrJamesThe3rd/tally/internal/http/sale"
)

type Options struct {
	CORSOrigins []string
	Verifier    authmw.TokenVerifier

	// Uploads serves stored pictures under UploadsPrefix when set.
	Uploads       http.Handler
	UploadsPrefix string
}

func New(
	opts Options,
	authV1 *auth.Handler,
	salesV1 *sale.Handler,
	categoryV1 *category.Handler,
	matchingV1 *matching.Handler,
	importV1 *importcsv.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			authV1.Routes(r)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json", "multipart/form-data"))
				salesV1.Routes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAuth(opts.Verifier))
				r.Route("/import", importV1.Routes)
				r.Route("/export", exportV1.Routes)
			})
		})

		r.Route("/category", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			categoryV1.Routes(r)
			matchingV1.Routes(r)
		})
	})

	if opts.Uploads != nil {
		prefix := "/" + strings.Trim(opts.UploadsPrefix, "/")
		router.Handle(prefix+"/*", http.StripPrefix(prefix, opts.Uploads))
	}

	return router
}
