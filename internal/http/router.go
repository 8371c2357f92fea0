package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rivalth/kumbara/internal/http/importfile"
	kumbaramw "github.com/rivalth/kumbara/internal/http/middleware"
	"github.com/rivalth/kumbara/internal/http/transaction"
)

func New(
	transactionsV1 *transaction.Handler,
	importV1 *importfile.Handler,
	jwtSecret string,
	requestTimeout time.Duration,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	// Bulk imports run within a single request cycle; the request timeout is
	// the only bound on them.
	router.Use(chimw.Timeout(requestTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(kumbaramw.Auth(jwtSecret))

		r.Route("/transactions", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})

		r.Route("/import", importV1.Routes)
	})

	return router
}
