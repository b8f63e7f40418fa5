package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter mounts every route on a chi router with the standard middleware
// stack.
func NewRouter(public *PublicHandler, admin *AdminHandler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(log))             // request id + structured access log
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(CORS())

	r.Get("/health", HealthCheck)
	r.Get("/site", public.Site)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", public.ListEvents)
		r.Get("/{slug}", public.GetEvent)
		r.Get("/{slug}/form", public.GetForm)
		r.Post("/{slug}/register", public.Register)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Get("/", admin.ListEvents)
			r.Post("/", admin.CreateEvent)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", admin.GetEvent)
				r.Put("/", admin.UpdateEvent)
				r.Delete("/", admin.DeleteEvent)

				r.Get("/fields", admin.ListFields)
				r.Post("/fields", admin.AddField)
				r.Post("/fields/reorder", admin.ReorderFields)
				r.Delete("/fields/{fieldID}", admin.DeleteField)

				r.Get("/registrations", admin.ListRegistrations)
				r.Get("/registrations/export", admin.ExportRegistrations)
			})
		})
		r.Route("/registrations/{id}", func(r chi.Router) {
			r.Get("/", admin.GetRegistration)
			r.Patch("/", admin.UpdateRegistration)
			r.Delete("/", admin.DeleteRegistration)
		})
	})

	return r
}
