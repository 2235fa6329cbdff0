package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "stats-service/internal/docs"
	"stats-service/internal/stats"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		for _, name := range stats.Names() {
			q, _ := stats.Lookup(name)
			r.Post("/"+name, h.SubmitQuery(q))
		}
		r.Get("/get_results/{job_id}", h.GetResults)
		r.Get("/graceful_shutdown", h.GracefulShutdown)
		r.Get("/jobs", h.Jobs)
		r.Get("/num_jobs", h.NumJobs)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
