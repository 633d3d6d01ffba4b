package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Routes(brandRL *RateLimiter) chi.Router {
	r := chi.NewRouter()

	if h.Cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.RequireAdmin)

		r.Post("/resources/upload", h.ResourceUpload)
		r.Get("/resources", h.ResourceList)
		r.Delete("/resources/{id}", h.ResourceDelete)
		r.Get("/resources/{id}/downloads", h.ResourceDownloads)
		r.Post("/schools", h.SchoolCreate)
		r.Get("/schools", h.SchoolList)
		r.Put("/schools/{id}/logo", h.SchoolLogoUpdate)
		r.Delete("/schools/{id}", h.SchoolDelete)
		r.Get("/storage", h.AdminStorage)

		r.Get("/watermark-template", h.TemplateGet)
		r.Post("/save-watermark-template", h.TemplateSave)
		r.Delete("/watermark-template", h.TemplateDelete)

		r.Group(func(r chi.Router) {
			r.Use(brandRL.Middleware)
			r.Post("/generate-watermark-preview", h.AdminPreview)
			r.Post("/download-watermarked-resource", h.AdminDownload)
			r.Post("/download-batch-watermarked", h.BatchExport)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(brandRL.Middleware)
		r.Get("/api/resources/{id}/preview", h.ResourcePreview)
		r.Get("/api/school/resources/{id}/download", h.SchoolDownload)
	})
	r.Put("/api/school/resources/{id}/layout", h.SchoolLayoutSave)

	return r
}
