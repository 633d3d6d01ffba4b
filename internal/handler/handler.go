package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/YannKr/brandportal/internal/config"
	"github.com/YannKr/brandportal/internal/diskstat"
	"github.com/YannKr/brandportal/internal/export"
	"github.com/YannKr/brandportal/internal/layout"
	"github.com/YannKr/brandportal/internal/storage"
	"github.com/YannKr/brandportal/internal/watermark"
)

type Handler struct {
	DB        *sql.DB
	Cfg       *config.Config
	Engine    *watermark.Engine
	Exporter  *export.Coordinator
	DiskCache *diskstat.Cache
}

func New(database *sql.DB, cfg *config.Config, engine *watermark.Engine, exporter *export.Coordinator) *Handler {
	return &Handler{
		DB:       database,
		Cfg:      cfg,
		Engine:   engine,
		Exporter: exporter,
	}
}

type apiError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []layout.FieldError `json:"fields,omitempty"`
}

func renderJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func renderJSONError(w http.ResponseWriter, status int, code, msg string) {
	renderJSON(w, status, map[string]apiError{"error": {Code: code, Message: msg}})
}

// renderErr maps engine and storage errors to a response. Anything not
// recognised is logged and reported as an internal error.
func renderErr(w http.ResponseWriter, op string, err error) {
	var verr *layout.ValidationError
	switch {
	case errors.As(err, &verr):
		renderJSON(w, http.StatusUnprocessableEntity, map[string]apiError{"error": {
			Code:    "INVALID_LAYOUT",
			Message: verr.Error(),
			Fields:  verr.Fields,
		}})
	case errors.Is(err, layout.ErrInvalid):
		renderJSONError(w, http.StatusUnprocessableEntity, "INVALID_LAYOUT", err.Error())
	case errors.Is(err, storage.ErrNotFound):
		renderJSONError(w, http.StatusNotFound, "FILE_NOT_FOUND", "resource file not found on server")
	case errors.Is(err, watermark.ErrImageTooLarge):
		renderJSONError(w, http.StatusUnprocessableEntity, "IMAGE_TOO_LARGE", err.Error())
	case errors.Is(err, export.ErrNothingExported):
		renderJSONError(w, http.StatusUnprocessableEntity, "NOTHING_EXPORTED", err.Error())
	default:
		slog.Error(op, "error", err)
		renderJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to "+op)
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// serveArtifact streams art with the given disposition ("inline" or
// "attachment"). The caller still owns art and closes it.
func serveArtifact(w http.ResponseWriter, r *http.Request, art *watermark.Artifact, filename, disposition string) {
	f, err := art.Open()
	if err != nil {
		renderErr(w, "open artifact", err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		renderErr(w, "stat artifact", err)
		return
	}

	mt := art.MediaType
	if mt == "" {
		mt = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mt)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, filename))
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, filename, info.ModTime(), f)
}

// realIP is the client address used for rate limiting and download logs.
// Proxy headers are only honoured through middleware.RealIP, which Routes
// installs when TRUST_PROXY is set; otherwise a client could rotate them.
func realIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
