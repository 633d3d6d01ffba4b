package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/YannKr/brandportal/internal/db"
	"github.com/YannKr/brandportal/internal/model"
	"github.com/YannKr/brandportal/internal/watermark"
)

type apiResource struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	FilePath       string `json:"file_path"`
	FileType       string `json:"file_type"`
	FileSize       int64  `json:"file_size"`
	Kind           string `json:"kind"`
	UploadedByType string `json:"uploaded_by_type"`
	ApprovalStatus string `json:"approval_status"`
	DownloadCount  int    `json:"download_count"`
	CreatedAt      string `json:"created_at"`
}

func resourceToAPI(r *model.Resource) apiResource {
	return apiResource{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		FilePath:       r.FilePath,
		FileType:       r.FileType,
		FileSize:       r.FileSize,
		Kind:           watermark.Classify(r.FileType, r.FilePath).String(),
		UploadedByType: r.UploadedByType,
		ApprovalStatus: r.ApprovalStatus,
		DownloadCount:  r.DownloadCount,
		CreatedAt:      r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// saveUpload copies src to the stored path under the data dir and returns the
// absolute location and size.
func (h *Handler) saveUpload(src io.Reader, stored string) (string, int64, error) {
	abs, err := h.Engine.Resolver().Abs(stored)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}
	dst, err := os.Create(abs)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(abs)
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	return abs, n, nil
}

// parseUpload parses a size-capped multipart body and reports whether the
// handler may continue.
func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			renderJSONError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE",
				fmt.Sprintf("upload exceeds %s", humanize.IBytes(uint64(h.Cfg.MaxUploadBytes))))
			return false
		}
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "failed to parse multipart form")
		return false
	}
	return true
}

// ResourceUpload handles POST /api/admin/resources/upload
func (h *Handler) ResourceUpload(w http.ResponseWriter, r *http.Request) {
	if !h.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "missing 'file' field in form")
		return
	}
	defer file.Close()

	category := strings.ToLower(strings.TrimSpace(r.FormValue("category")))
	if !model.ValidCategory(category) {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "category must be one of "+strings.Join(model.Categories, ", "))
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	declared := header.Header.Get("Content-Type")
	id := uuid.New().String()
	stored := path.Join("/uploads/resources", category, id+watermark.ExtFor("", header.Filename))
	abs, size, err := h.saveUpload(file, stored)
	if err != nil {
		renderErr(w, "store upload", err)
		return
	}

	res := &model.Resource{
		ID:          id,
		Name:        name,
		Description: r.FormValue("description"),
		Category:    category,
		FilePath:    stored,
		FileType:    watermark.EffectiveMediaType(declared, abs),
		FileSize:    size,
	}
	if err := db.CreateResource(h.DB, res); err != nil {
		os.Remove(abs)
		renderErr(w, "create resource", err)
		return
	}
	slog.Info("resource uploaded", "resource", id, "type", res.FileType, "size", humanize.Bytes(uint64(size)))

	created, err := db.GetResource(h.DB, id)
	if err != nil || created == nil {
		created = res
	}
	renderJSON(w, http.StatusCreated, resourceToAPI(created))
}

// ResourceList handles GET /api/admin/resources
func (h *Handler) ResourceList(w http.ResponseWriter, r *http.Request) {
	resources, err := db.ListResources(h.DB, r.URL.Query().Get("category"))
	if err != nil {
		renderErr(w, "list resources", err)
		return
	}
	out := make([]apiResource, len(resources))
	for i := range resources {
		out[i] = resourceToAPI(&resources[i])
	}
	renderJSON(w, http.StatusOK, out)
}

func (h *Handler) loadResource(w http.ResponseWriter, id string) *model.Resource {
	if id == "" {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "resource_id is required")
		return nil
	}
	res, err := db.GetResource(h.DB, id)
	if err != nil {
		renderErr(w, "get resource", err)
		return nil
	}
	if res == nil {
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return nil
	}
	return res
}

func sourceOf(res *model.Resource) watermark.SourceAsset {
	return watermark.SourceAsset{
		StoredPath: res.FilePath,
		Category:   res.Category,
		MediaType:  res.FileType,
		Name:       res.Name,
		Size:       res.FileSize,
	}
}

// ResourceDelete handles DELETE /api/admin/resources/{id}. The stored file
// goes with the record; layouts and download history cascade.
func (h *Handler) ResourceDelete(w http.ResponseWriter, r *http.Request) {
	res := h.loadResource(w, chi.URLParam(r, "id"))
	if res == nil {
		return
	}
	if err := db.DeleteResource(h.DB, res.ID); err != nil {
		renderErr(w, "delete resource", err)
		return
	}
	if p, err := h.Engine.Resolver().Resolve(res.FilePath, res.Category); err == nil {
		if err := os.Remove(p); err != nil {
			slog.Warn("remove resource file", "resource", res.ID, "path", p, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type apiDownload struct {
	ID           string `json:"id"`
	SchoolID     string `json:"school_id"`
	SchoolName   string `json:"school_name"`
	Branded      bool   `json:"branded"`
	DownloadedAt string `json:"downloaded_at"`
}

// ResourceDownloads handles GET /api/admin/resources/{id}/downloads
func (h *Handler) ResourceDownloads(w http.ResponseWriter, r *http.Request) {
	res := h.loadResource(w, chi.URLParam(r, "id"))
	if res == nil {
		return
	}
	downloads, err := db.ListDownloads(h.DB, res.ID)
	if err != nil {
		renderErr(w, "list downloads", err)
		return
	}
	out := make([]apiDownload, len(downloads))
	for i, d := range downloads {
		out[i] = apiDownload{
			ID:           d.ID,
			SchoolID:     d.SchoolID,
			SchoolName:   d.SchoolName,
			Branded:      d.Branded,
			DownloadedAt: d.DownloadedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"resource_id":    res.ID,
		"download_count": res.DownloadCount,
		"downloads":      out,
	})
}
