package handler

import (
	"net/http"

	"github.com/dustin/go-humanize"
)

type apiStorage struct {
	TotalBytes   uint64  `json:"total_bytes"`
	FreeBytes    uint64  `json:"free_bytes"`
	AppBytes     uint64  `json:"app_bytes"`
	UploadsBytes uint64  `json:"uploads_bytes"`
	TempBytes    uint64  `json:"temp_bytes"`
	PctFree      float64 `json:"pct_free"`
	MinFreePct   float64 `json:"min_free_pct"`
	Free         string  `json:"free"`
	Uploads      string  `json:"uploads"`
	CapturedAt   string  `json:"captured_at"`
}

// AdminStorage handles GET /api/admin/storage
func (h *Handler) AdminStorage(w http.ResponseWriter, r *http.Request) {
	if h.DiskCache == nil {
		renderJSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "disk monitoring not available")
		return
	}
	s := h.DiskCache.Get()
	renderJSON(w, http.StatusOK, apiStorage{
		TotalBytes:   s.TotalBytes,
		FreeBytes:    s.FreeBytes,
		AppBytes:     s.AppBytes,
		UploadsBytes: s.UploadsBytes,
		TempBytes:    s.TempBytes,
		PctFree:      s.PctFree(),
		MinFreePct:   h.Cfg.DiskMinFreePct,
		Free:         humanize.IBytes(s.FreeBytes),
		Uploads:      humanize.IBytes(s.UploadsBytes),
		CapturedAt:   s.CapturedAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}
