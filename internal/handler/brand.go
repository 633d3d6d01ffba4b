package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/YannKr/brandportal/internal/db"
	"github.com/YannKr/brandportal/internal/export"
	"github.com/YannKr/brandportal/internal/layout"
	"github.com/YannKr/brandportal/internal/model"
	"github.com/YannKr/brandportal/internal/storage"
	"github.com/YannKr/brandportal/internal/watermark"
)

// profileFor returns the profile school sees for resourceID with the editor's
// unsaved positions, if any, laid over it.
func (h *Handler) profileFor(schoolID, resourceID string, pos *layout.Positions) (layout.Profile, error) {
	p, _, err := db.EffectiveLayout(h.DB, schoolID, resourceID)
	if err != nil {
		return layout.Profile{}, err
	}
	if pos != nil {
		p = pos.Profile(p)
	}
	return p, nil
}

func (h *Handler) brandFor(r *http.Request, res *model.Resource, school *model.School, pos *layout.Positions, preview bool) (*watermark.Artifact, error) {
	p, err := h.profileFor(school.ID, res.ID, pos)
	if err != nil {
		return nil, err
	}
	return h.Engine.Brand(r.Context(), watermark.Request{
		Source:  sourceOf(res),
		Profile: p,
		Context: contextOf(school),
		Preview: preview,
	})
}

// AdminPreview handles POST /api/admin/generate-watermark-preview
func (h *Handler) AdminPreview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ResourceID string            `json:"resource_id"`
		SchoolIDs  []string          `json:"school_ids"`
		Positions  *layout.Positions `json:"positions"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	if len(body.SchoolIDs) == 0 {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "no school selected for preview")
		return
	}
	res := h.loadResource(w, body.ResourceID)
	if res == nil {
		return
	}
	school := h.loadSchool(w, body.SchoolIDs[0])
	if school == nil {
		return
	}

	art, err := h.brandFor(r, res, school, body.Positions, true)
	if err != nil {
		renderErr(w, "generate preview", err)
		return
	}
	defer art.Close()
	serveArtifact(w, r, art, art.Filename(res.Name), "inline")
}

// AdminDownload handles POST /api/admin/download-watermarked-resource
func (h *Handler) AdminDownload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ResourceID string            `json:"resource_id"`
		SchoolID   string            `json:"school_id"`
		Positions  *layout.Positions `json:"positions"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	res := h.loadResource(w, body.ResourceID)
	if res == nil {
		return
	}
	school := h.loadSchool(w, body.SchoolID)
	if school == nil {
		return
	}

	art, err := h.brandFor(r, res, school, body.Positions, false)
	if err != nil {
		renderErr(w, "brand resource", err)
		return
	}
	defer art.Close()
	serveArtifact(w, r, art, watermark.SanitizeName(school.Name)+"_"+art.Filename(res.Name), "attachment")
}

// schoolSelection accepts either a list of ids or the string "all".
type schoolSelection struct {
	All bool
	IDs []string
}

func (s *schoolSelection) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var all string
	if err := json.Unmarshal(data, &all); err == nil {
		if all != "all" {
			return fmt.Errorf("school_ids: want a list or \"all\", got %q", all)
		}
		s.All = true
		return nil
	}
	return json.Unmarshal(data, &s.IDs)
}

// BatchExport handles POST /api/admin/download-batch-watermarked
func (h *Handler) BatchExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ResourceID string            `json:"resource_id"`
		SchoolIDs  schoolSelection   `json:"school_ids"`
		Positions  *layout.Positions `json:"positions"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	res := h.loadResource(w, body.ResourceID)
	if res == nil {
		return
	}

	var schools []model.School
	var err error
	if body.SchoolIDs.All {
		schools, err = db.ListSchools(h.DB)
	} else {
		var missing []string
		schools, missing, err = db.GetSchools(h.DB, body.SchoolIDs.IDs)
		if err == nil && len(missing) > 0 {
			renderJSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown schools: "+strings.Join(missing, ", "))
			return
		}
	}
	if err != nil {
		renderErr(w, "load schools", err)
		return
	}
	if len(schools) == 0 {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "no schools selected")
		return
	}

	src := sourceOf(res)
	if h.DiskCache != nil {
		need := export.EstimateBytes(src, len(schools))
		stats := h.DiskCache.Get()
		if !stats.Fits(need, h.Cfg.DiskMinFreePct) {
			slog.Warn("batch export refused, low disk", "resource", res.ID, "need", humanize.Bytes(uint64(need)), "free", humanize.Bytes(stats.FreeBytes))
			renderJSONError(w, http.StatusInsufficientStorage, "INSUFFICIENT_STORAGE",
				fmt.Sprintf("export needs about %s but only %s is free", humanize.Bytes(uint64(need)), humanize.Bytes(stats.FreeBytes)))
			return
		}
	}

	recipients := make([]export.Recipient, 0, len(schools))
	for i := range schools {
		s := &schools[i]
		p, err := h.profileFor(s.ID, res.ID, body.Positions)
		if err != nil {
			renderErr(w, "load layout", err)
			return
		}
		if err := p.Validate(); err != nil {
			renderErr(w, "validate layout", err)
			return
		}
		recipients = append(recipients, export.Recipient{ID: s.ID, Name: s.Name, Context: contextOf(s), Profile: p})
	}

	result, err := h.Exporter.Export(r.Context(), src, recipients)
	if err != nil {
		renderErr(w, "export batch", err)
		return
	}
	defer result.Archive.Close()

	w.Header().Set("X-Export-Entries", strconv.Itoa(len(result.Entries)))
	if len(result.Skipped) > 0 {
		ids := make([]string, len(result.Skipped))
		for i, s := range result.Skipped {
			ids[i] = s.RecipientID
		}
		w.Header().Set("X-Export-Skipped", strings.Join(ids, ","))
	}
	serveArtifact(w, r, result.Archive, watermark.SanitizeName(res.Name)+"_watermarked_schools.zip", "attachment")
}

// ResourcePreview handles GET /api/resources/{id}/preview. With school_id
// the preview is branded for that school; without it the original is shown.
func (h *Handler) ResourcePreview(w http.ResponseWriter, r *http.Request) {
	res := h.loadResource(w, chi.URLParam(r, "id"))
	if res == nil {
		return
	}

	var art *watermark.Artifact
	var err error
	if schoolID := r.URL.Query().Get("school_id"); schoolID != "" {
		school := h.loadSchool(w, schoolID)
		if school == nil {
			return
		}
		art, err = h.brandFor(r, res, school, nil, true)
	} else {
		art, err = h.original(r, res)
	}
	if err != nil {
		renderErr(w, "preview resource", err)
		return
	}
	defer art.Close()
	serveArtifact(w, r, art, art.Filename(res.Name), "inline")
}

// original returns the stored file untouched, or a placeholder when it is
// missing.
func (h *Handler) original(r *http.Request, res *model.Resource) (*watermark.Artifact, error) {
	src, err := h.Engine.Resolver().Resolve(res.FilePath, res.Category)
	if errors.Is(err, storage.ErrNotFound) {
		return h.Engine.Brand(r.Context(), watermark.Request{
			Source:  sourceOf(res),
			Profile: layout.Default(),
			Preview: true,
		})
	}
	if err != nil {
		return nil, err
	}
	mt := watermark.EffectiveMediaType(res.FileType, src)
	return watermark.Passthrough(src, mt, watermark.ExtFor(mt, src)), nil
}

// SchoolDownload handles GET /api/school/resources/{id}/download
func (h *Handler) SchoolDownload(w http.ResponseWriter, r *http.Request) {
	res := h.loadResource(w, chi.URLParam(r, "id"))
	if res == nil {
		return
	}
	school := h.loadSchool(w, r.URL.Query().Get("school_id"))
	if school == nil {
		return
	}

	art, err := h.brandFor(r, res, school, nil, false)
	if err != nil {
		renderErr(w, "brand resource", err)
		return
	}
	defer art.Close()

	if err := db.RecordDownload(h.DB, &model.Download{
		ID:         uuid.New().String(),
		ResourceID: res.ID,
		SchoolID:   school.ID,
		SchoolName: school.Name,
		Branded:    art.Branded,
	}); err != nil {
		slog.Error("record download", "resource", res.ID, "school", school.ID, "error", err)
	}
	slog.Info("resource downloaded", "resource", res.ID, "school", school.ID, "branded", art.Branded, "ip", realIP(r))
	serveArtifact(w, r, art, art.Filename(res.Name), "attachment")
}
