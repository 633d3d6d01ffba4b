package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/YannKr/brandportal/internal/db"
	"github.com/YannKr/brandportal/internal/layout"
	"github.com/YannKr/brandportal/internal/model"
	"github.com/YannKr/brandportal/internal/watermark"
)

const logoDir = "/uploads/school_logos"

type apiSchool struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	LogoPath      string `json:"logo_path,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func schoolToAPI(s *model.School) apiSchool {
	return apiSchool{
		ID:            s.ID,
		Name:          s.Name,
		Email:         s.Email,
		ContactNumber: s.ContactNumber,
		LogoPath:      s.LogoPath,
		CreatedAt:     s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func contextOf(s *model.School) watermark.BrandingContext {
	return watermark.BrandingContext{
		DisplayName: s.Name,
		ContactLine: watermark.ContactLine(s.Email, s.ContactNumber),
		LogoPath:    s.LogoPath,
	}
}

// SchoolCreate handles POST /api/admin/schools
func (h *Handler) SchoolCreate(w http.ResponseWriter, r *http.Request) {
	if !h.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	name := strings.TrimSpace(r.FormValue("school_name"))
	if name == "" {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "school_name is required")
		return
	}
	id := strings.TrimSpace(r.FormValue("school_id"))
	if id == "" {
		id = uuid.New().String()
	}
	if msg := checkSchoolID(id); msg != "" {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", msg)
		return
	}
	if existing, err := db.GetSchool(h.DB, id); err != nil {
		renderErr(w, "get school", err)
		return
	} else if existing != nil {
		renderJSONError(w, http.StatusConflict, "CONFLICT", "school already exists")
		return
	}

	school := &model.School{
		ID:            id,
		Name:          name,
		Email:         strings.TrimSpace(r.FormValue("email")),
		ContactNumber: strings.TrimSpace(r.FormValue("contact_number")),
	}

	var logoAbs string
	if len(r.MultipartForm.File["logo"]) > 0 {
		stored, abs, ok := h.storeLogo(w, r, id)
		if !ok {
			return
		}
		school.LogoPath = stored
		logoAbs = abs
	}

	if err := db.CreateSchool(h.DB, school); err != nil {
		if logoAbs != "" {
			os.Remove(logoAbs)
		}
		renderErr(w, "create school", err)
		return
	}
	if created, err := db.GetSchool(h.DB, id); err == nil && created != nil {
		school = created
	}
	renderJSON(w, http.StatusCreated, schoolToAPI(school))
}

// SchoolList handles GET /api/admin/schools
func (h *Handler) SchoolList(w http.ResponseWriter, r *http.Request) {
	schools, err := db.ListSchools(h.DB)
	if err != nil {
		renderErr(w, "list schools", err)
		return
	}
	out := make([]apiSchool, len(schools))
	for i := range schools {
		out[i] = schoolToAPI(&schools[i])
	}
	renderJSON(w, http.StatusOK, out)
}

func (h *Handler) loadSchool(w http.ResponseWriter, id string) *model.School {
	if id == "" {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "school_id is required")
		return nil
	}
	s, err := db.GetSchool(h.DB, id)
	if err != nil {
		renderErr(w, "get school", err)
		return nil
	}
	if s == nil {
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", "school not found")
		return nil
	}
	return s
}

// checkSchoolID returns why id cannot name a school, or "" when it can. The
// template recipient key is reserved, and ids become logo file names.
func checkSchoolID(id string) string {
	switch {
	case id == layout.TemplateRecipient:
		return fmt.Sprintf("school_id %q is reserved", id)
	case strings.ContainsAny(id, `/\`) || id == "." || id == "..":
		return "school_id must not contain path separators"
	}
	return ""
}

// storeLogo saves the "logo" form file for school id. The upload is written
// to a scratch file beside the logos and only renamed into place once its
// content decodes as an image, so a rejected upload never touches the
// current logo. It writes the error response itself when ok is false.
func (h *Handler) storeLogo(w http.ResponseWriter, r *http.Request, id string) (stored, abs string, ok bool) {
	file, _, err := r.FormFile("logo")
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "missing 'logo' field in form")
		return "", "", false
	}
	defer file.Close()

	dir, err := h.Engine.Resolver().Abs(logoDir)
	if err != nil {
		renderErr(w, "store logo", err)
		return "", "", false
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		renderErr(w, "store logo", err)
		return "", "", false
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		renderErr(w, "store logo", err)
		return "", "", false
	}
	_, err = io.Copy(tmp, file)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		renderErr(w, "store logo", err)
		return "", "", false
	}

	_, format, err := watermark.DecodeConfigFile(tmp.Name())
	if err != nil {
		os.Remove(tmp.Name())
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "logo must be an image: "+err.Error())
		return "", "", false
	}

	stored = path.Join(logoDir, id+watermark.ExtFor("image/"+format, ""))
	abs = filepath.Join(dir, filepath.Base(stored))
	if err := os.Rename(tmp.Name(), abs); err != nil {
		os.Remove(tmp.Name())
		renderErr(w, "store logo", err)
		return "", "", false
	}
	return stored, abs, true
}

// SchoolLogoUpdate handles PUT /api/admin/schools/{id}/logo
func (h *Handler) SchoolLogoUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	school := h.loadSchool(w, chi.URLParam(r, "id"))
	if school == nil {
		return
	}
	stored, abs, ok := h.storeLogo(w, r, school.ID)
	if !ok {
		return
	}
	if err := db.UpdateSchoolLogo(h.DB, school.ID, stored); err != nil {
		// A same-named file already replaced the logo the row points at.
		if stored != school.LogoPath {
			os.Remove(abs)
		}
		renderErr(w, "update logo", err)
		return
	}
	if school.LogoPath != "" && school.LogoPath != stored {
		if old, err := h.Engine.Resolver().Resolve(school.LogoPath, ""); err == nil {
			os.Remove(old)
		}
	}
	school.LogoPath = stored
	renderJSON(w, http.StatusOK, schoolToAPI(school))
}

// SchoolDelete handles DELETE /api/admin/schools/{id}. Its own layout
// profiles are pruned with it.
func (h *Handler) SchoolDelete(w http.ResponseWriter, r *http.Request) {
	school := h.loadSchool(w, chi.URLParam(r, "id"))
	if school == nil {
		return
	}
	if err := db.DeleteSchool(h.DB, school.ID); err != nil {
		renderErr(w, "delete school", err)
		return
	}
	if n, err := db.PruneOrphanLayouts(h.DB); err != nil {
		slog.Warn("prune layouts", "school", school.ID, "error", err)
	} else if n > 0 {
		slog.Info("layouts pruned", "school", school.ID, "count", n)
	}
	if school.LogoPath != "" {
		if p, err := h.Engine.Resolver().Resolve(school.LogoPath, ""); err == nil {
			os.Remove(p)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
