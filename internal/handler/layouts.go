package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/YannKr/brandportal/internal/db"
	"github.com/YannKr/brandportal/internal/layout"
)

type layoutResponse struct {
	ResourceID  string           `json:"resource_id"`
	RecipientID string           `json:"school_id"`
	Source      db.LayoutSource  `json:"source"`
	Profile     layout.Profile   `json:"profile"`
	Positions   layout.Positions `json:"positions"`
}

func recipientOf(schoolID string, forAll bool) string {
	if forAll || schoolID == "" {
		return layout.TemplateRecipient
	}
	return schoolID
}

// TemplateGet handles GET /api/admin/watermark-template
func (h *Handler) TemplateGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := h.loadResource(w, q.Get("resource_id"))
	if res == nil {
		return
	}
	recipient := recipientOf(q.Get("school_id"), false)
	p, src, err := db.EffectiveLayout(h.DB, recipient, res.ID)
	if err != nil {
		renderErr(w, "load layout", err)
		return
	}
	renderJSON(w, http.StatusOK, layoutResponse{
		ResourceID:  res.ID,
		RecipientID: recipient,
		Source:      src,
		Profile:     p,
		Positions:   layout.FromProfile(p),
	})
}

// TemplateSave handles POST /api/admin/save-watermark-template
func (h *Handler) TemplateSave(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ResourceID string           `json:"resource_id"`
		SchoolID   string           `json:"school_id"`
		IsForAll   bool             `json:"is_for_all"`
		Positions  layout.Positions `json:"positions"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	res := h.loadResource(w, body.ResourceID)
	if res == nil {
		return
	}
	recipient := recipientOf(body.SchoolID, body.IsForAll)
	if recipient != layout.TemplateRecipient && h.loadSchool(w, recipient) == nil {
		return
	}
	h.saveLayout(w, recipient, res.ID, body.Positions)
}

// TemplateDelete handles DELETE /api/admin/watermark-template
func (h *Handler) TemplateDelete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := h.loadResource(w, q.Get("resource_id"))
	if res == nil {
		return
	}
	recipient := recipientOf(q.Get("school_id"), false)
	if err := db.DeleteLayout(h.DB, recipient, res.ID); err != nil {
		renderErr(w, "delete layout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SchoolLayoutSave handles PUT /api/school/resources/{id}/layout
func (h *Handler) SchoolLayoutSave(w http.ResponseWriter, r *http.Request) {
	var pos layout.Positions
	if err := decodeJSON(r, &pos); err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	res := h.loadResource(w, chi.URLParam(r, "id"))
	if res == nil {
		return
	}
	school := h.loadSchool(w, r.URL.Query().Get("school_id"))
	if school == nil {
		return
	}
	if school.ID == layout.TemplateRecipient {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "school_id is reserved")
		return
	}
	h.saveLayout(w, school.ID, res.ID, pos)
}

// saveLayout overlays pos on the profile the recipient currently sees,
// validates the result and stores it.
func (h *Handler) saveLayout(w http.ResponseWriter, recipient, resourceID string, pos layout.Positions) {
	base, _, err := db.EffectiveLayout(h.DB, recipient, resourceID)
	if err != nil {
		renderErr(w, "load layout", err)
		return
	}
	p := pos.Profile(base)
	if err := p.Validate(); err != nil {
		renderErr(w, "validate layout", err)
		return
	}
	if err := db.UpsertLayout(h.DB, recipient, resourceID, p); err != nil {
		renderErr(w, "save layout", err)
		return
	}
	slog.Info("layout saved", "resource", resourceID, "recipient", recipient)

	src := db.LayoutOwn
	if recipient == layout.TemplateRecipient {
		src = db.LayoutTemplate
	}
	renderJSON(w, http.StatusOK, layoutResponse{
		ResourceID:  resourceID,
		RecipientID: recipient,
		Source:      src,
		Profile:     p,
		Positions:   layout.FromProfile(p),
	})
}
