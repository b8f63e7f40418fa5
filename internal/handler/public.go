package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/academy-events/internal/config"
	"github.com/Shivanand-hulikatti/academy-events/internal/model"
	"github.com/Shivanand-hulikatti/academy-events/internal/service"
)

// PublicHandler serves the visitor-facing routes.
type PublicHandler struct {
	events    *service.EventService
	schema    *service.SchemaService
	admission *service.RegistrationService
	site      *config.Store
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(
	events *service.EventService,
	schema *service.SchemaService,
	admission *service.RegistrationService,
	site *config.Store,
) *PublicHandler {
	return &PublicHandler{events: events, schema: schema, admission: admission, site: site}
}

// Site handles GET /site
func (h *PublicHandler) Site(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.site.Current().Site)
}

// ListEvents handles GET /events?type=
// Returns upcoming and ongoing events, soonest first.
func (h *PublicHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListOpenEvents(r.Context(), model.EventType(r.URL.Query().Get("type")))
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{slug}
func (h *PublicHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	detail, err := h.events.GetPublicEvent(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetForm handles GET /events/{slug}/form
// Returns the ordered field descriptors of the registration form.
func (h *PublicHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.PublicEvent(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	fields, err := h.schema.GetFormSchema(r.Context(), e.ID)
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// Register handles POST /events/{slug}/register
// Accepts a JSON object or an HTML form post and runs the admission engine.
func (h *PublicHandler) Register(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}

	in, err := parseSubmission(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reg, err := h.admission.Submit(r.Context(), e.ID, in)
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}
