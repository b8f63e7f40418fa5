package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
	"github.com/Shivanand-hulikatti/academy-events/internal/service"
)

// AdminHandler serves the back-office routes: the event catalogue, the
// form builder and registration management.
type AdminHandler struct {
	events    *service.EventService
	schema    *service.SchemaService
	admission *service.RegistrationService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(events *service.EventService, schema *service.SchemaService, admission *service.RegistrationService) *AdminHandler {
	return &AdminHandler{events: events, schema: schema, admission: admission}
}

// ─── Events ───────────────────────────────────────────────────────────────────

// ListEvents handles GET /admin/events
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// CreateEvent handles POST /admin/events
func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.EventInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	e, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// GetEvent handles GET /admin/events/{id}
func (h *AdminHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// UpdateEvent handles PUT /admin/events/{id}
func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.EventInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	e, err := h.events.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteEvent handles DELETE /admin/events/{id}
// The event's form and registrations go with it.
func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Form builder ─────────────────────────────────────────────────────────────

// ListFields handles GET /admin/events/{id}/fields
func (h *AdminHandler) ListFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.schema.GetFormSchema(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// AddField handles POST /admin/events/{id}/fields
// Appends a field and returns the whole form.
func (h *AdminHandler) AddField(w http.ResponseWriter, r *http.Request) {
	var req model.FieldInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	fields, err := h.schema.InsertField(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusCreated, fields)
}

// DeleteField handles DELETE /admin/events/{id}/fields/{fieldID}
func (h *AdminHandler) DeleteField(w http.ResponseWriter, r *http.Request) {
	fieldID, err := strconv.ParseInt(chi.URLParam(r, "fieldID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid field id")
		return
	}
	fields, err := h.schema.DeleteField(r.Context(), chi.URLParam(r, "id"), fieldID)
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// ReorderFields handles POST /admin/events/{id}/fields/reorder
func (h *AdminHandler) ReorderFields(w http.ResponseWriter, r *http.Request) {
	var req model.ReorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	fields, err := h.schema.ReorderFields(r.Context(), chi.URLParam(r, "id"), req.Fields)
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// ─── Registrations ────────────────────────────────────────────────────────────

// ListRegistrations handles GET /admin/events/{id}/registrations
func (h *AdminHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.admission.ListRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// ExportRegistrations handles GET /admin/events/{id}/registrations/export
func (h *AdminHandler) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := h.admission.ExportRegistrations(r.Context(), chi.URLParam(r, "id"), &buf)
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetRegistration handles GET /admin/registrations/{id}
func (h *AdminHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.admission.GetRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "registration")
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// UpdateRegistration handles PATCH /admin/registrations/{id}
func (h *AdminHandler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	var req model.RegistrationUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	reg, err := h.admission.UpdateRegistration(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "registration")
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// DeleteRegistration handles DELETE /admin/registrations/{id}
func (h *AdminHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	if err := h.admission.DeleteRegistration(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "registration")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
