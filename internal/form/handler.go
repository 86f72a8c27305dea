// AngelaMos | 2026
// handler.go

package form

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/formset/backend/internal/core"
	"github.com/formset/backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/forms", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{formID}", h.Get)
		r.Put("/{formID}", h.Update)
		r.Delete("/{formID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())

	var req CreateFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	form, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		writeFormError(w, err)
		return
	}

	core.Created(w, ToFormResponse(form))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())

	params := ListFormsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
	}

	forms, total, err := h.service.List(r.Context(), actor, params)
	if err != nil {
		writeFormError(w, err)
		return
	}

	core.Paginated(
		w,
		ToFormResponseList(forms),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	formID := chi.URLParam(r, "formID")

	form, err := h.service.Get(r.Context(), actor, formID)
	if err != nil {
		writeFormError(w, err)
		return
	}

	core.OK(w, ToFormResponse(form))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	formID := chi.URLParam(r, "formID")

	var req UpdateFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	form, err := h.service.Update(r.Context(), actor, formID, req)
	if err != nil {
		writeFormError(w, err)
		return
	}

	core.OK(w, ToFormResponse(form))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	formID := chi.URLParam(r, "formID")

	if err := h.service.Delete(r.Context(), actor, formID); err != nil {
		writeFormError(w, err)
		return
	}

	core.NoContent(w)
}

func writeFormError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "form")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "authentication required")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "insufficient permissions")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
