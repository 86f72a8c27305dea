// AngelaMos | 2026
// handler.go

package submission

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/formset/backend/internal/core"
	"github.com/formset/backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public ingest endpoint under optionalAuth
// (anonymous submitters are the common case) and the tenant-facing
// read/delete endpoints under the full authenticator. There is no
// update route: submissions are immutable.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
	limiter func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		if limiter != nil {
			r.Use(limiter)
		}
		r.Post("/forms/{formID}/submissions", h.Ingest)
	})

	r.Route("/submissions", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/{submissionID}", h.Get)
		r.Delete("/{submissionID}", h.Delete)
	})
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	formID := chi.URLParam(r, "formID")

	var data DataMap
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	meta := RequestMeta{
		IPAddress: extractIPAddress(r),
		UserAgent: r.UserAgent(),
	}

	sub, err := h.service.Ingest(r.Context(), actor, formID, data, meta)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "form")
		case errors.Is(err, core.ErrFormInactive):
			core.BadRequest(w, "this form is not accepting submissions")
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "insufficient permissions")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, IngestResponse{
		Success:      true,
		Message:      "submission received",
		SubmissionID: sub.ID,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())

	params := ListSubmissionsParams{
		FormID:   r.URL.Query().Get("form_id"),
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 50),
	}

	subs, total, err := h.service.List(r.Context(), actor, params)
	if err != nil {
		writeSubmissionError(w, err)
		return
	}

	core.Paginated(
		w,
		ToSubmissionResponseList(subs),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	submissionID := chi.URLParam(r, "submissionID")

	sub, err := h.service.Get(r.Context(), actor, submissionID)
	if err != nil {
		writeSubmissionError(w, err)
		return
	}

	core.OK(w, ToSubmissionResponse(sub))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	submissionID := chi.URLParam(r, "submissionID")

	if err := h.service.Delete(r.Context(), actor, submissionID); err != nil {
		writeSubmissionError(w, err)
		return
	}

	core.NoContent(w)
}

func writeSubmissionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "submission")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "authentication required")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "insufficient permissions")
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

func extractIPAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx != -1 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}

	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
