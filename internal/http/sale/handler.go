package sale

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/http/request"
	"github.com/MrJamesThe3rd/tally/internal/http/respond"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

type Handler struct {
	svc            *sale.Service
	maxUploadBytes int64
}

func NewHandler(svc *sale.Service, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, err := h.decodeForm(w, r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	params, err := form.createParams()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	s, err := h.svc.Create(r.Context(), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(s))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	sales, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponses(sales))
}

// listFilter reads the optional startDate and endDate query parameters.
func listFilter(r *http.Request) (sale.ListFilter, error) {
	var filter sale.ListFilter

	if s := r.URL.Query().Get("startDate"); s != "" {
		t, err := request.ParseDate(s)
		if err != nil {
			return filter, apperr.Validation("startDate must be an RFC 3339 timestamp or YYYY-MM-DD")
		}

		filter.StartDate = &t
	}

	if s := r.URL.Query().Get("endDate"); s != "" {
		t, err := request.ParseDate(s)
		if err != nil {
			return filter, apperr.Validation("endDate must be an RFC 3339 timestamp or YYYY-MM-DD")
		}

		filter.EndDate = &t
	}

	return filter, nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := request.ID(r, sale.ErrNotFound)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	s, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(s))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := request.ID(r, sale.ErrNotFound)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	form, err := h.decodeForm(w, r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	s, err := h.svc.Update(r.Context(), id, form.updateParams())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(s))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.ID(r, sale.ErrNotFound)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Message(w, http.StatusOK, "Sale deleted")
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toStatsResponse(st))
}
