package matching

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/http/middleware"
	"github.com/MrJamesThe3rd/tally/internal/http/request"
	"github.com/MrJamesThe3rd/tally/internal/http/respond"
	"github.com/MrJamesThe3rd/tally/internal/matching"
)

type Handler struct {
	svc      *matching.Service
	verifier middleware.TokenVerifier
}

func NewHandler(svc *matching.Service, verifier middleware.TokenVerifier) *Handler {
	return &Handler{svc: svc, verifier: verifier}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.verifier))
		r.Post("/rules", h.learn)
	})
}

type categoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type suggestResponse struct {
	ItemName string            `json:"itemName"`
	Category *categoryResponse `json:"category"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	itemName := r.URL.Query().Get("itemName")
	if itemName == "" {
		respond.Error(w, r, apperr.Validation("itemName query parameter is required"))
		return
	}

	cat, err := h.svc.Suggest(r.Context(), itemName)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := suggestResponse{ItemName: itemName}
	if cat != nil {
		resp.Category = &categoryResponse{ID: cat.ID, Name: cat.Name}
	}

	respond.JSON(w, http.StatusOK, resp)
}

type learnRequest struct {
	Pattern    string `json:"pattern" validate:"required"`
	CategoryID string `json:"categoryId" validate:"required,uuid"`
}

type ruleResponse struct {
	ID         uuid.UUID `json:"id"`
	Pattern    string    `json:"pattern"`
	CategoryID uuid.UUID `json:"categoryId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		respond.Error(w, r, apperr.Validation("categoryId must be a valid id"))
		return
	}

	rule, err := h.svc.Learn(r.Context(), req.Pattern, categoryID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ruleResponse{
		ID:         rule.ID,
		Pattern:    rule.Pattern,
		CategoryID: rule.CategoryID,
		CreatedAt:  rule.CreatedAt,
	})
}
