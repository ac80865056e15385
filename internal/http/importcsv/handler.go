package importcsv

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/http/respond"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

const maxImportBytes = 10 << 20

type Handler struct {
	importSvc *importer.Service
}

func NewHandler(importSvc *importer.Service) *Handler {
	return &Handler{importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type saleResponse struct {
	ID       uuid.UUID   `json:"id"`
	ItemName string      `json:"itemName"`
	Quantity json.Number `json:"quantity"`
	Price    json.Number `json:"price"`
	Total    json.Number `json:"total"`
	Date     time.Time   `json:"date"`
	Category *string     `json:"category"`
}

type importResponse struct {
	Imported          int            `json:"imported"`
	Profile           string         `json:"profile"`
	Charset           string         `json:"charset"`
	CreatedCategories []string       `json:"createdCategories"`
	Sales             []saleResponse `json:"sales"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(w, r, apperr.Validation("file is too large"))
			return
		}

		respond.Error(w, r, apperr.Wrap(apperr.KindValidation, "failed to parse form", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, apperr.Validation("file field is required"))
		return
	}
	defer file.Close()

	result, err := h.importSvc.Import(r.Context(), file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toImportResponse(result))
}

func toImportResponse(res *importer.Result) importResponse {
	resp := importResponse{
		Imported:          len(res.Sales),
		Profile:           res.Profile,
		Charset:           res.Charset,
		CreatedCategories: res.CreatedCategories,
		Sales:             make([]saleResponse, 0, len(res.Sales)),
	}

	if resp.CreatedCategories == nil {
		resp.CreatedCategories = []string{}
	}

	for _, s := range res.Sales {
		resp.Sales = append(resp.Sales, toSaleResponse(s))
	}

	return resp
}

func toSaleResponse(s *sale.Sale) saleResponse {
	resp := saleResponse{
		ID:       s.ID,
		ItemName: s.ItemName,
		Quantity: json.Number(s.Quantity.String()),
		Price:    json.Number(s.Price.String()),
		Total:    json.Number(s.Total.String()),
		Date:     s.Date,
	}

	if s.Category != nil {
		resp.Category = &s.Category.Name
	}

	return resp
}
