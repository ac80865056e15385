package export

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/export"
	"github.com/MrJamesThe3rd/tally/internal/http/request"
	"github.com/MrJamesThe3rd/tally/internal/http/respond"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.download)
	r.Post("/summary", h.summary)
}

// exportRequest bounds the exported sales by date. Both ends are optional.
type exportRequest struct {
	StartDate *request.Date `json:"startDate,omitempty"`
	EndDate   *request.Date `json:"endDate,omitempty"`
}

type saleResponse struct {
	ID         uuid.UUID   `json:"id"`
	ItemName   string      `json:"itemName"`
	Total      json.Number `json:"total"`
	Date       time.Time   `json:"date"`
	PictureURL string      `json:"pictureUrl,omitempty"`
}

type summaryResponse struct {
	Sales   []saleResponse `json:"sales"`
	Summary string         `json:"summary"`
}

func toSaleResponse(s *sale.Sale) saleResponse {
	return saleResponse{
		ID:         s.ID,
		ItemName:   s.ItemName,
		Total:      json.Number(s.Total.String()),
		Date:       s.Date,
		PictureURL: s.PictureURL,
	}
}

// decodeFilter reads the optional body. An empty body exports everything.
func decodeFilter(r *http.Request) (sale.ListFilter, error) {
	var req exportRequest
	if err := request.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return sale.ListFilter{}, err
	}

	var filter sale.ListFilter
	if req.StartDate != nil {
		filter.StartDate = &req.StartDate.Time
	}

	if req.EndDate != nil {
		filter.EndDate = &req.EndDate.Time
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return sale.ListFilter{}, apperr.Validation("endDate must not be before startDate")
	}

	return filter, nil
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	filter, err := decodeFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	tmpDir, err := os.MkdirTemp("", "tally-export-*")
	if err != nil {
		respond.Error(w, r, fmt.Errorf("creating temp dir: %w", err))
		return
	}
	defer os.RemoveAll(tmpDir)

	items, err := h.svc.Export(r.Context(), filter, tmpDir)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	sales := make([]saleResponse, 0, len(items))
	for _, item := range items {
		sales = append(sales, toSaleResponse(item.Sale))
	}

	respond.JSON(w, http.StatusOK, summaryResponse{
		Sales:   sales,
		Summary: h.svc.GenerateSummary(items),
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	filter, err := decodeFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	tmpDir, err := os.MkdirTemp("", "tally-export-*")
	if err != nil {
		respond.Error(w, r, fmt.Errorf("creating temp dir: %w", err))
		return
	}
	defer os.RemoveAll(tmpDir)

	if _, err := h.svc.Export(r.Context(), filter, tmpDir); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"sales_%s.zip\"", time.Now().Format("20060102")))

	if err := writeZip(w, tmpDir); err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}

// writeZip archives every file under dir with paths relative to it.
func writeZip(w io.Writer, dir string) error {
	zipWriter := zip.NewWriter(w)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		zf, err := zipWriter.Create(filepath.ToSlash(relPath))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		return err
	}

	return zipWriter.Close()
}
