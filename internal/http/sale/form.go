package sale

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/http/request"
	"github.com/MrJamesThe3rd/tally/internal/picture"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

var (
	errQuantityRequired = apperr.Validation("quantity is required")
	errPriceRequired    = apperr.Validation("price is required")
)

// saleForm is a create or update body after decoding. Nil fields were absent.
type saleForm struct {
	ItemName *string
	Quantity *decimal.Decimal
	Price    *decimal.Decimal
	Date     *time.Time
	Category request.OptionalID
	Picture  *picture.Upload
}

// saleRequest is the JSON body. Total is accepted so clients echoing a sale
// are not rejected, but it is never read.
type saleRequest struct {
	ItemName *string            `json:"itemName"`
	Quantity json.RawMessage    `json:"quantity"`
	Price    json.RawMessage    `json:"price"`
	Total    json.RawMessage    `json:"total"`
	Date     *request.Date      `json:"date"`
	Category request.OptionalID `json:"category"`
}

// formFields lists the multipart values a sale body may carry.
var formFields = map[string]bool{
	"itemName": true,
	"quantity": true,
	"price":    true,
	"total":    true,
	"date":     true,
	"category": true,
}

const pictureField = "picture"

func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request) (saleForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return h.decodeMultipart(w, r)
	}

	return decodeJSON(r)
}

func decodeJSON(r *http.Request) (saleForm, error) {
	var req saleRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		return saleForm{}, err
	}

	form := saleForm{ItemName: req.ItemName, Category: req.Category}

	var err error
	if form.Quantity, err = rawNumber("quantity", req.Quantity); err != nil {
		return saleForm{}, err
	}

	if form.Price, err = rawNumber("price", req.Price); err != nil {
		return saleForm{}, err
	}

	if req.Date != nil {
		form.Date = &req.Date.Time
	}

	return form, nil
}

func (h *Handler) decodeMultipart(w http.ResponseWriter, r *http.Request) (saleForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return saleForm{}, picture.ErrTooLarge
		}

		return saleForm{}, apperr.Wrap(apperr.KindValidation, "malformed multipart body", err)
	}

	for key := range r.MultipartForm.Value {
		if !formFields[key] {
			return saleForm{}, apperr.Validation("unknown field \"" + key + "\"")
		}
	}

	for key := range r.MultipartForm.File {
		if key != pictureField {
			return saleForm{}, apperr.Validation("unknown file field \"" + key + "\"")
		}
	}

	var (
		form saleForm
		err  error
	)

	values := r.MultipartForm.Value

	if v, ok := values["itemName"]; ok {
		form.ItemName = &v[0]
	}

	if form.Quantity, err = formNumber("quantity", values); err != nil {
		return saleForm{}, err
	}

	if form.Price, err = formNumber("price", values); err != nil {
		return saleForm{}, err
	}

	if v, ok := values["date"]; ok && strings.TrimSpace(v[0]) != "" {
		t, err := request.ParseDate(strings.TrimSpace(v[0]))
		if err != nil {
			return saleForm{}, apperr.Validation("date must be an RFC 3339 timestamp or YYYY-MM-DD")
		}

		form.Date = &t
	}

	if v, ok := values["category"]; ok {
		if form.Category, err = request.ParseOptionalID(v[0]); err != nil {
			return saleForm{}, apperr.Validation(err.Error())
		}
	}

	if files := r.MultipartForm.File[pictureField]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			return saleForm{}, apperr.Wrap(apperr.KindValidation, "unreadable picture", err)
		}
		defer f.Close()

		up, err := picture.ReadUpload(f, files[0].Filename, h.maxUploadBytes)
		if err != nil {
			return saleForm{}, err
		}

		form.Picture = &up
	}

	return form, nil
}

// rawNumber coerces a JSON number or numeric string to a decimal.
func rawNumber(field string, raw json.RawMessage) (*decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}

	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, notANumber(field)
		}
	}

	return parseNumber(field, s)
}

func formNumber(field string, values map[string][]string) (*decimal.Decimal, error) {
	v, ok := values[field]
	if !ok {
		return nil, nil
	}

	return parseNumber(field, v[0])
}

func parseNumber(field, s string) (*decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !sale.InRange(d) {
		return nil, notANumber(field)
	}

	return &d, nil
}

func notANumber(field string) error {
	return apperr.Validation(field + " must be a number")
}

func (f saleForm) createParams() (sale.CreateParams, error) {
	switch {
	case f.ItemName == nil:
		return sale.CreateParams{}, sale.ErrItemNameRequired
	case f.Quantity == nil:
		return sale.CreateParams{}, errQuantityRequired
	case f.Price == nil:
		return sale.CreateParams{}, errPriceRequired
	}

	return sale.CreateParams{
		ItemName:   *f.ItemName,
		Quantity:   *f.Quantity,
		Price:      *f.Price,
		Date:       f.Date,
		CategoryID: f.Category.ID,
		Picture:    f.Picture,
	}, nil
}

func (f saleForm) updateParams() sale.UpdateParams {
	return sale.UpdateParams{
		ItemName:      f.ItemName,
		Quantity:      f.Quantity,
		Price:         f.Price,
		Date:          f.Date,
		CategoryID:    f.Category.ID,
		ClearCategory: f.Category.Set && f.Category.ID == nil,
		Picture:       f.Picture,
	}
}
