package sale

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/sale"
)

type saleResponse struct {
	ID         uuid.UUID         `json:"id"`
	ItemName   string            `json:"itemName"`
	Quantity   json.Number       `json:"quantity"`
	Price      json.Number       `json:"price"`
	Total      json.Number       `json:"total"`
	Date       time.Time         `json:"date"`
	PictureURL string            `json:"pictureUrl"`
	Category   *categoryResponse `json:"category"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type categoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// number renders a decimal as a JSON number rather than a quoted string.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func toResponse(s *sale.Sale) saleResponse {
	resp := saleResponse{
		ID:         s.ID,
		ItemName:   s.ItemName,
		Quantity:   number(s.Quantity),
		Price:      number(s.Price),
		Total:      number(s.Total),
		Date:       s.Date,
		PictureURL: s.PictureURL,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}

	if s.Category != nil {
		resp.Category = &categoryResponse{
			ID:   s.Category.ID,
			Name: s.Category.Name,
		}
	}

	return resp
}

func toResponses(sales []*sale.Sale) []saleResponse {
	resp := make([]saleResponse, len(sales))
	for i, s := range sales {
		resp[i] = toResponse(s)
	}

	return resp
}

type statsResponse struct {
	TotalRevenue json.Number     `json:"totalRevenue"`
	TotalSales   int             `json:"totalSales"`
	AverageSale  json.Number     `json:"averageSale"`
	ByDate       []dayTotal      `json:"byDate"`
	ByCategory   []categoryTotal `json:"byCategory"`
	Monthly      []monthTotal    `json:"monthly"`
}

type dayTotal struct {
	Date  string      `json:"date"`
	Total json.Number `json:"total"`
	Count int         `json:"count"`
}

type categoryTotal struct {
	Name  string      `json:"name"`
	Total json.Number `json:"total"`
	Count int         `json:"count"`
}

type monthTotal struct {
	Month   string      `json:"month"`
	Revenue json.Number `json:"revenue"`
	Sales   int         `json:"sales"`
}

func toStatsResponse(st *sale.Stats) statsResponse {
	resp := statsResponse{
		TotalRevenue: number(st.TotalRevenue),
		TotalSales:   st.TotalSales,
		AverageSale:  number(st.AverageSale.Round(2)),
		ByDate:       make([]dayTotal, len(st.ByDate)),
		ByCategory:   make([]categoryTotal, len(st.ByCategory)),
		Monthly:      make([]monthTotal, len(st.Monthly)),
	}

	for i, d := range st.ByDate {
		resp.ByDate[i] = dayTotal{Date: d.Date, Total: number(d.Total), Count: d.Count}
	}

	for i, c := range st.ByCategory {
		resp.ByCategory[i] = categoryTotal{Name: c.Name, Total: number(c.Total), Count: c.Count}
	}

	for i, m := range st.Monthly {
		resp.Monthly[i] = monthTotal{Month: m.Month, Revenue: number(m.Revenue), Sales: m.Sales}
	}

	return resp
}
