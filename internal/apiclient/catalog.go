package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount"`
	Image           string          `json:"image,omitempty"`
	Category        string          `json:"category,omitempty"`
	Rating          float64         `json:"rating,omitempty"`
	Available       *bool           `json:"available,omitempty"`
}

// IsAvailable treats a missing flag as available.
func (p Product) IsAvailable() bool { return p.Available == nil || *p.Available }

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug,omitempty"`
	Image string `json:"image,omitempty"`
}

type ProductQuery struct {
	Search   string
	Category string
	Sort     string
	Page     int
	Limit    int
}

func (q ProductQuery) encode() string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page,omitempty"`
}

type CatalogService struct{ c *Client }

func (c *Client) Catalog() *CatalogService { return &CatalogService{c: c} }

// Products accepts either a bare array or a {"products": [...]} page.
func (s *CatalogService) Products(ctx context.Context, q ProductQuery) Result[ProductPage] {
	var raw rawList[Product]
	if err := s.c.do(ctx, http.MethodGet, "/products"+q.encode(), nil, &raw); err != nil {
		return fail[ProductPage](err)
	}
	page := ProductPage{Products: raw.items, Total: raw.total, Page: q.Page}
	if page.Total == 0 {
		page.Total = len(page.Products)
	}
	for _, p := range page.Products {
		if p.ID == "" {
			return failMsg[ProductPage]("malformed response: product without id")
		}
	}
	return ok(page)
}

func (s *CatalogService) Product(ctx context.Context, id string) Result[Product] {
	if id == "" {
		return failMsg[Product]("product id is required")
	}
	var p struct {
		Product
		Nested *Product `json:"product"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return fail[Product](err)
	}
	got := p.Product
	if p.Nested != nil {
		got = *p.Nested
	}
	if got.ID == "" {
		return failMsg[Product]("malformed response: product without id")
	}
	return ok(got)
}

func (s *CatalogService) Categories(ctx context.Context) Result[[]Category] {
	var raw rawList[Category]
	if err := s.c.do(ctx, http.MethodGet, "/categories", nil, &raw); err != nil {
		return fail[[]Category](err)
	}
	return ok(raw.items)
}
